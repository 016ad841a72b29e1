package crypto

import (
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Signature is a compact ECDSA signature: r and s, 32 bytes each.
type Signature struct {
	r, s *big.Int
}

// NewSignatureFromBytes decodes the 64-byte compact form. Both scalars
// must lie in [1, N); high-S signatures from other producers are accepted.
func NewSignatureFromBytes(b []byte) (*Signature, error) {
	if len(b) != SignatureLen {
		return nil, fmt.Errorf("invalid signature length: got %d, want %d", len(b), SignatureLen)
	}
	r := new(big.Int).SetBytes(b[:32])
	s := new(big.Int).SetBytes(b[32:])
	n := ethcrypto.S256().Params().N
	if r.Sign() == 0 || r.Cmp(n) >= 0 {
		return nil, fmt.Errorf("signature r out of range")
	}
	if s.Sign() == 0 || s.Cmp(n) >= 0 {
		return nil, fmt.Errorf("signature s out of range")
	}
	return &Signature{r: r, s: s}, nil
}

// Bytes returns the 64-byte compact encoding, each scalar left-padded.
func (s *Signature) Bytes() []byte {
	out := make([]byte, SignatureLen)
	s.r.FillBytes(out[:32])
	s.s.FillBytes(out[32:])
	return out
}

// MarshalText renders the binary form as upper-case hex.
func (s *Signature) MarshalText() ([]byte, error) {
	return marshalUpperHex(s.Bytes())
}

// UnmarshalText parses the upper-case hex form.
func (s *Signature) UnmarshalText(text []byte) error {
	b, err := decodeHex(text, SignatureLen, "signature")
	if err != nil {
		return err
	}
	decoded, err := NewSignatureFromBytes(b)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}
