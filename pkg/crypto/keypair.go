package crypto

import (
	"bytes"
	"crypto/ecdsa"
	"fmt"
	"io"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

// hkdfInfo domain-separates envelope signing keys from any other secp256k1
// key material derived from the same seed.
var hkdfInfo = []byte("kvobject/secp256k1/v1")

// KeyPair is a secp256k1 signing identity. The zero value is unusable;
// construct via GenerateKeyPair, NewKeyPairFromSeed or NewKeyPairFromBytes.
type KeyPair struct {
	priv *ecdsa.PrivateKey
}

// GenerateKeyPair draws a fresh key pair from rand. The reader must be a
// cryptographically secure entropy source.
func GenerateKeyPair(rand io.Reader) (*KeyPair, error) {
	if rand == nil {
		return nil, fmt.Errorf("nil entropy source")
	}
	priv, err := ecdsa.GenerateKey(ethcrypto.S256(), rand)
	if err != nil {
		return nil, fmt.Errorf("key pair generation: %w", err)
	}
	return &KeyPair{priv: priv}, nil
}

// NewKeyPairFromSeed derives a key pair deterministically from a 32-byte
// seed using HKDF expansion. The same seed always yields the same key.
func NewKeyPairFromSeed(seed [32]byte) (*KeyPair, error) {
	expand := hkdf.New(sha3.New256, seed[:], nil, hkdfInfo)
	buf := make([]byte, 32)
	// Candidate scalars outside [1, N) are skipped; the retry bound is
	// unreachable in practice (rejection probability < 2^-128 per draw).
	for i := 0; i < 128; i++ {
		if _, err := io.ReadFull(expand, buf); err != nil {
			return nil, fmt.Errorf("seed expansion: %w", err)
		}
		priv, err := ethcrypto.ToECDSA(buf)
		if err == nil {
			return &KeyPair{priv: priv}, nil
		}
	}
	return nil, fmt.Errorf("seed expansion: no valid scalar found")
}

// NewKeyPairFromBytes decodes the fixed-width binary form produced by
// Bytes: 32-byte secret scalar followed by the 33-byte compressed public
// key. The embedded public key must match the secret.
func NewKeyPairFromBytes(b []byte) (*KeyPair, error) {
	if len(b) != KeyPairLen {
		return nil, fmt.Errorf("invalid key pair length: got %d, want %d", len(b), KeyPairLen)
	}
	priv, err := ethcrypto.ToECDSA(b[:32])
	if err != nil {
		return nil, fmt.Errorf("invalid secret scalar: %w", err)
	}
	if !bytes.Equal(ethcrypto.CompressPubkey(&priv.PublicKey), b[32:]) {
		return nil, fmt.Errorf("public key does not match secret scalar")
	}
	return &KeyPair{priv: priv}, nil
}

// Bytes returns the fixed-width binary form: secret ‖ compressed public.
func (kp *KeyPair) Bytes() []byte {
	out := make([]byte, 0, KeyPairLen)
	out = append(out, ethcrypto.FromECDSA(kp.priv)...)
	out = append(out, ethcrypto.CompressPubkey(&kp.priv.PublicKey)...)
	return out
}

// Sign produces a signature over msg, hashing it internally. Nonce entropy
// comes from rand; one draw per call, and reusing a deterministic rand
// across different messages is the caller's hazard to avoid.
func (kp *KeyPair) Sign(msg []byte, rand io.Reader) (*Signature, error) {
	if rand == nil {
		return nil, fmt.Errorf("nil entropy source")
	}
	r, s, err := ecdsa.Sign(rand, kp.priv, digest(msg))
	if err != nil {
		return nil, fmt.Errorf("ecdsa signing: %w", err)
	}
	// Canonical low-S form so the compact encoding is unique per signature.
	n := ethcrypto.S256().Params().N
	if s.Cmp(new(big.Int).Rsh(n, 1)) > 0 {
		s = new(big.Int).Sub(n, s)
	}
	return &Signature{r: r, s: s}, nil
}

// Certificate derives the public identity for this key pair.
func (kp *KeyPair) Certificate() *Certificate {
	return &Certificate{pub: &kp.priv.PublicKey}
}

// MarshalText renders the binary form as upper-case hex.
func (kp *KeyPair) MarshalText() ([]byte, error) {
	return marshalUpperHex(kp.Bytes())
}

// UnmarshalText parses the upper-case hex form.
func (kp *KeyPair) UnmarshalText(text []byte) error {
	b, err := decodeHex(text, KeyPairLen, "key pair")
	if err != nil {
		return err
	}
	decoded, err := NewKeyPairFromBytes(b)
	if err != nil {
		return err
	}
	*kp = *decoded
	return nil
}
