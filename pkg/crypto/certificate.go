package crypto

import (
	"crypto/ecdsa"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Certificate is a signer's public identity: a compressed secp256k1 point.
// Chain-of-trust validation is not this layer's concern; a certificate
// only answers whether a signature covers given bytes.
type Certificate struct {
	pub *ecdsa.PublicKey
}

// NewCertificateFromBytes decodes a 33-byte compressed public key,
// rejecting points not on the curve.
func NewCertificateFromBytes(b []byte) (*Certificate, error) {
	if len(b) != CertificateLen {
		return nil, fmt.Errorf("invalid certificate length: got %d, want %d", len(b), CertificateLen)
	}
	pub, err := ethcrypto.DecompressPubkey(b)
	if err != nil {
		return nil, fmt.Errorf("invalid certificate: %w", err)
	}
	return &Certificate{pub: pub}, nil
}

// Bytes returns the 33-byte compressed encoding.
func (c *Certificate) Bytes() []byte {
	return ethcrypto.CompressPubkey(c.pub)
}

// Verify reports whether sig is a valid signature over msg under this
// certificate's public key. msg is the raw message; hashing happens here.
func (c *Certificate) Verify(msg []byte, sig *Signature) bool {
	return ecdsa.Verify(c.pub, digest(msg), sig.r, sig.s)
}

// Equal reports whether both certificates name the same public key.
func (c *Certificate) Equal(other *Certificate) bool {
	if other == nil {
		return false
	}
	return c.pub.X.Cmp(other.pub.X) == 0 && c.pub.Y.Cmp(other.pub.Y) == 0
}

// MarshalText renders the binary form as upper-case hex.
func (c *Certificate) MarshalText() ([]byte, error) {
	return marshalUpperHex(c.Bytes())
}

// UnmarshalText parses the upper-case hex form.
func (c *Certificate) UnmarshalText(text []byte) error {
	b, err := decodeHex(text, CertificateLen, "certificate")
	if err != nil {
		return err
	}
	decoded, err := NewCertificateFromBytes(b)
	if err != nil {
		return err
	}
	*c = *decoded
	return nil
}
