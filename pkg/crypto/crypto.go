// Package crypto adapts a secp256k1/Keccak-256 signature scheme to the
// envelope layer: key pairs sign raw message bytes, certificates are
// compressed public keys, and signatures are compact r‖s pairs. All three
// have fixed-width binary encodings and upper-case hex text forms.
package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Fixed binary widths. The envelope wire format depends on CertificateLen
// and SignatureLen staying put.
const (
	// KeyPairLen is the secret scalar followed by the compressed public key.
	KeyPairLen = 32 + CertificateLen

	// CertificateLen is a compressed secp256k1 public key.
	CertificateLen = 33

	// SignatureLen is the compact r‖s encoding, 32 bytes each.
	SignatureLen = 64
)

// digest is the hash signed and verified by this provider.
func digest(msg []byte) []byte {
	return ethcrypto.Keccak256(msg)
}

func marshalUpperHex(b []byte) ([]byte, error) {
	return []byte(strings.ToUpper(hex.EncodeToString(b))), nil
}

func decodeHex(text []byte, wantLen int, what string) ([]byte, error) {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return nil, fmt.Errorf("invalid %s hex: %w", what, err)
	}
	if len(b) != wantLen {
		return nil, fmt.Errorf("invalid %s hex: got %d bytes, want %d", what, len(b), wantLen)
	}
	return b, nil
}
