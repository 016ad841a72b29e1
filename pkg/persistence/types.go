package persistence

import "github.com/digicash-labs/kvobject-go/pkg/crypto"

// StoredEnvelope is a signed envelope at rest. Raw holds the complete wire
// bytes (header plus body); MsgType duplicates the tag byte so listings
// can filter without decoding.
type StoredEnvelope struct {
	// ID is the caller-chosen identifier, typically a uuid.
	ID string `json:"id"`

	// MsgType is the envelope's tag byte.
	MsgType byte `json:"msgType"`

	// Raw is the full serialized envelope.
	Raw []byte `json:"raw"`

	// CreatedAt is the Unix timestamp the record was first stored.
	CreatedAt int64 `json:"createdAt"`
}

// KeyPairRecord is a named signing identity at rest. The key material
// serializes through its upper-case hex text form.
type KeyPairRecord struct {
	// Name is the unique record name.
	Name string `json:"name"`

	// KeyPair is the signing key material.
	KeyPair *crypto.KeyPair `json:"keyPair"`

	// CreatedAt is the Unix timestamp the record was first stored.
	CreatedAt int64 `json:"createdAt"`
}
