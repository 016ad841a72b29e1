package kvobject

// Body is the capability set a payload type must implement to be wrapped
// by a KVObject: binary encode/decode plus keyed access to named
// sub-fields as raw byte sequences.
//
// Implementations define their own attribute keys and field widths, but
// should signal failures with the shared sentinels: ErrKeyIndex for an
// unrecognized key and ErrValueLength for a value whose byte length does
// not match the target field.
type Body interface {
	// Encode returns the canonical binary encoding of the payload. The
	// signature embedded in an envelope is computed over exactly these
	// bytes, so the encoding must be deterministic.
	Encode() []byte

	// Decode replaces the receiver's contents with the payload decoded
	// from data.
	Decode(data []byte) error

	// GetAttr returns the raw bytes of the named field.
	GetAttr(key string) ([]byte, error)

	// SetAttr overwrites the named field with value.
	SetAttr(key string, value []byte) error
}

// bodyPtr constrains Decode's type parameter to pointer types whose
// pointee is T and which satisfy Body, so a fresh body can be allocated
// during decoding.
type bodyPtr[T any] interface {
	*T
	Body
}
