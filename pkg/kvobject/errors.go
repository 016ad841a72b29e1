package kvobject

import "errors"

// Every failure mode surfaces as one of these sentinels, usually wrapped
// with context via fmt.Errorf and %w. Callers match with errors.Is.
// Errors are terminal for the operation that raised them; nothing in this
// package retries or downgrades a failure.
var (
	// ErrFindType means a buffer was too short to carry a type tag, or the
	// tag byte is not in the message type table.
	ErrFindType = errors.New("kvobject: cannot determine message type")

	// ErrSerialize means an envelope could not be serialized, e.g. encoding
	// was requested before the envelope was signed.
	ErrSerialize = errors.New("kvobject: envelope serialization failed")

	// ErrSign means the signing provider failed to produce a signature.
	ErrSign = errors.New("kvobject: signature generation failed")

	// ErrDecode means the buffer is malformed: shorter than the fixed
	// header, a header with no body, or a fixed-width header field that does
	// not decode.
	ErrDecode = errors.New("kvobject: malformed envelope bytes")

	// ErrVerify means the certificate and signature do not authenticate the
	// body bytes, or verification was requested on an unsigned envelope.
	// Deliberately carries no detail about which field failed.
	ErrVerify = errors.New("kvobject: signature verification failed")

	// ErrKeyIndex is returned by attribute access for an unrecognized key.
	ErrKeyIndex = errors.New("kvobject: unknown attribute key")

	// ErrValueLength is returned by attribute writes when the value's byte
	// length does not match the target field's width.
	ErrValueLength = errors.New("kvobject: attribute value has wrong length")
)
