package kvobject

import (
	"fmt"
	"io"

	"github.com/digicash-labs/kvobject-go/pkg/crypto"
)

// Wire layout, version 1. Header fields are positional and fixed-width;
// the body is everything after the header. Changing order or widths is a
// format version bump, since decoding relies on absolute offsets.
const (
	msgTypeLen    = 1
	msgTypeOffset = 0
	msgTypeEnd    = msgTypeOffset + msgTypeLen

	certLen    = crypto.CertificateLen
	certOffset = msgTypeEnd
	certEnd    = certOffset + certLen

	sigLen    = crypto.SignatureLen
	sigOffset = certEnd
	sigEnd    = sigOffset + sigLen

	// HeaderLen is the total fixed prefix: tag + certificate + signature.
	// An encoded envelope is always HeaderLen plus a non-empty body.
	HeaderLen = msgTypeLen + certLen + sigLen
)

// KVObject wraps a typed payload with a one-byte message tag, the signer's
// certificate and a detached signature over the payload's encoded bytes.
//
// A freshly constructed envelope is unsigned: certificate and signature
// are both nil. SignAndEncode fills both from the same signing operation;
// there is no observable state with only one of them set, and no
// transition back to unsigned.
type KVObject[T Body] struct {
	msgType MsgType
	cert    *crypto.Certificate
	sig     *crypto.Signature
	body    T
}

// New constructs an unsigned envelope around body. No side effects.
func New[T Body](msgType MsgType, body T) *KVObject[T] {
	return &KVObject[T]{
		msgType: msgType,
		body:    body,
	}
}

// MsgType returns the tag chosen at construction.
func (o *KVObject[T]) MsgType() MsgType {
	return o.msgType
}

// Body returns the enclosed payload.
func (o *KVObject[T]) Body() T {
	return o.body
}

// Certificate returns the signer's certificate, or nil while unsigned.
func (o *KVObject[T]) Certificate() *crypto.Certificate {
	return o.cert
}

// Signature returns the detached signature, or nil while unsigned.
func (o *KVObject[T]) Signature() *crypto.Signature {
	return o.sig
}

// Signed reports whether the envelope carries a certificate and signature.
func (o *KVObject[T]) Signed() bool {
	return o.cert != nil && o.sig != nil
}

// SignAndEncode signs the payload's encoded bytes with kp, drawing entropy
// from rand, stores the resulting signature together with the keypair's
// certificate, and returns the full serialization
// tag ‖ certificate ‖ signature ‖ body.
//
// The signed bytes are exactly the encoded body, never the header. If the
// provider fails, the envelope's signed fields are left untouched and the
// error wraps ErrSign.
func (o *KVObject[T]) SignAndEncode(kp *crypto.KeyPair, rand io.Reader) ([]byte, error) {
	body := o.body.Encode()

	sig, err := kp.Sign(body, rand)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSign, err)
	}
	o.sig = sig
	o.cert = kp.Certificate()

	return o.encode(body), nil
}

// Encode re-serializes an already signed envelope, for example after a
// verified decode. Encoding an unsigned envelope fails with ErrSerialize:
// the wire form always carries a filled header.
func (o *KVObject[T]) Encode() ([]byte, error) {
	if !o.Signed() {
		return nil, fmt.Errorf("%w: envelope is not signed", ErrSerialize)
	}
	return o.encode(o.body.Encode()), nil
}

func (o *KVObject[T]) encode(body []byte) []byte {
	out := make([]byte, 0, HeaderLen+len(body))
	out = append(out, o.msgType.Byte())
	out = append(out, o.cert.Bytes()...)
	out = append(out, o.sig.Bytes()...)
	out = append(out, body...)
	return out
}

// Verify re-encodes the payload and checks the embedded signature against
// the embedded certificate. An unsigned envelope fails. Any mismatch —
// tampered body, tampered signature, wrong certificate — yields the same
// ErrVerify without saying which field is at fault.
func (o *KVObject[T]) Verify() error {
	if !o.Signed() {
		return fmt.Errorf("%w: certificate or signature absent", ErrVerify)
	}
	if !o.cert.Verify(o.body.Encode(), o.sig) {
		return ErrVerify
	}
	return nil
}

// GetAttr reads one named field of the payload through the envelope. The
// envelope does not interpret key; errors come from the body.
func (o *KVObject[T]) GetAttr(key string) ([]byte, error) {
	return o.body.GetAttr(key)
}

// SetAttr patches one named field of the payload through the envelope.
// After mutation the envelope must be re-signed before serialization
// produces an authentic message.
func (o *KVObject[T]) SetAttr(key string, value []byte) error {
	return o.body.SetAttr(key, value)
}

// Decode parses an encoded envelope: tag, certificate and signature from
// their fixed byte ranges, then the remaining bytes as the body via the
// body type's own decoder.
//
// Decode verifies inline: the signature is checked over the raw body bytes
// before the body is decoded, and a buffer that fails verification never
// yields an envelope. Buffers shorter than the header, or carrying a
// header with no body, fail with ErrDecode.
func Decode[T any, PT bodyPtr[T]](data []byte) (*KVObject[PT], error) {
	if len(data) < HeaderLen {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrDecode, len(data), HeaderLen)
	}

	msgType, err := DecodeMsgType(data[msgTypeOffset])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	cert, err := crypto.NewCertificateFromBytes(data[certOffset:certEnd])
	if err != nil {
		return nil, fmt.Errorf("%w: certificate: %v", ErrDecode, err)
	}
	sig, err := crypto.NewSignatureFromBytes(data[sigOffset:sigEnd])
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrDecode, err)
	}

	if len(data) == HeaderLen {
		return nil, fmt.Errorf("%w: header with no body", ErrDecode)
	}

	// Certificate chain-of-trust validation is out of scope here; only the
	// single-certificate signature check happens before the body decode.
	if !cert.Verify(data[HeaderLen:], sig) {
		return nil, ErrVerify
	}

	var body PT = new(T)
	if err := body.Decode(data[HeaderLen:]); err != nil {
		return nil, err
	}

	return &KVObject[PT]{
		msgType: msgType,
		cert:    cert,
		sig:     sig,
		body:    body,
	}, nil
}
