// Package payloads holds Body implementations wrapped by envelopes:
// schemaless raw bytes and the fixed-layout protocol records.
package payloads

import (
	"fmt"

	"github.com/digicash-labs/kvobject-go/pkg/kvobject"
)

// AttrRaw is the single attribute key a Raw payload exposes.
const AttrRaw = "raw"

// Raw is an opaque payload: the body bytes are carried as-is, with the
// whole content addressable under the "raw" attribute key. Used when no
// schema is known for the enclosed message kind.
type Raw struct {
	Data []byte
}

// Encode returns the payload bytes unchanged.
func (r *Raw) Encode() []byte {
	return r.Data
}

// Decode stores a copy of data. Empty input is rejected since an envelope
// body must be non-empty.
func (r *Raw) Decode(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty raw payload", kvobject.ErrDecode)
	}
	r.Data = append([]byte(nil), data...)
	return nil
}

func (r *Raw) GetAttr(key string) ([]byte, error) {
	if key != AttrRaw {
		return nil, fmt.Errorf("%w: %q", kvobject.ErrKeyIndex, key)
	}
	return append([]byte(nil), r.Data...), nil
}

func (r *Raw) SetAttr(key string, value []byte) error {
	if key != AttrRaw {
		return fmt.Errorf("%w: %q", kvobject.ErrKeyIndex, key)
	}
	if len(value) == 0 {
		return fmt.Errorf("%w: raw payload cannot be empty", kvobject.ErrValueLength)
	}
	r.Data = append([]byte(nil), value...)
	return nil
}
