package payloads

import (
	"encoding/binary"
	"fmt"

	"github.com/digicash-labs/kvobject-go/pkg/crypto"
	"github.com/digicash-labs/kvobject-go/pkg/kvobject"
)

// Attribute keys of a QuotaControlField.
const (
	AttrQuotaID        = "id"
	AttrQuotaTimestamp = "timestamp"
	AttrQuotaValue     = "value"
	AttrQuotaIssuer    = "issuer"
)

// Field widths within the encoded record.
const (
	quotaIDLen        = 32
	quotaTimestampLen = 8
	quotaValueLen     = 8
	quotaIssuerLen    = crypto.CertificateLen

	// QuotaControlFieldLen is the exact encoded size of the record.
	QuotaControlFieldLen = quotaIDLen + quotaTimestampLen + quotaValueLen + quotaIssuerLen
)

// QuotaControlField is the quota record circulated during issuance:
// a unique id, the issuance unix timestamp, the quota value in minor
// units, and the issuing authority's certificate bytes. All fields are
// fixed-width; integers are little-endian.
type QuotaControlField struct {
	ID        [quotaIDLen]byte
	Timestamp uint64
	Value     uint64
	Issuer    [quotaIssuerLen]byte
}

// Encode returns id ‖ timestamp ‖ value ‖ issuer.
func (q *QuotaControlField) Encode() []byte {
	out := make([]byte, 0, QuotaControlFieldLen)
	out = append(out, q.ID[:]...)
	out = binary.LittleEndian.AppendUint64(out, q.Timestamp)
	out = binary.LittleEndian.AppendUint64(out, q.Value)
	out = append(out, q.Issuer[:]...)
	return out
}

// Decode parses the fixed layout, requiring the exact record length.
func (q *QuotaControlField) Decode(data []byte) error {
	if len(data) != QuotaControlFieldLen {
		return fmt.Errorf("%w: quota control field is %d bytes, want %d",
			kvobject.ErrDecode, len(data), QuotaControlFieldLen)
	}
	off := copy(q.ID[:], data)
	q.Timestamp = binary.LittleEndian.Uint64(data[off:])
	off += quotaTimestampLen
	q.Value = binary.LittleEndian.Uint64(data[off:])
	off += quotaValueLen
	copy(q.Issuer[:], data[off:])
	return nil
}

func (q *QuotaControlField) GetAttr(key string) ([]byte, error) {
	switch key {
	case AttrQuotaID:
		return append([]byte(nil), q.ID[:]...), nil
	case AttrQuotaTimestamp:
		return binary.LittleEndian.AppendUint64(nil, q.Timestamp), nil
	case AttrQuotaValue:
		return binary.LittleEndian.AppendUint64(nil, q.Value), nil
	case AttrQuotaIssuer:
		return append([]byte(nil), q.Issuer[:]...), nil
	default:
		return nil, fmt.Errorf("%w: %q", kvobject.ErrKeyIndex, key)
	}
}

func (q *QuotaControlField) SetAttr(key string, value []byte) error {
	switch key {
	case AttrQuotaID:
		if len(value) != quotaIDLen {
			return fmt.Errorf("%w: id needs %d bytes, got %d", kvobject.ErrValueLength, quotaIDLen, len(value))
		}
		copy(q.ID[:], value)
	case AttrQuotaTimestamp:
		if len(value) != quotaTimestampLen {
			return fmt.Errorf("%w: timestamp needs %d bytes, got %d", kvobject.ErrValueLength, quotaTimestampLen, len(value))
		}
		q.Timestamp = binary.LittleEndian.Uint64(value)
	case AttrQuotaValue:
		if len(value) != quotaValueLen {
			return fmt.Errorf("%w: value needs %d bytes, got %d", kvobject.ErrValueLength, quotaValueLen, len(value))
		}
		q.Value = binary.LittleEndian.Uint64(value)
	case AttrQuotaIssuer:
		if len(value) != quotaIssuerLen {
			return fmt.Errorf("%w: issuer needs %d bytes, got %d", kvobject.ErrValueLength, quotaIssuerLen, len(value))
		}
		copy(q.Issuer[:], value)
	default:
		return fmt.Errorf("%w: %q", kvobject.ErrKeyIndex, key)
	}
	return nil
}
