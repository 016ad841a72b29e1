package payloads

import (
	crand "crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digicash-labs/kvobject-go/pkg/crypto"
	"github.com/digicash-labs/kvobject-go/pkg/kvobject"
)

func TestRawEncodeDecode(t *testing.T) {
	r := &Raw{Data: []byte{0xde, 0xad, 0xbe, 0xef}}
	encoded := r.Encode()

	var decoded Raw
	require.NoError(t, decoded.Decode(encoded))
	assert.Equal(t, r.Data, decoded.Data)
}

func TestRawDecodeEmpty(t *testing.T) {
	var r Raw
	err := r.Decode(nil)
	assert.ErrorIs(t, err, kvobject.ErrDecode)
}

func TestRawDecodeCopies(t *testing.T) {
	src := []byte{1, 2, 3}
	var r Raw
	require.NoError(t, r.Decode(src))

	src[0] = 99
	assert.Equal(t, byte(1), r.Data[0])
}

func TestRawAttr(t *testing.T) {
	r := &Raw{Data: []byte{1, 2, 3}}

	got, err := r.GetAttr(AttrRaw)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	require.NoError(t, r.SetAttr(AttrRaw, []byte{4, 5}))
	assert.Equal(t, []byte{4, 5}, r.Data)
}

func TestRawAttrErrors(t *testing.T) {
	r := &Raw{Data: []byte{1}}

	_, err := r.GetAttr("body")
	assert.ErrorIs(t, err, kvobject.ErrKeyIndex)

	err = r.SetAttr("body", []byte{1})
	assert.ErrorIs(t, err, kvobject.ErrKeyIndex)

	err = r.SetAttr(AttrRaw, nil)
	assert.ErrorIs(t, err, kvobject.ErrValueLength)
}

func sampleQuota(t *testing.T) *QuotaControlField {
	t.Helper()
	q := &QuotaControlField{
		Timestamp: 1700000000,
		Value:     250_00,
	}
	copy(q.ID[:], "quota-control-field-identifier!!")
	kp, err := crypto.GenerateKeyPair(crand.Reader)
	require.NoError(t, err)
	copy(q.Issuer[:], kp.Certificate().Bytes())
	return q
}

func TestQuotaControlFieldEncodeDecode(t *testing.T) {
	q := sampleQuota(t)
	encoded := q.Encode()
	require.Len(t, encoded, QuotaControlFieldLen)

	var decoded QuotaControlField
	require.NoError(t, decoded.Decode(encoded))
	assert.Equal(t, *q, decoded)
}

func TestQuotaControlFieldDecodeWrongLength(t *testing.T) {
	var q QuotaControlField

	err := q.Decode(make([]byte, QuotaControlFieldLen-1))
	assert.ErrorIs(t, err, kvobject.ErrDecode)

	err = q.Decode(make([]byte, QuotaControlFieldLen+1))
	assert.ErrorIs(t, err, kvobject.ErrDecode)
}

func TestQuotaControlFieldAttrRoundTrip(t *testing.T) {
	q := sampleQuota(t)

	id, err := q.GetAttr(AttrQuotaID)
	require.NoError(t, err)
	assert.Equal(t, q.ID[:], id)

	value, err := q.GetAttr(AttrQuotaValue)
	require.NoError(t, err)
	assert.Equal(t, q.Value, binary.LittleEndian.Uint64(value))

	require.NoError(t, q.SetAttr(AttrQuotaValue, binary.LittleEndian.AppendUint64(nil, 999)))
	assert.Equal(t, uint64(999), q.Value)

	require.NoError(t, q.SetAttr(AttrQuotaTimestamp, binary.LittleEndian.AppendUint64(nil, 42)))
	assert.Equal(t, uint64(42), q.Timestamp)
}

func TestQuotaControlFieldAttrWidths(t *testing.T) {
	q := sampleQuota(t)

	tests := []struct {
		key   string
		width int
	}{
		{AttrQuotaID, 32},
		{AttrQuotaTimestamp, 8},
		{AttrQuotaValue, 8},
		{AttrQuotaIssuer, 33},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := q.SetAttr(tt.key, make([]byte, tt.width-1))
			assert.ErrorIs(t, err, kvobject.ErrValueLength)

			err = q.SetAttr(tt.key, make([]byte, tt.width))
			assert.NoError(t, err)
		})
	}
}

func TestQuotaControlFieldAttrUnknownKey(t *testing.T) {
	q := sampleQuota(t)

	_, err := q.GetAttr("amount")
	assert.ErrorIs(t, err, kvobject.ErrKeyIndex)

	err = q.SetAttr("amount", make([]byte, 8))
	assert.ErrorIs(t, err, kvobject.ErrKeyIndex)
}

func TestQuotaControlFieldThroughEnvelope(t *testing.T) {
	kp, err := crypto.GenerateKeyPair(crand.Reader)
	require.NoError(t, err)

	q := sampleQuota(t)
	obj := kvobject.New(kvobject.MsgTypeQuotaControlField, q)

	raw, err := obj.SignAndEncode(kp, crand.Reader)
	require.NoError(t, err)
	require.Len(t, raw, kvobject.HeaderLen+QuotaControlFieldLen)

	decoded, err := kvobject.Decode[QuotaControlField](raw)
	require.NoError(t, err)
	assert.Equal(t, *q, *decoded.Body())
	assert.NoError(t, decoded.Verify())
}
