package persistence

import (
	crand "crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digicash-labs/kvobject-go/pkg/crypto"
)

func TestStoredEnvelopeRoundTrip(t *testing.T) {
	env := &StoredEnvelope{
		ID:        "c6a1f0d2-5a7e-4c2b-9b1d-000000000001",
		MsgType:   0x06,
		Raw:       []byte{0x06, 0x01, 0x02, 0x03},
		CreatedAt: 1700000000,
	}

	data, err := MarshalStoredEnvelope(env)
	require.NoError(t, err)

	decoded, err := UnmarshalStoredEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, env, decoded)
}

func TestMarshalStoredEnvelopeNil(t *testing.T) {
	_, err := MarshalStoredEnvelope(nil)
	assert.Error(t, err)
}

func TestUnmarshalStoredEnvelopeInvalid(t *testing.T) {
	_, err := UnmarshalStoredEnvelope(nil)
	assert.Error(t, err)

	_, err = UnmarshalStoredEnvelope([]byte("{not json"))
	assert.Error(t, err)
}

func TestKeyPairRecordRoundTrip(t *testing.T) {
	kp, err := crypto.GenerateKeyPair(crand.Reader)
	require.NoError(t, err)

	rec := &KeyPairRecord{
		Name:      "issuer",
		KeyPair:   kp,
		CreatedAt: 1700000000,
	}

	data, err := MarshalKeyPairRecord(rec)
	require.NoError(t, err)

	// Key material serializes as upper-case hex, not raw JSON bytes.
	hexForm, err := kp.MarshalText()
	require.NoError(t, err)
	assert.Contains(t, string(data), string(hexForm))
	assert.Equal(t, strings.ToUpper(string(hexForm)), string(hexForm))

	decoded, err := UnmarshalKeyPairRecord(data)
	require.NoError(t, err)
	assert.Equal(t, rec.Name, decoded.Name)
	assert.Equal(t, rec.CreatedAt, decoded.CreatedAt)
	require.NotNil(t, decoded.KeyPair)
	assert.Equal(t, kp.Bytes(), decoded.KeyPair.Bytes())
}

func TestMarshalKeyPairRecordNil(t *testing.T) {
	_, err := MarshalKeyPairRecord(nil)
	assert.Error(t, err)
}

func TestUnmarshalKeyPairRecordInvalid(t *testing.T) {
	_, err := UnmarshalKeyPairRecord(nil)
	assert.Error(t, err)

	_, err = UnmarshalKeyPairRecord([]byte(`{"name":"a","keyPair":"ZZ"}`))
	assert.Error(t, err)
}
