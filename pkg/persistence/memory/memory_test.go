package memory

import (
	crand "crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digicash-labs/kvobject-go/pkg/crypto"
	"github.com/digicash-labs/kvobject-go/pkg/persistence"
)

func sampleEnvelope(id string, createdAt int64) *persistence.StoredEnvelope {
	return &persistence.StoredEnvelope{
		ID:        id,
		MsgType:   0x06,
		Raw:       []byte{0x06, 0xaa, 0xbb},
		CreatedAt: createdAt,
	}
}

func sampleKeyPairRecord(t *testing.T, name string) *persistence.KeyPairRecord {
	t.Helper()
	kp, err := crypto.GenerateKeyPair(crand.Reader)
	require.NoError(t, err)
	return &persistence.KeyPairRecord{Name: name, KeyPair: kp, CreatedAt: 100}
}

func TestSaveAndLoadEnvelope(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	env := sampleEnvelope("env-1", 100)
	require.NoError(t, store.SaveEnvelope(env))

	loaded, err := store.LoadEnvelope("env-1")
	require.NoError(t, err)
	assert.Equal(t, env, loaded)
}

func TestLoadEnvelopeNotFound(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	loaded, err := store.LoadEnvelope("missing")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSaveEnvelopeValidation(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	assert.Error(t, store.SaveEnvelope(nil))
	assert.Error(t, store.SaveEnvelope(&persistence.StoredEnvelope{ID: ""}))
}

func TestListEnvelopesSorted(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	require.NoError(t, store.SaveEnvelope(sampleEnvelope("b", 200)))
	require.NoError(t, store.SaveEnvelope(sampleEnvelope("a", 100)))
	require.NoError(t, store.SaveEnvelope(sampleEnvelope("c", 100)))

	envelopes, err := store.ListEnvelopes()
	require.NoError(t, err)
	require.Len(t, envelopes, 3)
	assert.Equal(t, "a", envelopes[0].ID)
	assert.Equal(t, "c", envelopes[1].ID)
	assert.Equal(t, "b", envelopes[2].ID)
}

func TestDeleteEnvelopeIdempotent(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	require.NoError(t, store.SaveEnvelope(sampleEnvelope("env-1", 100)))
	require.NoError(t, store.DeleteEnvelope("env-1"))
	require.NoError(t, store.DeleteEnvelope("env-1"))

	loaded, err := store.LoadEnvelope("env-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestEnvelopeDeepCopy(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	env := sampleEnvelope("env-1", 100)
	require.NoError(t, store.SaveEnvelope(env))

	// Mutating the caller's copy must not reach the stored record.
	env.Raw[0] = 0xff

	loaded, err := store.LoadEnvelope("env-1")
	require.NoError(t, err)
	assert.Equal(t, byte(0x06), loaded.Raw[0])

	// Nor must mutating a loaded record.
	loaded.Raw[1] = 0xff
	again, err := store.LoadEnvelope("env-1")
	require.NoError(t, err)
	assert.Equal(t, byte(0xaa), again.Raw[1])
}

func TestSaveAndLoadKeyPair(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	rec := sampleKeyPairRecord(t, "issuer")
	require.NoError(t, store.SaveKeyPair(rec))

	loaded, err := store.LoadKeyPair("issuer")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, rec.Name, loaded.Name)
	assert.Equal(t, rec.KeyPair.Bytes(), loaded.KeyPair.Bytes())
}

func TestLoadKeyPairNotFound(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	loaded, err := store.LoadKeyPair("missing")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestListKeyPairsSorted(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	require.NoError(t, store.SaveKeyPair(sampleKeyPairRecord(t, "zeta")))
	require.NoError(t, store.SaveKeyPair(sampleKeyPairRecord(t, "alpha")))

	records, err := store.ListKeyPairs()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "alpha", records[0].Name)
	assert.Equal(t, "zeta", records[1].Name)
}

func TestDeleteKeyPairIdempotent(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	require.NoError(t, store.SaveKeyPair(sampleKeyPairRecord(t, "issuer")))
	require.NoError(t, store.DeleteKeyPair("issuer"))
	require.NoError(t, store.DeleteKeyPair("issuer"))
}

func TestOperationsAfterClose(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Close())

	assert.Error(t, store.SaveEnvelope(sampleEnvelope("env-1", 100)))
	_, err := store.LoadEnvelope("env-1")
	assert.Error(t, err)
	_, err = store.ListEnvelopes()
	assert.Error(t, err)
	assert.Error(t, store.DeleteEnvelope("env-1"))
	assert.Error(t, store.HealthCheck())
}

func TestHealthCheck(t *testing.T) {
	store := NewMemoryStore()
	assert.NoError(t, store.HealthCheck())
	require.NoError(t, store.Close())
	assert.Error(t, store.HealthCheck())
}
