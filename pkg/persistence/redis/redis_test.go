package redis

import (
	crand "crypto/rand"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/digicash-labs/kvobject-go/pkg/crypto"
	"github.com/digicash-labs/kvobject-go/pkg/persistence"
)

// requireRedis skips unless REDIS_TEST_ADDRESS points at a reachable
// server, e.g. REDIS_TEST_ADDRESS=localhost:6379.
func requireRedis(t *testing.T) *RedisStore {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDRESS not set, skipping redis store tests")
	}

	// Unique prefix per test run so parallel CI jobs don't collide.
	store, err := NewRedisStore(&RedisConfig{
		Address:   addr,
		KeyPrefix: fmt.Sprintf("test:%d:", time.Now().UnixNano()),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewRedisStoreValidation(t *testing.T) {
	_, err := NewRedisStore(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewRedisStore(&RedisConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestEnvelopeLifecycle(t *testing.T) {
	store := requireRedis(t)

	env := &persistence.StoredEnvelope{
		ID:        "env-1",
		MsgType:   0x06,
		Raw:       []byte{0x06, 0xaa, 0xbb},
		CreatedAt: 100,
	}
	require.NoError(t, store.SaveEnvelope(env))

	loaded, err := store.LoadEnvelope("env-1")
	require.NoError(t, err)
	assert.Equal(t, env, loaded)

	require.NoError(t, store.SaveEnvelope(&persistence.StoredEnvelope{
		ID: "env-0", MsgType: 0x01, Raw: []byte{0x01}, CreatedAt: 50,
	}))

	envelopes, err := store.ListEnvelopes()
	require.NoError(t, err)
	require.Len(t, envelopes, 2)
	assert.Equal(t, "env-0", envelopes[0].ID)
	assert.Equal(t, "env-1", envelopes[1].ID)

	require.NoError(t, store.DeleteEnvelope("env-1"))
	require.NoError(t, store.DeleteEnvelope("env-1"))

	loaded, err = store.LoadEnvelope("env-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestKeyPairLifecycle(t *testing.T) {
	store := requireRedis(t)

	kp, err := crypto.GenerateKeyPair(crand.Reader)
	require.NoError(t, err)
	rec := &persistence.KeyPairRecord{Name: "issuer", KeyPair: kp, CreatedAt: 100}

	require.NoError(t, store.SaveKeyPair(rec))

	loaded, err := store.LoadKeyPair("issuer")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, kp.Bytes(), loaded.KeyPair.Bytes())

	records, err := store.ListKeyPairs()
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.NoError(t, store.DeleteKeyPair("issuer"))
	loaded, err = store.LoadKeyPair("issuer")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSaveEnvelopeValidation(t *testing.T) {
	store := requireRedis(t)

	assert.Error(t, store.SaveEnvelope(nil))
	assert.Error(t, store.SaveEnvelope(&persistence.StoredEnvelope{ID: ""}))
}

func TestOperationsAfterClose(t *testing.T) {
	store := requireRedis(t)
	require.NoError(t, store.Close())

	assert.Error(t, store.SaveEnvelope(&persistence.StoredEnvelope{ID: "x", Raw: []byte{1}}))
	_, err := store.LoadEnvelope("x")
	assert.Error(t, err)
	assert.Error(t, store.HealthCheck())

	// Double close is a no-op.
	assert.NoError(t, store.Close())
}

func TestHealthCheck(t *testing.T) {
	store := requireRedis(t)
	assert.NoError(t, store.HealthCheck())
}
