package keystore

import (
	crand "crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digicash-labs/kvobject-go/pkg/crypto"
	"github.com/digicash-labs/kvobject-go/pkg/persistence"
	"github.com/digicash-labs/kvobject-go/pkg/persistence/memory"
)

func newKeyPair(t *testing.T) *crypto.KeyPair {
	t.Helper()
	kp, err := crypto.GenerateKeyPair(crand.Reader)
	require.NoError(t, err)
	return kp
}

func TestAddAndGet(t *testing.T) {
	ks := NewKeyStore()
	kp := newKeyPair(t)

	require.NoError(t, ks.Add("issuer", kp))

	got, err := ks.Get("issuer")
	require.NoError(t, err)
	assert.Equal(t, kp.Bytes(), got.Bytes())

	_, err = ks.Get("missing")
	assert.Error(t, err)
}

func TestAddValidation(t *testing.T) {
	ks := NewKeyStore()

	assert.Error(t, ks.Add("", newKeyPair(t)))
	assert.Error(t, ks.Add("issuer", nil))
}

func TestFirstKeyBecomesActive(t *testing.T) {
	ks := NewKeyStore()

	_, err := ks.Active()
	assert.Error(t, err)

	first := newKeyPair(t)
	require.NoError(t, ks.Add("first", first))
	require.NoError(t, ks.Add("second", newKeyPair(t)))

	active, err := ks.Active()
	require.NoError(t, err)
	assert.Equal(t, first.Bytes(), active.Bytes())
}

func TestSetActive(t *testing.T) {
	ks := NewKeyStore()
	require.NoError(t, ks.Add("first", newKeyPair(t)))
	second := newKeyPair(t)
	require.NoError(t, ks.Add("second", second))

	require.NoError(t, ks.SetActive("second"))
	active, err := ks.Active()
	require.NoError(t, err)
	assert.Equal(t, second.Bytes(), active.Bytes())

	assert.Error(t, ks.SetActive("missing"))
}

func TestNamesSorted(t *testing.T) {
	ks := NewKeyStore()
	require.NoError(t, ks.Add("zeta", newKeyPair(t)))
	require.NoError(t, ks.Add("alpha", newKeyPair(t)))
	require.NoError(t, ks.Add("mid", newKeyPair(t)))

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, ks.Names())
}

func TestLoadFromStore(t *testing.T) {
	store := memory.NewMemoryStore()
	defer func() { _ = store.Close() }()

	issuer := newKeyPair(t)
	require.NoError(t, store.SaveKeyPair(&persistence.KeyPairRecord{
		Name: "issuer", KeyPair: issuer, CreatedAt: 100,
	}))
	require.NoError(t, store.SaveKeyPair(&persistence.KeyPairRecord{
		Name: "backup", KeyPair: newKeyPair(t), CreatedAt: 200,
	}))

	ks := NewKeyStore()
	require.NoError(t, ks.LoadFromStore(store))

	assert.Equal(t, []string{"backup", "issuer"}, ks.Names())

	got, err := ks.Get("issuer")
	require.NoError(t, err)
	assert.Equal(t, issuer.Bytes(), got.Bytes())
}
