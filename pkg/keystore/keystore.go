package keystore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/digicash-labs/kvobject-go/pkg/crypto"
	"github.com/digicash-labs/kvobject-go/pkg/persistence"
)

// KeyStore manages named signing key pairs and provides thread-safe access
type KeyStore struct {
	mu sync.RWMutex

	keyPairs map[string]*crypto.KeyPair
	active   string
}

// NewKeyStore creates a new key store
func NewKeyStore() *KeyStore {
	return &KeyStore{
		keyPairs: make(map[string]*crypto.KeyPair),
	}
}

// Add registers a key pair under name. The first key added becomes active.
func (ks *KeyStore) Add(name string, kp *crypto.KeyPair) error {
	if name == "" {
		return fmt.Errorf("key name cannot be empty")
	}
	if kp == nil {
		return fmt.Errorf("cannot add nil key pair")
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	ks.keyPairs[name] = kp
	if ks.active == "" {
		ks.active = name
	}
	return nil
}

// SetActive marks the named key pair as the default signing identity.
func (ks *KeyStore) SetActive(name string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if _, ok := ks.keyPairs[name]; !ok {
		return fmt.Errorf("unknown key pair: %s", name)
	}
	ks.active = name
	return nil
}

// Active returns the default signing key pair.
func (ks *KeyStore) Active() (*crypto.KeyPair, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	if ks.active == "" {
		return nil, fmt.Errorf("no active key pair")
	}
	return ks.keyPairs[ks.active], nil
}

// Get returns the named key pair.
func (ks *KeyStore) Get(name string) (*crypto.KeyPair, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	kp, ok := ks.keyPairs[name]
	if !ok {
		return nil, fmt.Errorf("unknown key pair: %s", name)
	}
	return kp, nil
}

// Names returns all registered key names, sorted.
func (ks *KeyStore) Names() []string {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	names := make([]string, 0, len(ks.keyPairs))
	for name := range ks.keyPairs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFromStore registers every key pair record persisted in store.
// Already registered names are overwritten; the active key is untouched
// unless the store supplies the first keys.
func (ks *KeyStore) LoadFromStore(store persistence.IEnvelopeStore) error {
	records, err := store.ListKeyPairs()
	if err != nil {
		return fmt.Errorf("failed to list key pair records: %w", err)
	}

	for _, rec := range records {
		if rec.KeyPair == nil {
			continue
		}
		if err := ks.Add(rec.Name, rec.KeyPair); err != nil {
			return fmt.Errorf("failed to register key pair %s: %w", rec.Name, err)
		}
	}
	return nil
}
