package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/digicash-labs/kvobject-go/pkg/persistence"
)

// MemoryStore is an in-memory implementation of IEnvelopeStore, intended
// for tests and throwaway tooling runs.
//
// All data is lost when the process exits. Thread-safe via sync.RWMutex;
// records are deep-copied on the way in and out to prevent external
// mutation.
type MemoryStore struct {
	mu sync.RWMutex

	envelopes map[string]*persistence.StoredEnvelope
	keyPairs  map[string]*persistence.KeyPairRecord

	closed bool
}

// NewMemoryStore creates a new in-memory envelope store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		envelopes: make(map[string]*persistence.StoredEnvelope),
		keyPairs:  make(map[string]*persistence.KeyPairRecord),
	}
}

// SaveEnvelope persists a signed envelope.
func (m *MemoryStore) SaveEnvelope(env *persistence.StoredEnvelope) error {
	if env == nil {
		return fmt.Errorf("cannot save nil StoredEnvelope")
	}
	if env.ID == "" {
		return fmt.Errorf("cannot save StoredEnvelope with empty ID")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("envelope store is closed")
	}

	m.envelopes[env.ID] = deepCopyStoredEnvelope(env)
	return nil
}

// LoadEnvelope retrieves an envelope by ID.
func (m *MemoryStore) LoadEnvelope(id string) (*persistence.StoredEnvelope, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("envelope store is closed")
	}

	env, exists := m.envelopes[id]
	if !exists {
		return nil, nil // Not found is not an error
	}
	return deepCopyStoredEnvelope(env), nil
}

// ListEnvelopes returns all envelopes sorted by creation time.
func (m *MemoryStore) ListEnvelopes() ([]*persistence.StoredEnvelope, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("envelope store is closed")
	}

	result := make([]*persistence.StoredEnvelope, 0, len(m.envelopes))
	for _, env := range m.envelopes {
		result = append(result, deepCopyStoredEnvelope(env))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// DeleteEnvelope removes an envelope. Idempotent.
func (m *MemoryStore) DeleteEnvelope(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("envelope store is closed")
	}

	delete(m.envelopes, id)
	return nil
}

// SaveKeyPair persists a named key pair record.
func (m *MemoryStore) SaveKeyPair(rec *persistence.KeyPairRecord) error {
	if rec == nil {
		return fmt.Errorf("cannot save nil KeyPairRecord")
	}
	if rec.Name == "" {
		return fmt.Errorf("cannot save KeyPairRecord with empty name")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("envelope store is closed")
	}

	m.keyPairs[rec.Name] = deepCopyKeyPairRecord(rec)
	return nil
}

// LoadKeyPair retrieves a key pair record by name.
func (m *MemoryStore) LoadKeyPair(name string) (*persistence.KeyPairRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("envelope store is closed")
	}

	rec, exists := m.keyPairs[name]
	if !exists {
		return nil, nil // Not found is not an error
	}
	return deepCopyKeyPairRecord(rec), nil
}

// ListKeyPairs returns all key pair records sorted by name.
func (m *MemoryStore) ListKeyPairs() ([]*persistence.KeyPairRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("envelope store is closed")
	}

	result := make([]*persistence.KeyPairRecord, 0, len(m.keyPairs))
	for _, rec := range m.keyPairs {
		result = append(result, deepCopyKeyPairRecord(rec))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// DeleteKeyPair removes a key pair record. Idempotent.
func (m *MemoryStore) DeleteKeyPair(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("envelope store is closed")
	}

	delete(m.keyPairs, name)
	return nil
}

// Close shuts down the store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the store is operational.
func (m *MemoryStore) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("envelope store is closed")
	}
	return nil
}

// Deep copy helpers

func deepCopyStoredEnvelope(env *persistence.StoredEnvelope) *persistence.StoredEnvelope {
	if env == nil {
		return nil
	}
	raw := make([]byte, len(env.Raw))
	copy(raw, env.Raw)
	return &persistence.StoredEnvelope{
		ID:        env.ID,
		MsgType:   env.MsgType,
		Raw:       raw,
		CreatedAt: env.CreatedAt,
	}
}

func deepCopyKeyPairRecord(rec *persistence.KeyPairRecord) *persistence.KeyPairRecord {
	if rec == nil {
		return nil
	}
	// KeyPair is immutable after construction, sharing the pointer is safe.
	return &persistence.KeyPairRecord{
		Name:      rec.Name,
		KeyPair:   rec.KeyPair,
		CreatedAt: rec.CreatedAt,
	}
}
