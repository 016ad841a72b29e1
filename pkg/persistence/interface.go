package persistence

// IEnvelopeStore defines the interface for persisting signed envelopes and
// key pair records. All implementations must be thread-safe.
//
// Envelopes are stored as their full wire bytes — signature verification
// happens on decode, not in the store — and are indexed by caller-chosen
// IDs (the CLI uses uuids). Key pairs are indexed by name.
type IEnvelopeStore interface {
	// Envelope Management

	// SaveEnvelope persists a signed envelope by its ID, overwriting any
	// existing record with the same ID.
	SaveEnvelope(env *StoredEnvelope) error

	// LoadEnvelope retrieves an envelope by ID.
	// Returns nil if it doesn't exist, error only on storage failure.
	LoadEnvelope(id string) (*StoredEnvelope, error)

	// ListEnvelopes returns all persisted envelopes sorted by creation time
	// (ascending). Empty slice if none exist.
	ListEnvelopes() ([]*StoredEnvelope, error)

	// DeleteEnvelope removes an envelope by ID.
	// Idempotent - returns nil if it doesn't exist.
	DeleteEnvelope(id string) error

	// Key Pair Management

	// SaveKeyPair persists a named key pair record, overwriting any
	// existing record with the same name.
	SaveKeyPair(rec *KeyPairRecord) error

	// LoadKeyPair retrieves a key pair record by name.
	// Returns nil if it doesn't exist, error only on storage failure.
	LoadKeyPair(name string) (*KeyPairRecord, error)

	// ListKeyPairs returns all persisted key pair records sorted by name.
	ListKeyPairs() ([]*KeyPairRecord, error)

	// DeleteKeyPair removes a key pair record by name. Idempotent.
	DeleteKeyPair(name string) error

	// Lifecycle Management

	// Close cleanly shuts down the store. Idempotent.
	// After Close(), all other operations return errors.
	Close() error

	// HealthCheck verifies the store is operational.
	HealthCheck() error
}
