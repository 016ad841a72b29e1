package persistence

import (
	"encoding/json"
	"fmt"
)

// MarshalStoredEnvelope serializes a StoredEnvelope to JSON bytes.
func MarshalStoredEnvelope(env *StoredEnvelope) ([]byte, error) {
	if env == nil {
		return nil, fmt.Errorf("cannot marshal nil StoredEnvelope")
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal StoredEnvelope to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalStoredEnvelope deserializes a StoredEnvelope from JSON bytes.
func UnmarshalStoredEnvelope(data []byte) (*StoredEnvelope, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var env StoredEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to StoredEnvelope: %w", err)
	}

	return &env, nil
}

// MarshalKeyPairRecord serializes a KeyPairRecord to JSON bytes. The key
// material becomes an upper-case hex string via its TextMarshaler.
func MarshalKeyPairRecord(rec *KeyPairRecord) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("cannot marshal nil KeyPairRecord")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal KeyPairRecord to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalKeyPairRecord deserializes a KeyPairRecord from JSON bytes.
func UnmarshalKeyPairRecord(data []byte) (*KeyPairRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var rec KeyPairRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to KeyPairRecord: %w", err)
	}

	return &rec, nil
}
