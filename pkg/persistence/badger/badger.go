package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"

	"github.com/digicash-labs/kvobject-go/pkg/persistence"
)

// Key prefixes for namespacing
const (
	keyPrefixEnvelope    = "envelope:"
	keyPrefixKeyPair     = "keypair:"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"
)

// BadgerStore is a durable, disk-based IEnvelopeStore backed by Badger.
type BadgerStore struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

// NewBadgerStore opens (or creates) a Badger database at dataPath with
// SyncWrites enabled for durability, and starts a background value-log GC
// goroutine.
func NewBadgerStore(dataPath string, logger *zap.Logger) (*BadgerStore, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.SyncWrites = true // fsync on every write
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bs := &BadgerStore{
		db:     db,
		logger: logger,
	}

	if err := bs.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bs.gcCancel = cancel
	bs.gcWg.Add(1)
	go bs.runGC(ctx)

	logger.Sugar().Infow("Badger envelope store initialized", "path", absPath)

	return bs, nil
}

// initSchema initializes or validates the schema version
func (b *BadgerStore) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}

		return nil
	})
}

// runGC runs periodic value-log garbage collection in the background
func (b *BadgerStore) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && err != badgerdb.ErrNoRewrite {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// SaveEnvelope persists a signed envelope.
func (b *BadgerStore) SaveEnvelope(env *persistence.StoredEnvelope) error {
	if env == nil {
		return fmt.Errorf("cannot save nil StoredEnvelope")
	}
	if env.ID == "" {
		return fmt.Errorf("cannot save StoredEnvelope with empty ID")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("envelope store is closed")
	}

	data, err := persistence.MarshalStoredEnvelope(env)
	if err != nil {
		return fmt.Errorf("failed to marshal StoredEnvelope: %w", err)
	}

	key := keyPrefixEnvelope + env.ID
	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// LoadEnvelope retrieves an envelope by ID.
func (b *BadgerStore) LoadEnvelope(id string) (*persistence.StoredEnvelope, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("envelope store is closed")
	}

	data, err := b.get(keyPrefixEnvelope + id)
	if err != nil {
		return nil, fmt.Errorf("failed to load StoredEnvelope: %w", err)
	}
	if data == nil {
		return nil, nil // Not found
	}

	env, err := persistence.UnmarshalStoredEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal StoredEnvelope: %w", err)
	}
	return env, nil
}

// ListEnvelopes returns all envelopes sorted by creation time.
func (b *BadgerStore) ListEnvelopes() ([]*persistence.StoredEnvelope, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("envelope store is closed")
	}

	var envelopes []*persistence.StoredEnvelope

	err := b.scanPrefix(keyPrefixEnvelope, func(key string, data []byte) {
		env, err := persistence.UnmarshalStoredEnvelope(data)
		if err != nil {
			b.logger.Sugar().Warnw("Failed to unmarshal StoredEnvelope, skipping",
				"key", key, "error", err)
			return
		}
		envelopes = append(envelopes, env)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list StoredEnvelopes: %w", err)
	}

	sort.Slice(envelopes, func(i, j int) bool {
		if envelopes[i].CreatedAt != envelopes[j].CreatedAt {
			return envelopes[i].CreatedAt < envelopes[j].CreatedAt
		}
		return envelopes[i].ID < envelopes[j].ID
	})

	return envelopes, nil
}

// DeleteEnvelope removes an envelope. Idempotent.
func (b *BadgerStore) DeleteEnvelope(id string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("envelope store is closed")
	}

	key := keyPrefixEnvelope + id
	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// SaveKeyPair persists a named key pair record.
func (b *BadgerStore) SaveKeyPair(rec *persistence.KeyPairRecord) error {
	if rec == nil {
		return fmt.Errorf("cannot save nil KeyPairRecord")
	}
	if rec.Name == "" {
		return fmt.Errorf("cannot save KeyPairRecord with empty name")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("envelope store is closed")
	}

	data, err := persistence.MarshalKeyPairRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal KeyPairRecord: %w", err)
	}

	key := keyPrefixKeyPair + rec.Name
	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// LoadKeyPair retrieves a key pair record by name.
func (b *BadgerStore) LoadKeyPair(name string) (*persistence.KeyPairRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("envelope store is closed")
	}

	data, err := b.get(keyPrefixKeyPair + name)
	if err != nil {
		return nil, fmt.Errorf("failed to load KeyPairRecord: %w", err)
	}
	if data == nil {
		return nil, nil // Not found
	}

	rec, err := persistence.UnmarshalKeyPairRecord(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal KeyPairRecord: %w", err)
	}
	return rec, nil
}

// ListKeyPairs returns all key pair records sorted by name.
func (b *BadgerStore) ListKeyPairs() ([]*persistence.KeyPairRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("envelope store is closed")
	}

	var records []*persistence.KeyPairRecord

	err := b.scanPrefix(keyPrefixKeyPair, func(key string, data []byte) {
		rec, err := persistence.UnmarshalKeyPairRecord(data)
		if err != nil {
			b.logger.Sugar().Warnw("Failed to unmarshal KeyPairRecord, skipping",
				"key", key, "error", err)
			return
		}
		records = append(records, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list KeyPairRecords: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})

	return records, nil
}

// DeleteKeyPair removes a key pair record. Idempotent.
func (b *BadgerStore) DeleteKeyPair(name string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("envelope store is closed")
	}

	key := keyPrefixKeyPair + name
	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// get returns the value at key, or nil if the key does not exist.
func (b *BadgerStore) get(key string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badgerdb.ErrKeyNotFound {
			return nil // Not found is not an error
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...) // Copy value
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// scanPrefix iterates every key under prefix, passing copies of the values
// to fn.
func (b *BadgerStore) scanPrefix(prefix string, fn func(key string, data []byte)) error {
	return b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			var data []byte
			err := item.Value(func(val []byte) error {
				data = append([]byte{}, val...) // Copy value
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to read value: %w", err)
			}

			fn(string(item.Key()), data)
		}

		return nil
	})
}

// Close shuts down the store. Idempotent.
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil // Already closed
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	b.logger.Sugar().Info("Badger envelope store closed")
	return nil
}

// HealthCheck verifies the store is operational.
func (b *BadgerStore) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("envelope store is closed")
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}
