package redis

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/digicash-labs/kvobject-go/pkg/persistence"
)

// Key prefixes for namespacing in Redis
const (
	keyPrefixEnvelope    = "kvobj:envelope:"
	keyPrefixKeyPair     = "kvobj:keypair:"
	keySchemaVersion     = "kvobj:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Index sets for listing operations (Redis doesn't support prefix
	// iteration natively)
	keySetEnvelopes = "kvobj:envelopes:index"
	keySetKeyPairs  = "kvobj:keypairs:index"
)

// RedisStore is an IEnvelopeStore backed by Redis, suitable for sharing
// one envelope store between several tools or hosts.
type RedisStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string // Custom prefix for all keys
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys (for multi-tenant
	// setups). If set, it is prepended to every key, e.g. "myapp:" yields
	// "myapp:kvobj:envelope:<id>".
	KeyPrefix string
}

// NewRedisStore connects to Redis and prepares the schema.
func NewRedisStore(cfg *RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rs := &RedisStore{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rs.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis envelope store initialized", "address", cfg.Address, "db", cfg.DB)

	return rs, nil
}

// prefixKey adds the custom key prefix (if configured) to a key
func (r *RedisStore) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

// initSchema initializes or validates the schema version
func (r *RedisStore) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}

	return nil
}

// SaveEnvelope persists a signed envelope.
func (r *RedisStore) SaveEnvelope(env *persistence.StoredEnvelope) error {
	if env == nil {
		return fmt.Errorf("cannot save nil StoredEnvelope")
	}
	if env.ID == "" {
		return fmt.Errorf("cannot save StoredEnvelope with empty ID")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("envelope store is closed")
	}

	ctx := context.Background()

	data, err := persistence.MarshalStoredEnvelope(env)
	if err != nil {
		return fmt.Errorf("failed to marshal StoredEnvelope: %w", err)
	}

	key := r.prefixKey(keyPrefixEnvelope + env.ID)
	indexKey := r.prefixKey(keySetEnvelopes)
	pipe := r.client.Pipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, indexKey, env.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save StoredEnvelope: %w", err)
	}

	return nil
}

// LoadEnvelope retrieves an envelope by ID.
func (r *RedisStore) LoadEnvelope(id string) (*persistence.StoredEnvelope, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("envelope store is closed")
	}

	ctx := context.Background()

	data, err := r.client.Get(ctx, r.prefixKey(keyPrefixEnvelope+id)).Bytes()
	if err == redis.Nil {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load StoredEnvelope: %w", err)
	}

	env, err := persistence.UnmarshalStoredEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal StoredEnvelope: %w", err)
	}
	return env, nil
}

// ListEnvelopes returns all envelopes sorted by creation time.
func (r *RedisStore) ListEnvelopes() ([]*persistence.StoredEnvelope, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("envelope store is closed")
	}

	ctx := context.Background()

	ids, err := r.client.SMembers(ctx, r.prefixKey(keySetEnvelopes)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list envelope index: %w", err)
	}

	envelopes := make([]*persistence.StoredEnvelope, 0, len(ids))
	for _, id := range ids {
		data, err := r.client.Get(ctx, r.prefixKey(keyPrefixEnvelope+id)).Bytes()
		if err == redis.Nil {
			continue // Index entry without a record, skip
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load StoredEnvelope %s: %w", id, err)
		}

		env, err := persistence.UnmarshalStoredEnvelope(data)
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal StoredEnvelope, skipping",
				"id", id, "error", err)
			continue
		}
		envelopes = append(envelopes, env)
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
func (r *RedisStore) DeleteEnvelope(id string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("envelope store is closed")
	}

	ctx := context.Background()

	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.prefixKey(keyPrefixEnvelope+id))
	pipe.SRem(ctx, r.prefixKey(keySetEnvelopes), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete StoredEnvelope: %w", err)
	}

	return nil
}

// SaveKeyPair persists a named key pair record.
func (r *RedisStore) SaveKeyPair(rec *persistence.KeyPairRecord) error {
	if rec == nil {
		return fmt.Errorf("cannot save nil KeyPairRecord")
	}
	if rec.Name == "" {
		return fmt.Errorf("cannot save KeyPairRecord with empty name")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("envelope store is closed")
	}

	ctx := context.Background()

	data, err := persistence.MarshalKeyPairRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal KeyPairRecord: %w", err)
	}

	key := r.prefixKey(keyPrefixKeyPair + rec.Name)
	indexKey := r.prefixKey(keySetKeyPairs)
	pipe := r.client.Pipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, indexKey, rec.Name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save KeyPairRecord: %w", err)
	}

	return nil
}

// LoadKeyPair retrieves a key pair record by name.
func (r *RedisStore) LoadKeyPair(name string) (*persistence.KeyPairRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("envelope store is closed")
	}

	ctx := context.Background()

	data, err := r.client.Get(ctx, r.prefixKey(keyPrefixKeyPair+name)).Bytes()
	if err == redis.Nil {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load KeyPairRecord: %w", err)
	}

	rec, err := persistence.UnmarshalKeyPairRecord(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal KeyPairRecord: %w", err)
	}
	return rec, nil
}

// ListKeyPairs returns all key pair records sorted by name.
func (r *RedisStore) ListKeyPairs() ([]*persistence.KeyPairRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("envelope store is closed")
	}

	ctx := context.Background()

	names, err := r.client.SMembers(ctx, r.prefixKey(keySetKeyPairs)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list key pair index: %w", err)
	}

	records := make([]*persistence.KeyPairRecord, 0, len(names))
	for _, name := range names {
		data, err := r.client.Get(ctx, r.prefixKey(keyPrefixKeyPair+name)).Bytes()
		if err == redis.Nil {
			continue // Index entry without a record, skip
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load KeyPairRecord %s: %w", name, err)
		}

		rec, err := persistence.UnmarshalKeyPairRecord(data)
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal KeyPairRecord, skipping",
				"name", name, "error", err)
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})

	return records, nil
}

// DeleteKeyPair removes a key pair record. Idempotent.
func (r *RedisStore) DeleteKeyPair(name string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("envelope store is closed")
	}

	ctx := context.Background()

	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.prefixKey(keyPrefixKeyPair+name))
	pipe.SRem(ctx, r.prefixKey(keySetKeyPairs), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete KeyPairRecord: %w", err)
	}

	return nil
}

// Close shuts down the store. Idempotent.
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil // Already closed
	}
	r.closed = true

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis envelope store closed")
	return nil
}

// HealthCheck verifies the store is operational.
func (r *RedisStore) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("envelope store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}
