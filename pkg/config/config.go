package config

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for kvtool configuration
const (
	EnvStoreType     = "KVOBJ_STORE_TYPE"
	EnvBadgerPath    = "KVOBJ_BADGER_PATH"
	EnvRedisAddress  = "KVOBJ_REDIS_ADDRESS"
	EnvRedisPassword = "KVOBJ_REDIS_PASSWORD"
	EnvRedisDB       = "KVOBJ_REDIS_DB"
	EnvKeyName       = "KVOBJ_KEY_NAME"
	EnvVerbose       = "KVOBJ_VERBOSE"
)

// StoreType selects the envelope store backend.
type StoreType string

func (s StoreType) String() string {
	return string(s)
}

const (
	StoreTypeUnknown StoreType = "unknown"
	StoreTypeMemory  StoreType = "memory"
	StoreTypeBadger  StoreType = "badger"
	StoreTypeRedis   StoreType = "redis"
)

// ParseStoreType maps a user-supplied string to a StoreType.
func ParseStoreType(s string) (StoreType, error) {
	switch StoreType(s) {
	case StoreTypeMemory:
		return StoreTypeMemory, nil
	case StoreTypeBadger:
		return StoreTypeBadger, nil
	case StoreTypeRedis:
		return StoreTypeRedis, nil
	default:
		return StoreTypeUnknown, fmt.Errorf("unsupported store type: %s (supported: memory, badger, redis)", s)
	}
}

// ToolConfig is the complete configuration for the kvtool CLI.
type ToolConfig struct {
	// Store selection
	StoreType StoreType `json:"store_type"`

	// Badger settings (StoreTypeBadger)
	BadgerPath string `json:"badger_path,omitempty"`

	// Redis settings (StoreTypeRedis)
	RedisAddress  string `json:"redis_address,omitempty"`
	RedisPassword string `json:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty"`

	// KeyName is the named key pair used for signing operations.
	KeyName string `json:"key_name,omitempty"`

	// Operational settings
	Debug bool `json:"debug"`
}

// Validate checks the configuration for the selected backend.
func (c *ToolConfig) Validate() error {
	var allErrors field.ErrorList

	switch c.StoreType {
	case StoreTypeMemory:
	case StoreTypeBadger:
		if c.BadgerPath == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("badgerPath"), "badgerPath is required for the badger store"))
		}
	case StoreTypeRedis:
		if c.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("redisAddress"), "redisAddress is required for the redis store"))
		}
		if c.RedisDB < 0 || c.RedisDB > 15 {
			allErrors = append(allErrors, field.Invalid(field.NewPath("redisDB"), c.RedisDB, "must be between 0 and 15"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("storeType"), c.StoreType,
			[]string{string(StoreTypeMemory), string(StoreTypeBadger), string(StoreTypeRedis)}))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}
