package cache

import "time"

const (
	// BackendMemory keeps the cache in-process. Degraded mode and tests.
	BackendMemory = "memory"
	// BackendRedis stores the cache in a shared Redis instance.
	BackendRedis = "redis"
)

// Config holds configuration for the cache store.
type Config struct {
	// Backend selects the store implementation (memory, redis).
	Backend string `mapstructure:"backend" default:"memory"`
	// RedisAddr is the host:port of the Redis instance.
	RedisAddr string `mapstructure:"redis_addr" default:"localhost:6379"`
	// RedisPassword is the Redis AUTH password, if any.
	RedisPassword string `mapstructure:"redis_password" default:""`
	// RedisDB is the Redis logical database number.
	RedisDB int `mapstructure:"redis_db" default:"0"`
	// KeyPrefix namespaces every key so the store can be shared.
	KeyPrefix string `mapstructure:"key_prefix" default:"catalog"`
	// RetentionHours is how long entries are physically retained.
	// This is deliberately much longer than any staleness threshold:
	// stale entries must survive to serve as fallbacks during
	// upstream outages.
	RetentionHours int `mapstructure:"retention_hours" default:"720"`
}

// Retention returns the physical retention period for entries.
func (c Config) Retention() time.Duration {
	hours := c.RetentionHours
	if hours <= 0 {
		hours = 720
	}
	return time.Duration(hours) * time.Hour
}

// IsValidBackend checks if the configured backend is known.
func (c Config) IsValidBackend() bool {
	switch c.Backend {
	case BackendMemory, BackendRedis:
		return true
	default:
		return false
	}
}
