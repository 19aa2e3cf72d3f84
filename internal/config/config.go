package config

import "time"

// Coordination backends.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server       ServerConfig       `mapstructure:"server" validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database" validate:"required"`
	Auth         AuthConfig         `mapstructure:"auth" validate:"required"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Coordination CoordinationConfig `mapstructure:"coordination" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains JWT validation settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// RedisConfig locates the shared cache and lock store.
// It is required only when the redis coordination backend is selected.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// CoordinationConfig tunes the cache and lock ports used by the task service.
type CoordinationConfig struct {
	// Backend selects redis (shared across instances) or memory (single node).
	Backend string `mapstructure:"backend" validate:"required,oneof=redis memory"`
	// CacheTTL bounds how long a cached task or list may be served.
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
	// LockTTL bounds how long a crashed writer can block a resource.
	LockTTL time.Duration `mapstructure:"lock_ttl" validate:"gt=0"`
	// KeyNamespace prefixes every cache and lock key when set.
	KeyNamespace string `mapstructure:"key_namespace" validate:"omitempty,max=64,excludes=:"`
	// MemoryCapacity and MemoryShards size the in-process cache.
	MemoryCapacity int `mapstructure:"memory_capacity" validate:"gt=0"`
	MemoryShards   int `mapstructure:"memory_shards" validate:"gt=0"`
}
