package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the service reads.
const EnvPrefix = "TASKLIST"

// DefaultEnvFile is the dotenv file Load reads when present.
const DefaultEnvFile = ".env"

// configKeys lists every key bound to an environment variable.
var configKeys = []string{
	"server.port",
	"server.log_level",
	"server.shutdown_timeout",
	"database.url",
	"database.max_open_conns",
	"database.max_idle_conns",
	"auth.jwt_secret",
	"auth.token_lifetime_minutes",
	"redis.url",
	"coordination.backend",
	"coordination.cache_ttl",
	"coordination.lock_ttl",
	"coordination.key_namespace",
	"coordination.memory_capacity",
	"coordination.memory_shards",
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFrom(DefaultEnvFile)
}

// LoadFrom is Load with an explicit dotenv file. A missing file is ignored;
// variables already present in the environment win over the file.
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and the cross-section rules.
func Validate(cfg *Config) error {
	validate := validator.New()
	validate.RegisterStructValidation(coordinationRules, Config{})
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// coordinationRules requires a redis URL when the redis backend is selected.
func coordinationRules(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Coordination.Backend == BackendRedis && cfg.Redis.URL == "" {
		sl.ReportError(cfg.Redis.URL, "Redis.URL", "URL", "required_with_redis_backend", "")
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("coordination.backend", BackendRedis)
	v.SetDefault("coordination.cache_ttl", "30m")
	v.SetDefault("coordination.lock_ttl", "60s")
	v.SetDefault("coordination.memory_capacity", 10000)
	v.SetDefault("coordination.memory_shards", 16)
}
