// Package app wires the nutrition bot from configuration.
package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/Pleso100/Kolgidrat/core/config"
	coredatabase "github.com/Pleso100/Kolgidrat/core/database"
	"github.com/Pleso100/Kolgidrat/internal/conversation"
)

// Backend names accepted in config.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Admin    AdminConfig         `yaml:"admin"`
	Catalog  CatalogConfig       `yaml:"catalog"`
	Session  SessionConfig       `yaml:"session"`
	Metrics  MetricsConfig       `yaml:"metrics"`
}

// AdminConfig holds the shared operator password. Empty disables admin mode.
type AdminConfig struct {
	Password string `yaml:"password" envconfig:"ADMIN_PASSWORD"`
}

// CatalogConfig selects the product store.
type CatalogConfig struct {
	Backend   string `yaml:"backend" envconfig:"CATALOG_BACKEND"`
	TimeoutMS int    `yaml:"timeout_ms" envconfig:"CATALOG_TIMEOUT_MS"`
	// Seed is inserted on startup when the catalog is empty.
	Seed []SeedProduct `yaml:"seed" ignored:"true"`
}

// SeedProduct is one catalog row in the config file.
type SeedProduct struct {
	Name       string  `yaml:"name"`
	Carbs      float64 `yaml:"carbs"`
	BreadUnits float64 `yaml:"bread_units"`
}

// SessionConfig selects the session backend.
type SessionConfig struct {
	Backend       string `yaml:"backend" envconfig:"SESSION_BACKEND"`
	RedisAddr     string `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" envconfig:"REDIS_DB"`
	Prefix        string `yaml:"prefix" envconfig:"SESSION_PREFIX"`
	TTLSeconds    int    `yaml:"ttl_seconds" envconfig:"SESSION_TTL_SECONDS"`
	// LockTTLMS enables the cross-replica Redis lock when > 0.
	LockTTLMS int `yaml:"lock_ttl_ms" envconfig:"SESSION_LOCK_TTL_MS"`
}

// MetricsConfig controls the ops HTTP server. Empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// CatalogTimeout is the bound on one catalog call.
func (c CatalogConfig) CatalogTimeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// TTL is how long an idle session is kept in Redis; 0 keeps it forever.
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// LockTTL bounds how long a crashed replica can hold a user's lock.
func (c SessionConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLMS) * time.Millisecond
}

// LoadConfig reads path, overlays the environment and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	cat := &cfg.Catalog
	cat.Backend = strings.ToLower(strings.TrimSpace(cat.Backend))
	if cat.Backend == "" {
		cat.Backend = BackendPostgres
	}
	switch cat.Backend {
	case BackendPostgres:
		cfg.Database.Normalize()
		if err := cfg.Database.Validate(); err != nil {
			return err
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid catalog.backend %q; allowed: postgres, memory", cfg.Catalog.Backend)
	}
	if cat.TimeoutMS < 0 {
		return fmt.Errorf("catalog.timeout_ms must be >= 0")
	}
	if cat.TimeoutMS == 0 {
		cat.TimeoutMS = int(conversation.DefaultCatalogTimeout / time.Millisecond)
	}

	sess := &cfg.Session
	sess.Backend = strings.ToLower(strings.TrimSpace(sess.Backend))
	if sess.Backend == "" {
		sess.Backend = BackendMemory
	}
	switch sess.Backend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(sess.RedisAddr) == "" {
			return fmt.Errorf("session.redis_addr is required when session.backend is 'redis'")
		}
		if sess.Prefix == "" {
			sess.Prefix = "kolgidrat:session:"
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, redis", cfg.Session.Backend)
	}
	if sess.TTLSeconds < 0 {
		return fmt.Errorf("session.ttl_seconds must be >= 0")
	}
	if sess.LockTTLMS < 0 {
		return fmt.Errorf("session.lock_ttl_ms must be >= 0")
	}
	return nil
}
