// Package config loads the lattice CLI configuration: defaults, then an
// optional YAML file, then LATTICE_* environment variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/lattice/internal/logging"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config is the whole CLI configuration.
type Config struct {
	Listen    string          `yaml:"listen" env:"LATTICE_LISTEN"`
	Metrics   bool            `yaml:"metrics" env:"LATTICE_METRICS"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Editor    EditorConfig    `yaml:"editor"`
	Security  SecurityConfig  `yaml:"security"`
	Templates TemplatesConfig `yaml:"templates"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LATTICE_LOG_LEVEL"`
	Format string `yaml:"format" env:"LATTICE_LOG_FORMAT"`
}

// StoreConfig selects the document store. Path is the directory of the file
// store or the database file of the sqlite store.
type StoreConfig struct {
	Kind          string        `yaml:"kind" env:"LATTICE_STORE"`
	Path          string        `yaml:"path" env:"LATTICE_STORE_PATH"`
	RedisAddr     string        `yaml:"redis_addr" env:"LATTICE_REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"LATTICE_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"LATTICE_REDIS_DB"`
	RedisTTL      time.Duration `yaml:"redis_ttl" env:"LATTICE_REDIS_TTL"`
	LockTTL       time.Duration `yaml:"lock_ttl" env:"LATTICE_LOCK_TTL"`
}

type EditorConfig struct {
	SectionsOnly  bool          `yaml:"sections_only" env:"LATTICE_SECTIONS_ONLY"`
	HistoryLimit  int           `yaml:"history_limit" env:"LATTICE_HISTORY_LIMIT"`
	AutosaveDelay time.Duration `yaml:"autosave_delay" env:"LATTICE_AUTOSAVE_DELAY"`
	FlushSchedule string        `yaml:"flush_schedule" env:"LATTICE_FLUSH_SCHEDULE"`
}

// SecurityConfig enables the store middlewares. EncryptionKey is a hex
// encoded 32 byte key; FallbackKeys keep older keys readable after rotation.
type SecurityConfig struct {
	EncryptionKey string   `yaml:"encryption_key" env:"LATTICE_ENCRYPTION_KEY"`
	FallbackKeys  []string `yaml:"fallback_keys" env:"LATTICE_FALLBACK_KEYS" envSeparator:","`
	PIIPatterns   []string `yaml:"pii_patterns" env:"LATTICE_PII_PATTERNS" envSeparator:","`
}

type TemplatesConfig struct {
	Dir string `yaml:"dir" env:"LATTICE_TEMPLATES_DIR"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Listen:  ":8080",
		Metrics: true,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Store: StoreConfig{
			Kind:      StoreFile,
			Path:      "pages",
			RedisAddr: "localhost:6379",
			LockTTL:   30 * time.Second,
		},
		Editor: EditorConfig{
			AutosaveDelay: 1500 * time.Millisecond,
		},
	}
}

// Load reads path (skipped when empty) over the defaults and then applies
// the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Store.Kind {
	case StoreMemory, StoreFile, StoreSQLite, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown store kind %q", c.Store.Kind))
	}
	if (c.Store.Kind == StoreFile || c.Store.Kind == StoreSQLite) && c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store %s needs a path", c.Store.Kind))
	}
	if c.Store.Kind == StoreRedis && c.Store.RedisAddr == "" {
		errs = append(errs, errors.New("store redis needs redis_addr"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.Editor.AutosaveDelay < 0 {
		errs = append(errs, errors.New("autosave_delay must not be negative"))
	}
	if _, _, err := c.Security.Keys(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Keys decodes the encryption keys. A nil active key means encryption is off.
func (s SecurityConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		if len(s.FallbackKeys) > 0 {
			return nil, nil, errors.New("fallback_keys need an encryption_key")
		}
		return nil, nil, nil
	}
	if active, err = decodeKey(s.EncryptionKey); err != nil {
		return nil, nil, fmt.Errorf("encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("not hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("want 32 bytes, got %d", len(key))
	}
	return key, nil
}
