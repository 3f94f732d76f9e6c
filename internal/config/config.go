package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is looked up in the working directory when no --config is given.
const DefaultPath = "plangraph.yaml"

// Config is the file configuration of the plangraph CLI and server.
type Config struct {
	Log    LogConfig    `yaml:"log" json:"log"`
	Store  StoreConfig  `yaml:"store" json:"store"`
	Server ServerConfig `yaml:"server" json:"server"`

	// HaltRules are added to the defaults unless ReplaceDefaultRules is set.
	HaltRules           []RuleConfig `yaml:"halt_rules,omitempty" json:"halt_rules,omitempty" validate:"dive"`
	ReplaceDefaultRules bool         `yaml:"replace_default_rules,omitempty" json:"replace_default_rules,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" json:"format" validate:"omitempty,oneof=text json"`
}

// StoreConfig selects where runs are persisted.
type StoreConfig struct {
	Backend  string         `yaml:"backend" json:"backend" validate:"omitempty,oneof=memory file redis badger sqlite postgres"`
	Dir      string         `yaml:"dir,omitempty" json:"dir,omitempty"`
	Redis    RedisConfig    `yaml:"redis,omitempty" json:"redis,omitempty"`
	Badger   BadgerConfig   `yaml:"badger,omitempty" json:"badger,omitempty"`
	SQLite   SQLConfig      `yaml:"sqlite,omitempty" json:"sqlite,omitempty"`
	Postgres PostgresConfig `yaml:"postgres,omitempty" json:"postgres,omitempty"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	DB       int    `yaml:"db,omitempty" json:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	// TTL is a Go duration string, e.g. "24h". Empty means no expiry.
	TTL string `yaml:"ttl,omitempty" json:"ttl,omitempty"`
	// Lock enables distributed per-run locking through the same server.
	Lock bool `yaml:"lock,omitempty" json:"lock,omitempty"`
}

type BadgerConfig struct {
	Path     string `yaml:"path" json:"path"`
	InMemory bool   `yaml:"in_memory,omitempty" json:"in_memory,omitempty"`
}

type SQLConfig struct {
	Path  string `yaml:"path" json:"path"`
	Table string `yaml:"table,omitempty" json:"table,omitempty"`
}

type PostgresConfig struct {
	DSN   string `yaml:"dsn" json:"dsn"`
	Table string `yaml:"table,omitempty" json:"table,omitempty"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// RuleConfig is a halt rule as written in the file.
type RuleConfig struct {
	Kind  string `yaml:"kind" json:"kind" validate:"required"`
	State string `yaml:"state" json:"state" validate:"required"`
}

var configValidate = validator.New()

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "info", Format: "text"},
		Store:  StoreConfig{Backend: "file", Dir: ".plangraph/runs"},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads a YAML or JSON config file on top of the defaults.
// A missing file at DefaultPath is not an error; any other missing path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and that halt rules name real kinds and states.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Rules(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Store.Redis.Expiry(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Rules builds the halt rules walks should use.
func (c *Config) Rules() (domain.HaltRules, error) {
	rules := make([]domain.HaltRule, 0, len(c.HaltRules))
	for _, r := range c.HaltRules {
		rules = append(rules, domain.HaltRule{Kind: domain.Kind(r.Kind), State: domain.State(r.State)})
	}
	extra, err := domain.NewHaltRules(rules...)
	if err != nil {
		return domain.HaltRules{}, err
	}
	if c.ReplaceDefaultRules {
		return extra, nil
	}
	return domain.DefaultHaltRules().Merge(extra), nil
}

// Expiry parses TTL.
func (r RedisConfig) Expiry() (time.Duration, error) {
	if r.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.TTL)
	if err != nil {
		return 0, fmt.Errorf("redis ttl: %w", err)
	}
	return d, nil
}
