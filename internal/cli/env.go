package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/plangraph/internal/config"
	"github.com/aretw0/plangraph/internal/logging"
	"github.com/aretw0/plangraph/pkg/domain"
)

// GlobalFlags are the persistent flags shared by every command.
// Non-empty values override the config file.
type GlobalFlags struct {
	ConfigPath string
	LogLevel   string
	Store      string
	Dir        string
}

// Env is what a command needs once flags and config are resolved.
type Env struct {
	Config *config.Config
	Logger *slog.Logger
	Rules  domain.HaltRules
}

// LoadEnv reads the config file, applies flag overrides and builds the logger.
func LoadEnv(flags GlobalFlags) (*Env, error) {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return nil, err
	}

	if flags.LogLevel != "" {
		cfg.Log.Level = flags.LogLevel
	}
	if flags.Store != "" {
		cfg.Store.Backend = flags.Store
	}
	if flags.Dir != "" {
		cfg.Store.Dir = flags.Dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := createLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	rules, err := cfg.Rules()
	if err != nil {
		return nil, err
	}

	return &Env{Config: cfg, Logger: logger, Rules: rules}, nil
}

// createLogger configures the application logger.
// Logs always go to Stderr so Stdout stays clean for reports and JSON-RPC.
func createLogger(c config.LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if c.Format == "json" {
		return logging.NewJSON(os.Stderr, level), nil
	}
	return logging.New(level), nil
}
