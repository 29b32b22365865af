// Package config loads vcbtool settings from VCB_* environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/vib3/vcb/executor"
	"github.com/vib3/vcb/registry"
)

// Config is the CLI configuration. Command-line flags override it.
type Config struct {
	Backend      string `env:"VCB_BACKEND" envDefault:"hal-noop"`
	ErrorPolicy  string `env:"VCB_ERROR_POLICY" envDefault:"continue"`
	MaxErrors    int    `env:"VCB_MAX_ERRORS" envDefault:"0"`
	HistoryLimit int    `env:"VCB_HISTORY_LIMIT" envDefault:"256"`
	ListenAddr   string `env:"VCB_LISTEN_ADDR" envDefault:"127.0.0.1:8089"`
	LogLevel     string `env:"VCB_LOG_LEVEL" envDefault:"warn"`
	OTelEndpoint string `env:"VCB_OTEL_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads Config from the environment and checks it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if _, err := executor.ParseErrorPolicy(c.ErrorPolicy); err != nil {
		return fmt.Errorf("config: VCB_ERROR_POLICY: %w", err)
	}
	if c.MaxErrors < 0 {
		return fmt.Errorf("config: VCB_MAX_ERRORS must be >= 0, got %d", c.MaxErrors)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("config: VCB_HISTORY_LIMIT must be >= 0, got %d", c.HistoryLimit)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: VCB_LOG_LEVEL: %w", err)
	}
	return l, nil
}

// ExecutorOptions returns the executor options the settings imply.
func (c Config) ExecutorOptions() []executor.Option {
	policy, _ := executor.ParseErrorPolicy(c.ErrorPolicy)
	return []executor.Option{
		executor.WithErrorPolicy(policy),
		executor.WithMaxErrors(c.MaxErrors),
	}
}

// RegistryOptions returns the registry options the settings imply.
func (c Config) RegistryOptions() []registry.Option {
	if c.HistoryLimit == 0 {
		return nil
	}
	return []registry.Option{registry.WithHistory(c.HistoryLimit)}
}

// NewLogger returns a text logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
