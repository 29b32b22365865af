package config

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vib3/vcb/executor"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, executor.BackendHALNoop, cfg.Backend)
	assert.Equal(t, "continue", cfg.ErrorPolicy)
	assert.Equal(t, 0, cfg.MaxErrors)
	assert.Equal(t, 256, cfg.HistoryLimit)
	assert.Equal(t, "127.0.0.1:8089", cfg.ListenAddr)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
	assert.Len(t, cfg.RegistryOptions(), 1)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VCB_BACKEND", "nop")
	t.Setenv("VCB_ERROR_POLICY", "abort")
	t.Setenv("VCB_MAX_ERRORS", "3")
	t.Setenv("VCB_HISTORY_LIMIT", "0")
	t.Setenv("VCB_LISTEN_ADDR", ":9000")
	t.Setenv("VCB_LOG_LEVEL", "debug")
	t.Setenv("VCB_OTEL_ENDPOINT", "http://localhost:4318")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Config{
		Backend:      "nop",
		ErrorPolicy:  "abort",
		MaxErrors:    3,
		HistoryLimit: 0,
		ListenAddr:   ":9000",
		LogLevel:     "debug",
		OTelEndpoint: "http://localhost:4318",
	}, cfg)
	assert.Empty(t, cfg.RegistryOptions())
	assert.Len(t, cfg.ExecutorOptions(), 2)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"bad int", "VCB_MAX_ERRORS", "many", "parse env:"},
		{"bad policy", "VCB_ERROR_POLICY", "retry", "VCB_ERROR_POLICY"},
		{"negative max", "VCB_MAX_ERRORS", "-1", "VCB_MAX_ERRORS"},
		{"negative history", "VCB_HISTORY_LIMIT", "-5", "VCB_HISTORY_LIMIT"},
		{"bad level", "VCB_LOG_LEVEL", "loud", "VCB_LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var out bytes.Buffer
	logger := Config{LogLevel: "info"}.NewLogger(&out)
	logger.Debug("hidden")
	logger.Info("shown", "k", 1)

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "msg=shown")
}
