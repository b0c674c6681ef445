package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServer_Defaults(t *testing.T) {
	cfg, err := LoadServer()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 60*time.Second, cfg.IdleTimeout)
	assert.Equal(t, 256, cfg.SendBuffer)
	assert.Equal(t, int64(4096), cfg.MaxMessageSize)
}

func TestLoadServer_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "example.com,http://localhost:5173")
	t.Setenv("IDLE_TIMEOUT", "15s")

	cfg, err := LoadServer()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"example.com", "http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.IdleTimeout)
}

func TestLoadServer_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad duration", key: "IDLE_TIMEOUT", val: "soon"},
		{name: "zero buffer", key: "SEND_BUFFER", val: "0"},
		{name: "negative idle", key: "IDLE_TIMEOUT", val: "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := LoadServer()
			assert.Error(t, err)
		})
	}
}

func TestParse_WrapsError(t *testing.T) {
	t.Setenv("SEND_RATE", "fast")
	var cfg Ghost
	err := Parse(&cfg)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "parse env:"))
}

func TestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, Level("debug"))
	assert.Equal(t, slog.LevelWarn, Level("warn"))
	assert.Equal(t, slog.LevelError, Level("error"))
	assert.Equal(t, slog.LevelInfo, Level("info"))
	assert.Equal(t, slog.LevelInfo, Level("verbose"))
}
