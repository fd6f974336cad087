package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/adaptivity/internal/rules"
	"github.com/roach88/adaptivity/internal/script"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, script.DefaultMaxSteps, cfg.MaxSteps)
	assert.Equal(t, script.DefaultMaxDepth, cfg.MaxDepth)
	assert.Equal(t, rules.DefaultParallelism, cfg.Parallelism)
	assert.Equal(t, "", cfg.DB)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("ADAPTIVITY_MAX_STEPS", "500")
	t.Setenv("ADAPTIVITY_MAX_DEPTH", "8")
	t.Setenv("ADAPTIVITY_PARALLELISM", "2")
	t.Setenv("ADAPTIVITY_DB", "/tmp/checks.db")
	t.Setenv("ADAPTIVITY_LOG_LEVEL", "debug")
	t.Setenv("ADAPTIVITY_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Config{
		MaxSteps:    500,
		MaxDepth:    8,
		Parallelism: 2,
		DB:          "/tmp/checks.db",
		LogLevel:    "debug",
		LogFormat:   "json",
	}, cfg)
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("ADAPTIVITY_MAX_STEPS", "lots")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero steps", func(c *Config) { c.MaxSteps = 0 }, "ADAPTIVITY_MAX_STEPS"},
		{"negative depth", func(c *Config) { c.MaxDepth = -1 }, "ADAPTIVITY_MAX_DEPTH"},
		{"zero parallelism", func(c *Config) { c.Parallelism = 0 }, "ADAPTIVITY_PARALLELISM"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "ADAPTIVITY_LOG_LEVEL"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "ADAPTIVITY_LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	logger := cfg.Logger(&buf)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogLevel = "DEBUG"
	cfg.LogFormat = "json"

	cfg.Logger(&buf).Debug("check", slog.String("id", "c1"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "check", line["msg"])
	assert.Equal(t, "c1", line["id"])
	assert.Equal(t, "DEBUG", line["level"])
}

func TestEngineOptions(t *testing.T) {
	opts := Default().EngineOptions(slog.Default())
	assert.Len(t, opts, 4)
}
