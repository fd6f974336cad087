// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/adaptivity/internal/engine"
	"github.com/roach88/adaptivity/internal/rules"
	"github.com/roach88/adaptivity/internal/script"
)

// Config holds settings shared by every command.
type Config struct {
	MaxSteps    int    `env:"ADAPTIVITY_MAX_STEPS"`
	MaxDepth    int    `env:"ADAPTIVITY_MAX_DEPTH"`
	Parallelism int    `env:"ADAPTIVITY_PARALLELISM"`
	DB          string `env:"ADAPTIVITY_DB"`
	LogLevel    string `env:"ADAPTIVITY_LOG_LEVEL" envDefault:"warn"`
	LogFormat   string `env:"ADAPTIVITY_LOG_FORMAT" envDefault:"text"`
}

// Default returns the settings used when nothing is set.
func Default() Config {
	return Config{
		MaxSteps:    script.DefaultMaxSteps,
		MaxDepth:    script.DefaultMaxDepth,
		Parallelism: rules.DefaultParallelism,
		LogLevel:    "warn",
		LogFormat:   "text",
	}
}

// Load reads the environment over the defaults.
func Load() (Config, error) {
	cfg := Default()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.MaxSteps <= 0 {
		return fmt.Errorf("ADAPTIVITY_MAX_STEPS must be positive, got %d", c.MaxSteps)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("ADAPTIVITY_MAX_DEPTH must be positive, got %d", c.MaxDepth)
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("ADAPTIVITY_PARALLELISM must be positive, got %d", c.Parallelism)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("ADAPTIVITY_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Logger builds the slog logger described by LogLevel and LogFormat.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// EngineOptions translates the settings into engine options.
func (c Config) EngineOptions(logger *slog.Logger) []engine.Option {
	return []engine.Option{
		engine.WithMaxSteps(c.MaxSteps),
		engine.WithMaxDepth(c.MaxDepth),
		engine.WithParallelism(c.Parallelism),
		engine.WithLogger(logger),
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("ADAPTIVITY_LOG_LEVEL: %w", err)
	}
	return level, nil
}
