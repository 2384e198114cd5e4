// Package config loads the runtime settings: where the routine library lives,
// which index origin external routines expect, and how to log.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvLibrary     = "MAMBA_LIBRARY"
	EnvLibraryPath = "MAMBA_LIBRARY_PATH"
	EnvLogLevel    = "MAMBA_LOG_LEVEL"
)

// Config is the root configuration.
type Config struct {
	Library LibraryConfig `yaml:"library"`
	Matrix  MatrixConfig  `yaml:"matrix"`
	Logging LoggingConfig `yaml:"logging"`
}

// LibraryConfig locates the routine library.
type LibraryConfig struct {
	Name string `yaml:"name"` // base name without extension
	Dir  string `yaml:"dir"`  // empty = platform search path
}

// MatrixConfig holds sparse matrix defaults.
type MatrixConfig struct {
	Offset int `yaml:"offset"` // external index origin
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"` // json or console
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Library: LibraryConfig{
			Name: "libmkl_rt",
		},
		Matrix: MatrixConfig{
			Offset: 1,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvLibrary); v != "" {
		c.Library.Name = v
	}
	if v := os.Getenv(EnvLibraryPath); v != "" {
		c.Library.Dir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for values no component can use.
func (c *Config) Validate() error {
	if c.Library.Name == "" {
		return errors.New("config: library.name is required")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: logging.level: %w", err)
	}
	switch c.Logging.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("config: logging.encoding %q: want json or console", c.Logging.Encoding)
	}
	return nil
}

// Logger builds a zap logger. verbose forces debug level.
func (l LoggingConfig) Logger(verbose bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = l.Encoding
	if l.Encoding == "console" {
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
