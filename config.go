package framesync

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"hz.tools/rf"
)

// Config holds the settings a deployment is expected to tune without
// touching code: log verbosity, whether to capture a debug trace by
// default, and the two receiver parameters that most affect lock
// probability on a new channel.
type Config struct {
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`

	// DebugTrace, if true, starts the Receiver with debug capture enabled.
	DebugTrace bool `yaml:"debug_trace"`

	// Rolloff overrides the matched filter's excess bandwidth. Zero means
	// use the package default (Rolloff).
	Rolloff float64 `yaml:"rolloff"`

	// DetectionThreshold overrides DefaultDetectionThreshold. Zero means
	// use the package default.
	DetectionThreshold float64 `yaml:"detection_threshold"`

	// SymbolRate names the symbol rate a human configures a channel at.
	// The receiver's core algorithm works in radians/sample, not Hz, so
	// SymbolRate isn't consumed there; cmd/framesync-demo logs it at
	// startup so a configured channel's rate is visible at the CLI
	// boundary where it was set.
	SymbolRate rf.Hz `yaml:"symbol_rate"`
}

// DefaultConfig returns a Config with every field at its package default.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:           "info",
		DebugTrace:         false,
		Rolloff:            Rolloff,
		DetectionThreshold: DefaultDetectionThreshold,
		SymbolRate:         48 * rf.KHz,
	}
}

// LoadConfig reads and parses a YAML config file, filling in package
// defaults for any field left zero.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("framesync: reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("framesync: parsing config: %w", err)
	}
	if cfg.Rolloff == 0 {
		cfg.Rolloff = Rolloff
	}
	if cfg.DetectionThreshold == 0 {
		cfg.DetectionThreshold = DefaultDetectionThreshold
	}
	return cfg, nil
}
