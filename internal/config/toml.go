// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Train TrainConfig `toml:"train"`
}

// TrainConfig maps training-related settings.
type TrainConfig struct {
	Epochs       *int     `toml:"epochs"`
	LearningRate *float64 `toml:"lr"`
	BatchSize    *int     `toml:"batch-size"`
	Output       *string  `toml:"output"`
	Delay        *string  `toml:"delay"`
	Seed         *int64   `toml:"seed"`
}

// DelayDuration parses the delay setting. A nil result means the value is unset.
func (c TrainConfig) DelayDuration() (*time.Duration, error) {
	if c.Delay == nil {
		return nil, nil
	}
	d, err := time.ParseDuration(*c.Delay)
	if err != nil {
		return nil, fmt.Errorf("invalid delay %q: %w", *c.Delay, err)
	}
	return &d, nil
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if _, err := cfg.Train.DelayDuration(); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
