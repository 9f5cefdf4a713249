package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads an overlay YAML config file and expands environment variables.
func Load(path string) (*OverlayConfig, error) {
	var cfg OverlayConfig
	if err := decode(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWithDefaults loads an overlay config and applies default values.
func LoadWithDefaults(path string) (*OverlayConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads an overlay config, applies defaults, and validates.
func LoadAndValidate(path string) (*OverlayConfig, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadRelay reads a relay YAML config file and expands environment variables.
func LoadRelay(path string) (*RelayConfig, error) {
	var cfg RelayConfig
	if err := decode(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadRelayAndValidate loads a relay config, applies defaults, and validates.
func LoadRelayAndValidate(path string) (*RelayConfig, error) {
	cfg, err := LoadRelay(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func decode(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), out); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}
