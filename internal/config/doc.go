// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// OverlayConfig configures cmd/overlay; RelayConfig configures cmd/relay.
package config
