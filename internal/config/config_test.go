package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: stream-overlay
relay:
  page_url: https://overlay.example.com/
  token: abc
monitor:
  heartbeat_interval: 45s
  heartbeat_timeout: 15s
display:
  listen: ":9000"
  show_status_panel: true
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "stream-overlay" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "stream-overlay")
	}
	if cfg.Relay.PageURL != "https://overlay.example.com/" {
		t.Errorf("Relay.PageURL = %q", cfg.Relay.PageURL)
	}
	if cfg.Monitor.HeartbeatInterval != 45*time.Second {
		t.Errorf("Monitor.HeartbeatInterval = %v, want 45s", cfg.Monitor.HeartbeatInterval)
	}
	if !cfg.Display.ShowStatusPanel {
		t.Error("Display.ShowStatusPanel = false, want true")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_OVERLAY_TOKEN", "secret123")

	yaml := `
relay:
  page_url: http://localhost:8080/
  token: ${TEST_OVERLAY_TOKEN}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Relay.Token != "secret123" {
		t.Errorf("Relay.Token = %q, want %q", cfg.Relay.Token, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, "relay:\n  page_url: http://localhost:8080/\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	checks := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"ReconnectBaseDelay", cfg.Monitor.ReconnectBaseDelay, DefaultReconnectBaseDelay},
		{"ReconnectMaxDelay", cfg.Monitor.ReconnectMaxDelay, DefaultReconnectMaxDelay},
		{"SupervisorInterval", cfg.Monitor.SupervisorInterval, DefaultSupervisorInterval},
		{"HeartbeatInterval", cfg.Monitor.HeartbeatInterval, DefaultHeartbeatInterval},
		{"HeartbeatTimeout", cfg.Monitor.HeartbeatTimeout, DefaultHeartbeatTimeout},
		{"HealthInterval", cfg.Monitor.HealthInterval, DefaultHealthInterval},
		{"DisplayDuration", cfg.Monitor.DisplayDuration, DefaultDisplayDuration},
		{"HandshakeTimeout", cfg.Relay.HandshakeTimeout, DefaultHandshakeTimeout},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want default %v", c.name, c.got, c.want)
		}
	}
	if cfg.Display.Listen != DefaultDisplayListen {
		t.Errorf("Display.Listen = %q, want default %q", cfg.Display.Listen, DefaultDisplayListen)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want default %q", cfg.Log.Level, DefaultLogLevel)
	}
}

func TestLoadAndValidate_Errors(t *testing.T) {
	if _, err := LoadAndValidate(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := writeTempFile(t, "relay: [unterminated")
	if _, err := LoadAndValidate(path); err == nil || !strings.Contains(err.Error(), "parse config yaml") {
		t.Errorf("err = %v, want parse error", err)
	}

	path = writeTempFile(t, "monitor:\n  display_duration: 5s\n")
	if _, err := LoadAndValidate(path); err == nil || !strings.Contains(err.Error(), "relay.page_url is required") {
		t.Errorf("err = %v, want page_url error", err)
	}
}

func validOverlay() OverlayConfig {
	cfg := OverlayConfig{Relay: EndpointConfig{PageURL: "http://localhost:8080/"}}
	cfg.applyDefaults()
	return cfg
}

func TestOverlayValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*OverlayConfig)
		wantErr string
	}{
		{
			name:    "missing page url",
			mutate:  func(c *OverlayConfig) { c.Relay.PageURL = "" },
			wantErr: "relay.page_url is required",
		},
		{
			name:    "relative page url",
			mutate:  func(c *OverlayConfig) { c.Relay.PageURL = "/overlay" },
			wantErr: `relay.page_url "/overlay" is not an absolute URL`,
		},
		{
			name: "timeout equals interval",
			mutate: func(c *OverlayConfig) {
				c.Monitor.HeartbeatInterval = 20 * time.Second
				c.Monitor.HeartbeatTimeout = 20 * time.Second
			},
			wantErr: "monitor.heartbeat_timeout (20s) must be > 0 and less than heartbeat_interval (20s)",
		},
		{
			name: "max below base",
			mutate: func(c *OverlayConfig) {
				c.Monitor.ReconnectBaseDelay = 10 * time.Second
				c.Monitor.ReconnectMaxDelay = 5 * time.Second
			},
			wantErr: "monitor.reconnect_max_delay (5s) cannot be less than reconnect_base_delay (10s)",
		},
		{
			name:    "negative display duration",
			mutate:  func(c *OverlayConfig) { c.Monitor.DisplayDuration = -time.Second },
			wantErr: "monitor.display_duration must be > 0",
		},
		{
			name:   "valid config",
			mutate: func(c *OverlayConfig) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validOverlay()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestLoadRelay(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "pw")

	yaml := `
source:
  broker: tcp://localhost:1883
  topic: images/ready
  qos: 1
dispatch:
  ack_timeout: 3s
database:
  host: localhost
  name: overlay
  user: relay
  password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadRelayAndValidate(path)
	if err != nil {
		t.Fatalf("LoadRelayAndValidate failed: %v", err)
	}

	if cfg.Source.Topic != "images/ready" {
		t.Errorf("Source.Topic = %q", cfg.Source.Topic)
	}
	if cfg.Dispatch.AckTimeout != 3*time.Second {
		t.Errorf("Dispatch.AckTimeout = %v, want 3s", cfg.Dispatch.AckTimeout)
	}
	if cfg.Dispatch.ImagePrefix != DefaultImagePrefix {
		t.Errorf("Dispatch.ImagePrefix = %q, want default", cfg.Dispatch.ImagePrefix)
	}
	if cfg.Database.Password != "pw" || cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Server.MaxSilence != DefaultMaxSilence || cfg.Server.CleanupInterval != DefaultCleanupInterval {
		t.Errorf("Server = %+v", cfg.Server)
	}
}

func TestRelayValidate(t *testing.T) {
	base := func() RelayConfig {
		cfg := RelayConfig{Source: SourceConfig{Broker: "tcp://localhost:1883"}}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*RelayConfig)
		wantErr string
	}{
		{
			name:    "missing broker",
			mutate:  func(c *RelayConfig) { c.Source.Broker = "" },
			wantErr: "source.broker is required",
		},
		{
			name:    "bad qos",
			mutate:  func(c *RelayConfig) { c.Source.QoS = 3 },
			wantErr: "source.qos must be 0, 1 or 2, got 3",
		},
		{
			name:    "database without password",
			mutate:  func(c *RelayConfig) { c.Database = DBConfig{Host: "db", Name: "n", User: "u", MaxConns: 1} },
			wantErr: "database.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *RelayConfig) {
				c.Database = DBConfig{Host: "db", Name: "n", User: "u", Password: "p", MaxConns: 2, MinConns: 5}
			},
			wantErr: "database.min_conns (5) cannot exceed max_conns (2)",
		},
		{
			name:   "database disabled",
			mutate: func(c *RelayConfig) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else if err == nil || err.Error() != tt.wantErr {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (LogConfig{Level: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
