package config

import (
	"log/slog"
	"strings"
	"time"
)

// OverlayConfig is the root configuration for the overlay display process.
type OverlayConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Relay    EndpointConfig `yaml:"relay"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Display  DisplayConfig  `yaml:"display"`
	Auth     AuthConfig     `yaml:"auth"` // Protects the control endpoints
	Log      LogConfig      `yaml:"log"`
}

// RelayConfig is the root configuration for the relay server.
type RelayConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Server   ServerConfig   `yaml:"server"`
	Source   SourceConfig   `yaml:"source"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Database DBConfig       `yaml:"database"` // Optional; empty host disables the delivery log
	Writer   WriterConfig   `yaml:"writer"`
	Auth     AuthConfig     `yaml:"auth"` // Protects the socket endpoint
	Log      LogConfig      `yaml:"log"`
}

// InstanceConfig identifies this process in logs and health output.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// EndpointConfig describes how the overlay reaches the relay.
type EndpointConfig struct {
	PageURL          string        `yaml:"page_url"` // URL of the hosting page; the socket URL is derived from it
	Token            string        `yaml:"token"`
	TokenFile        string        `yaml:"token_file"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	BufferSize       int           `yaml:"buffer_size"`
}

// MonitorConfig holds connection-resilience and display timings.
type MonitorConfig struct {
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	SupervisorInterval time.Duration `yaml:"supervisor_interval"`
	HeartbeatInterval  time.Duration `yaml:"heartbeat_interval"`
	HeartbeatTimeout   time.Duration `yaml:"heartbeat_timeout"`
	HealthInterval     time.Duration `yaml:"health_interval"`
	DisplayDuration    time.Duration `yaml:"display_duration"`
}

// DisplayConfig holds the overlay page server settings.
type DisplayConfig struct {
	Listen          string        `yaml:"listen"`
	Title           string        `yaml:"title"`
	PollInterval    time.Duration `yaml:"poll_interval"` // How often the page polls /overlay.json
	ShowStatusPanel bool          `yaml:"show_status_panel"`
}

// AuthConfig holds a shared bearer token. Both fields empty disables auth.
type AuthConfig struct {
	Token     string `yaml:"token"`
	TokenFile string `yaml:"token_file"`
}

// Enabled reports whether a token is configured.
func (a AuthConfig) Enabled() bool {
	return a.Token != "" || a.TokenFile != ""
}

// ServerConfig holds relay HTTP and socket settings.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	ImageDir        string        `yaml:"image_dir"` // Served under /output_images/
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	MaxSilence      time.Duration `yaml:"max_silence"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
}

// SourceConfig holds the MQTT subscription feeding the relay.
type SourceConfig struct {
	Broker     string `yaml:"broker"` // e.g. tcp://localhost:1883
	Topic      string `yaml:"topic"`
	ClientID   string `yaml:"client_id"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	QoS        int    `yaml:"qos"`
	BufferSize int    `yaml:"buffer_size"`
}

// DispatchConfig holds delivery settings.
type DispatchConfig struct {
	AckTimeout  time.Duration `yaml:"ack_timeout"`
	ImagePrefix string        `yaml:"image_prefix"`
	MaxAttempts int           `yaml:"max_attempts"` // Deliveries per message before giving up on an ack
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Enabled reports whether a database is configured.
func (db DBConfig) Enabled() bool {
	return db.Host != ""
}

// WriterConfig holds batch writer settings.
type WriterConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// SlogLevel maps Level to a slog level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
