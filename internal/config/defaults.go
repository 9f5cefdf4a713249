package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultInstanceID         = "overlay"
	DefaultHandshakeTimeout   = 10 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultClientBufferSize   = 256
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 30 * time.Second
	DefaultSupervisorInterval = 5 * time.Second
	DefaultHeartbeatInterval  = 30 * time.Second
	DefaultHeartbeatTimeout   = 20 * time.Second
	DefaultHealthInterval     = 5 * time.Second
	DefaultDisplayDuration    = 10 * time.Second
	DefaultDisplayListen      = ":8090"
	DefaultDisplayTitle       = "Overlay"
	DefaultPollInterval       = 500 * time.Millisecond

	DefaultRelayInstanceID = "relay"
	DefaultRelayListen     = ":8080"
	DefaultImageDir        = "output_images"
	DefaultCleanupInterval = 60 * time.Second
	DefaultMaxSilence      = 2 * time.Minute
	DefaultSourceTopic     = "overlay/events"
	DefaultSourceClientID  = "overlay-relay"
	DefaultSourceBuffer    = 64
	DefaultAckTimeout      = 10 * time.Second
	DefaultImagePrefix     = "/output_images/"
	DefaultMaxAttempts     = 1

	DefaultDBPort        = 5432
	DefaultDBSSLMode     = "prefer"
	DefaultMaxConns      = 4
	DefaultMinConns      = 1
	DefaultBatchSize     = 100
	DefaultFlushInterval = 1 * time.Second
	DefaultBufferSize    = 1000
	DefaultLogLevel      = "info"
)

func (c *OverlayConfig) applyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = DefaultInstanceID
	}

	// Relay endpoint defaults
	if c.Relay.HandshakeTimeout == 0 {
		c.Relay.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Relay.WriteTimeout == 0 {
		c.Relay.WriteTimeout = DefaultWriteTimeout
	}
	if c.Relay.BufferSize == 0 {
		c.Relay.BufferSize = DefaultClientBufferSize
	}

	// Monitor defaults
	if c.Monitor.ReconnectBaseDelay == 0 {
		c.Monitor.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Monitor.ReconnectMaxDelay == 0 {
		c.Monitor.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Monitor.SupervisorInterval == 0 {
		c.Monitor.SupervisorInterval = DefaultSupervisorInterval
	}
	if c.Monitor.HeartbeatInterval == 0 {
		c.Monitor.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Monitor.HeartbeatTimeout == 0 {
		c.Monitor.HeartbeatTimeout = DefaultHeartbeatTimeout
	}
	if c.Monitor.HealthInterval == 0 {
		c.Monitor.HealthInterval = DefaultHealthInterval
	}
	if c.Monitor.DisplayDuration == 0 {
		c.Monitor.DisplayDuration = DefaultDisplayDuration
	}

	// Display server defaults
	if c.Display.Listen == "" {
		c.Display.Listen = DefaultDisplayListen
	}
	if c.Display.Title == "" {
		c.Display.Title = DefaultDisplayTitle
	}
	if c.Display.PollInterval == 0 {
		c.Display.PollInterval = DefaultPollInterval
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func (c *RelayConfig) applyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = DefaultRelayInstanceID
	}

	// Server defaults
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultRelayListen
	}
	if c.Server.ImageDir == "" {
		c.Server.ImageDir = DefaultImageDir
	}
	if c.Server.CleanupInterval == 0 {
		c.Server.CleanupInterval = DefaultCleanupInterval
	}
	if c.Server.MaxSilence == 0 {
		c.Server.MaxSilence = DefaultMaxSilence
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}

	// Source defaults
	if c.Source.Topic == "" {
		c.Source.Topic = DefaultSourceTopic
	}
	if c.Source.ClientID == "" {
		c.Source.ClientID = DefaultSourceClientID
	}
	if c.Source.BufferSize == 0 {
		c.Source.BufferSize = DefaultSourceBuffer
	}

	// Dispatch defaults
	if c.Dispatch.AckTimeout == 0 {
		c.Dispatch.AckTimeout = DefaultAckTimeout
	}
	if c.Dispatch.ImagePrefix == "" {
		c.Dispatch.ImagePrefix = DefaultImagePrefix
	}
	if c.Dispatch.MaxAttempts == 0 {
		c.Dispatch.MaxAttempts = DefaultMaxAttempts
	}

	// Database and writer defaults only matter when the delivery log is on.
	if c.Database.Enabled() {
		applyDBDefaults(&c.Database)
	}
	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = DefaultFlushInterval
	}
	if c.Writer.BufferSize == 0 {
		c.Writer.BufferSize = DefaultBufferSize
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
