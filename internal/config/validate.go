package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks that all required fields are set and values are valid.
func (c *OverlayConfig) Validate() error {
	if c.Relay.PageURL == "" {
		return errors.New("relay.page_url is required")
	}
	u, err := url.Parse(c.Relay.PageURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("relay.page_url %q is not an absolute URL", c.Relay.PageURL)
	}
	if c.Relay.BufferSize < 1 {
		return errors.New("relay.buffer_size must be >= 1")
	}

	m := c.Monitor
	if m.ReconnectBaseDelay <= 0 {
		return errors.New("monitor.reconnect_base_delay must be > 0")
	}
	if m.ReconnectMaxDelay < m.ReconnectBaseDelay {
		return fmt.Errorf("monitor.reconnect_max_delay (%v) cannot be less than reconnect_base_delay (%v)",
			m.ReconnectMaxDelay, m.ReconnectBaseDelay)
	}
	if m.SupervisorInterval <= 0 {
		return errors.New("monitor.supervisor_interval must be > 0")
	}
	if m.HeartbeatInterval <= 0 {
		return errors.New("monitor.heartbeat_interval must be > 0")
	}
	if m.HeartbeatTimeout <= 0 || m.HeartbeatTimeout >= m.HeartbeatInterval {
		return fmt.Errorf("monitor.heartbeat_timeout (%v) must be > 0 and less than heartbeat_interval (%v)",
			m.HeartbeatTimeout, m.HeartbeatInterval)
	}
	if m.HealthInterval <= 0 {
		return errors.New("monitor.health_interval must be > 0")
	}
	if m.DisplayDuration <= 0 {
		return errors.New("monitor.display_duration must be > 0")
	}

	if c.Display.PollInterval <= 0 {
		return errors.New("display.poll_interval must be > 0")
	}

	return nil
}

// Validate checks that all required fields are set and values are valid.
func (c *RelayConfig) Validate() error {
	if c.Source.Broker == "" {
		return errors.New("source.broker is required")
	}
	if c.Source.QoS < 0 || c.Source.QoS > 2 {
		return fmt.Errorf("source.qos must be 0, 1 or 2, got %d", c.Source.QoS)
	}
	if c.Source.BufferSize < 1 {
		return errors.New("source.buffer_size must be >= 1")
	}

	if c.Server.CleanupInterval <= 0 {
		return errors.New("server.cleanup_interval must be > 0")
	}
	if c.Server.MaxSilence <= 0 {
		return errors.New("server.max_silence must be > 0")
	}

	if c.Dispatch.AckTimeout <= 0 {
		return errors.New("dispatch.ack_timeout must be > 0")
	}
	if c.Dispatch.MaxAttempts < 1 {
		return errors.New("dispatch.max_attempts must be >= 1")
	}

	if c.Database.Enabled() {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
		if c.Writer.BatchSize < 1 {
			return errors.New("writer.batch_size must be >= 1")
		}
		if c.Writer.BufferSize < 1 {
			return errors.New("writer.buffer_size must be >= 1")
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
