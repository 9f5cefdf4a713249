package source

import (
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/rickgao/overlay-monitor/internal/metrics"
)

// Config configures the MQTT subscription.
type Config struct {
	Broker         string // e.g. tcp://localhost:1883
	Topic          string
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	BufferSize     int
	ConnectTimeout time.Duration
}

// MQTT buffers messages published to a broker topic.
type MQTT struct {
	queue
	client  paho.Client
	cfg     Config
	metrics *metrics.Relay
	logger  *slog.Logger
}

// NewMQTT connects to the broker and subscribes to cfg.Topic. The
// subscription is renewed after every reconnect.
func NewMQTT(cfg Config, m *metrics.Relay, logger *slog.Logger) (*MQTT, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = &metrics.Relay{}
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	s := &MQTT{
		queue:   newQueue(cfg.BufferSize),
		cfg:     cfg,
		metrics: m,
		logger:  logger.With("component", "source", "topic", cfg.Topic),
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			s.logger.Warn("broker connection lost", "error", err)
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	s.client = paho.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("connect to broker %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker %s: %w", cfg.Broker, err)
	}

	return s, nil
}

func (s *MQTT) onConnect(c paho.Client) {
	token := c.Subscribe(s.cfg.Topic, s.cfg.QoS, s.handle)
	go func() {
		if !token.WaitTimeout(s.cfg.ConnectTimeout) {
			s.logger.Error("subscribe timeout")
			return
		}
		if err := token.Error(); err != nil {
			s.logger.Error("subscribe failed", "error", err)
			return
		}
		s.logger.Info("subscribed", "qos", s.cfg.QoS)
	}()
}

func (s *MQTT) handle(_ paho.Client, m paho.Message) {
	msg, ok := s.push(m.Topic(), m.Payload(), time.Now())
	if !ok {
		s.logger.Warn("source closed, dropping message", "mqtt_id", m.MessageID())
		return
	}
	s.metrics.MessagesSourced.Add(1)
	s.logger.Debug("message buffered", "id", msg.ID, "bytes", len(msg.Payload), "queued", s.Len())
}

// Close unsubscribes and disconnects. Buffered messages remain receivable.
func (s *MQTT) Close() error {
	if s.client.IsConnected() {
		s.client.Unsubscribe(s.cfg.Topic).WaitTimeout(time.Second)
	}
	s.client.Disconnect(1000)
	s.buf.Close()
	return nil
}

var _ Source = (*MQTT)(nil)
