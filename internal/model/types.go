package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageType is the "type" discriminator of a wire message.
type MessageType string

const (
	TypePing          MessageType = "ping"
	TypePong          MessageType = "pong"
	TypeAcknowledged  MessageType = "event_acknowledged"
	TypeConnection    MessageType = "connection"
	TypeQueueMessage  MessageType = "queue_message"
	TypeResourceReady MessageType = "resource_ready"

	// Names used by earlier relay builds. Treated as their current equivalents.
	TypeSQSMessage MessageType = "sqs_message"
	TypeImageReady MessageType = "image_ready"
)

// ISOTimestamp is the layout of outbound protocol timestamps (millisecond precision, UTC).
const ISOTimestamp = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in the outbound protocol layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(ISOTimestamp)
}

// -----------------------------------------------------------------------------
// Overlay → relay
// -----------------------------------------------------------------------------

// Control is a protocol message sent by the overlay (ping, acknowledgment).
type Control struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
}

// NewPing builds a heartbeat probe.
func NewPing(at time.Time) Control {
	return Control{Type: TypePing, Timestamp: FormatTimestamp(at)}
}

// NewAcknowledgment builds the message confirming an event finished displaying.
func NewAcknowledgment(at time.Time) Control {
	return Control{Type: TypeAcknowledged, Timestamp: FormatTimestamp(at)}
}

// Encode returns the JSON encoding of c.
func (c Control) Encode() ([]byte, error) {
	return json.Marshal(c)
}

// -----------------------------------------------------------------------------
// Relay → overlay
// -----------------------------------------------------------------------------

// Envelope is the generic shape of an inbound message.
type Envelope struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// QueueMessageData is the payload of a queue_message event.
type QueueMessageData struct {
	Body      string `json:"body"`
	MessageID string `json:"messageId,omitempty"`
}

// ResourceReadyData is the payload of a resource_ready event.
type ResourceReadyData struct {
	Username  string `json:"username,omitempty"`
	ImagePath string `json:"imagePath,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}

// Event is a message pushed by the relay.
type Event struct {
	Type      MessageType `json:"type"`
	Data      any         `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// NewEvent builds a relay event stamped with at (RFC 3339).
func NewEvent(typ MessageType, data any, at time.Time) Event {
	return Event{
		Type:      typ,
		Data:      data,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}

// Encode returns the JSON encoding of e.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// -----------------------------------------------------------------------------
// Domain
// -----------------------------------------------------------------------------

// DisplayableEvent is an inbound event intended for on-screen presentation.
type DisplayableEvent struct {
	Kind       MessageType `json:"kind"`                // TypeQueueMessage or TypeResourceReady
	Body       string      `json:"body,omitempty"`      // queue_message only
	Username   string      `json:"username,omitempty"`  // resource_ready only
	ImagePath  string      `json:"imagePath,omitempty"` // resource_ready only
	MessageID  string      `json:"messageId,omitempty"` // Optional correlation id
	Timestamp  string      `json:"timestamp,omitempty"` // Timestamp as sent by the relay
	ReceivedAt time.Time   `json:"receivedAt"`          // Local receive time
}

// HasImage reports whether the event renders as an image.
func (e DisplayableEvent) HasImage() bool {
	return e.Kind == TypeResourceReady
}

// Delivery is the relay's record of one dispatched event.
type Delivery struct {
	ID           uuid.UUID     // Relay-assigned message id
	Type         MessageType   // Event type broadcast
	Attempt      int           // 1 for the first broadcast of a message
	SentAt       time.Time     // Broadcast time
	Clients      int           // Overlay clients the event reached
	Acknowledged bool          // Whether an overlay confirmed display
	AckLatency   time.Duration // Broadcast → acknowledgment (0 if not acknowledged)
}
