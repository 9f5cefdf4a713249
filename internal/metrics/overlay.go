package metrics

// Overlay counts monitor activity. It is not safe for concurrent use; the
// monitor mutates it only from its event loop and hands out copies.
type Overlay struct {
	MessagesReceived    int64 `json:"messagesReceived"`
	ParseErrors         int64 `json:"parseErrors"`
	EventsDisplayed     int64 `json:"eventsDisplayed"`
	EventsQueued        int64 `json:"eventsQueued"`
	AcksSent            int64 `json:"acksSent"`
	AcksDropped         int64 `json:"acksDropped"`
	PingsSent           int64 `json:"pingsSent"`
	PongsReceived       int64 `json:"pongsReceived"`
	HeartbeatTimeouts   int64 `json:"heartbeatTimeouts"`
	ReconnectsScheduled int64 `json:"reconnectsScheduled"`
	ConnectionsOpened   int64 `json:"connectionsOpened"`
}
