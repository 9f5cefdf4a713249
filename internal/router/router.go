package router

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/rickgao/overlay-monitor/internal/model"
)

// Router classifies raw messages and keeps counters. Safe for concurrent use.
type Router struct {
	logger *slog.Logger

	received    atomic.Int64
	parseErrors atomic.Int64
	unknown     atomic.Int64
	displayable atomic.Int64
	pongs       atomic.Int64
}

// New creates a Router.
func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{logger: logger}
}

// Classify parses data and updates counters.
func (r *Router) Classify(data []byte, receivedAt time.Time) (Inbound, error) {
	r.received.Add(1)

	in, err := Parse(data, receivedAt)
	if err != nil {
		r.parseErrors.Add(1)
		return Inbound{}, err
	}

	switch in.Kind {
	case KindDisplayable:
		r.displayable.Add(1)
	case KindPong:
		r.pongs.Add(1)
	case KindUnknown:
		r.unknown.Add(1)
		r.logger.Debug("skipping message type", "type", in.Type)
	}

	return in, nil
}

// Stats returns current counters.
func (r *Router) Stats() Stats {
	return Stats{
		MessagesReceived: r.received.Load(),
		ParseErrors:      r.parseErrors.Load(),
		UnknownMessages:  r.unknown.Load(),
		Displayable:      r.displayable.Load(),
		Pongs:            r.pongs.Load(),
	}
}

// Parse classifies a single raw message.
func Parse(data []byte, receivedAt time.Time) (Inbound, error) {
	var env model.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case model.TypePong:
		return Inbound{Kind: KindPong, Type: env.Type}, nil

	case model.TypePing:
		return Inbound{Kind: KindPing, Type: env.Type}, nil

	case model.TypeAcknowledged:
		return Inbound{Kind: KindAcknowledged, Type: env.Type}, nil

	case model.TypeQueueMessage, model.TypeSQSMessage:
		ev := model.DisplayableEvent{
			Kind:       model.TypeQueueMessage,
			Timestamp:  env.Timestamp,
			ReceivedAt: receivedAt,
		}
		var payload model.QueueMessageData
		if err := json.Unmarshal(env.Data, &payload); err == nil {
			ev.Body = payload.Body
			ev.MessageID = payload.MessageID
		} else {
			ev.Body = rawText(env.Data)
		}
		return Inbound{Kind: KindDisplayable, Type: env.Type, Event: ev}, nil

	case model.TypeResourceReady, model.TypeImageReady:
		ev := model.DisplayableEvent{
			Kind:       model.TypeResourceReady,
			Timestamp:  env.Timestamp,
			ReceivedAt: receivedAt,
		}
		var payload model.ResourceReadyData
		if err := json.Unmarshal(env.Data, &payload); err == nil {
			ev.Username = payload.Username
			ev.ImagePath = payload.ImagePath
			ev.MessageID = payload.MessageID
		}
		return Inbound{Kind: KindDisplayable, Type: env.Type, Event: ev}, nil
	}

	return Inbound{Kind: KindUnknown, Type: env.Type}, nil
}

// rawText returns a JSON string's value, or the raw JSON text of anything else.
func rawText(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	return string(data)
}
