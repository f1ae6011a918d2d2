// Package events publishes domain events such as ledger creation and user
// invitations to interested consumers.
package events

import (
	"context"
	"log/slog"
	"time"
)

// Event types.
const (
	TypeLedgerCreated = "ledger.created"
	TypeUserInvited   = "user.invited"
)

// Event is a domain notification. Data carries the type-specific payload.
type Event struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Key        string         `json:"key,omitempty"`
	Data       map[string]any `json:"data"`
}

// New returns an event of the given type stamped with the current time.
func New(eventType, key string, data map[string]any) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Key: key, Data: data}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher writes events to a structured logger. It is used when no
// broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher. A nil logger uses slog.Default.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs e at info level.
func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.InfoContext(ctx, "event published",
		"type", e.Type,
		"key", e.Key,
		"data", e.Data,
	)
	return nil
}

// Close implements Publisher.
func (p *LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

// Publish appends e.
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

// Close implements Publisher.
func (r *Recorder) Close() error { return nil }

// OfType returns the recorded events of the given type.
func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
