// Package events publishes storefront domain events to NATS so downstream
// services (analytics, abandoned-cart mail) can react without polling.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Subjects published by the storefront.
const (
	SubjectCheckoutSubmitted = "checkout.submitted"
	SubjectCheckoutConfirmed = "checkout.confirmed"
	SubjectCheckoutFailed    = "checkout.failed"
)

// Event is the envelope written to the wire.
type Event struct {
	ID         string          `json:"id"`
	Subject    string          `json:"subject"`
	SessionID  string          `json:"sessionId,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Publisher emits events. Publishing is best effort; callers log failures
// and carry on.
type Publisher interface {
	Publish(ctx context.Context, subject, sessionID string, data any) error
	Close() error
}

// NewEvent wraps data in an envelope.
func NewEvent(subject, sessionID string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal event data: %w", err)
	}
	return Event{
		ID:         uuid.NewString(),
		Subject:    subject,
		SessionID:  sessionID,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}, nil
}

// natsConn is the subset of *nats.Conn the publisher needs.
type natsConn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSPublisher publishes events to "<prefix>.<subject>".
type NATSPublisher struct {
	conn   natsConn
	prefix string
	logger zerolog.Logger
}

// NewNATSPublisher connects to url and reconnects forever in the background.
func NewNATSPublisher(url, prefix string, logger zerolog.Logger) (*NATSPublisher, error) {
	log := logger.With().Str("component", "events").Logger()
	conn, err := nats.Connect(url,
		nats.Name("britishfloors-storefront"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return newNATSPublisher(conn, prefix, log), nil
}

func newNATSPublisher(conn natsConn, prefix string, logger zerolog.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = "storefront"
	}
	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger}
}

func (p *NATSPublisher) Publish(ctx context.Context, subject, sessionID string, data any) error {
	evt, err := NewEvent(subject, sessionID, data)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	full := p.prefix + "." + subject
	if err := p.conn.Publish(full, payload); err != nil {
		return fmt.Errorf("publish %s: %w", full, err)
	}
	p.logger.Debug().Str("subject", full).Str("event_id", evt.ID).Msg("event published")
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NopPublisher discards events. Used when NATS_URL is unset.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, subject, sessionID string, data any) error {
	return nil
}

func (NopPublisher) Close() error { return nil }

// MemoryPublisher records events in memory for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	Events []Event
	Err    error
}

func (m *MemoryPublisher) Publish(ctx context.Context, subject, sessionID string, data any) error {
	if m.Err != nil {
		return m.Err
	}
	evt, err := NewEvent(subject, sessionID, data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, evt)
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

// Subjects returns the subjects recorded so far, in order.
func (m *MemoryPublisher) Subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Subject
	}
	return out
}
