// Package events publishes site regeneration events to NATS JetStream so
// external systems (CDN purgers, search indexers) can react to rebuilt
// pages. Publishing is optional and best-effort; a nil publisher is safe
// to call and does nothing.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/fieldsites/sitebuilder/internal/config"
	"github.com/fieldsites/sitebuilder/internal/logfields"
)

const defaultSubject = "sitebuilder.regenerated"

// EventType classifies regeneration events.
type EventType string

const (
	EventSiteRegenerated EventType = "site.regenerated"
	EventSitemapRebuilt  EventType = "sitemap.rebuilt"
)

// RegenerationEvent is the published payload.
type RegenerationEvent struct {
	Type       EventType `json:"type"`
	BusinessID string    `json:"business_id"`
	Routes     int       `json:"routes,omitempty"`
	Degraded   []string  `json:"degraded,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher wraps the NATS JetStream connection.
type Publisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	logger  *slog.Logger
}

// NewPublisher connects to NATS per the events config. Returns (nil, nil)
// when events are disabled; callers treat the nil publisher as a no-op.
func NewPublisher(cfg config.EventsConfig, logger *slog.Logger) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	subject := cfg.Subject
	if subject == "" {
		subject = defaultSubject
	}

	logger.Info("regeneration event publisher connected",
		slog.String("url", cfg.NATSURL),
		slog.String("subject", subject))

	return &Publisher{conn: conn, js: js, subject: subject, logger: logger}, nil
}

// Publish sends one event. Safe on a nil publisher.
func (p *Publisher) Publish(ctx context.Context, event RegenerationEvent) error {
	if p == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := p.js.Publish(pubCtx, p.subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	p.logger.Debug("published regeneration event",
		slog.String("type", string(event.Type)),
		logfields.BusinessID(event.BusinessID))
	return nil
}

// Close drains the connection. Safe on a nil publisher.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}
