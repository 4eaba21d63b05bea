// Package publisher forwards tweet batches to a message broker.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"tweet-monitor/internal/domain"
	"tweet-monitor/pkg/log"
)

// Message headers set on every published batch.
const (
	HeaderRuleID    = "Rule-Id"
	HeaderRuleTag   = "Rule-Tag"
	HeaderEventType = "Event-Type"
)

// DefaultSubject is used when Config.Subject is empty.
const DefaultSubject = "tweets.received"

// Config holds NATS connection settings.
type Config struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Subject receives one message per batch.
	Subject string

	// Name identifies the connection on the server.
	Name string

	// MaxReconnects is the maximum number of reconnection attempts.
	// Use -1 for infinite reconnects.
	MaxReconnects int

	ReconnectWait time.Duration
	Timeout       time.Duration

	// Token for token-based authentication (optional).
	Token string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Subject:       DefaultSubject,
		Name:          "tweet-monitor",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// MsgPublisher is the subset of *nats.Conn the publisher needs.
type MsgPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// BatchMessage is the JSON body of a published batch.
type BatchMessage struct {
	EventType  string                  `json:"event_type"`
	RuleInfo   domain.RuleInfo         `json:"rule_info"`
	ReceivedAt time.Time               `json:"received_at"`
	Tweets     []domain.ProcessedTweet `json:"tweets"`
}

// NATSPublisher publishes each batch as a single message.
type NATSPublisher struct {
	conn    MsgPublisher
	subject string
	drain   func() error
}

// Connect dials NATS and returns a publisher owning the connection.
func Connect(cfg Config) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.GlobalWarn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.GlobalInfo("nats reconnected", "url", c.ConnectedUrlRedacted())
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	p := NewNATSPublisher(conn, cfg.Subject)
	p.drain = conn.Drain
	return p, nil
}

// NewNATSPublisher wraps an existing connection. The caller keeps
// ownership of conn.
func NewNATSPublisher(conn MsgPublisher, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: conn, subject: subject}
}

// Name returns "nats".
func (p *NATSPublisher) Name() string {
	return "nats"
}

// Subject returns the publish subject.
func (p *NATSPublisher) Subject() string {
	return p.subject
}

// Process publishes the batch.
func (p *NATSPublisher) Process(ctx context.Context, batch domain.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(BatchMessage{
		EventType:  batch.EventType,
		RuleInfo:   batch.Rule,
		ReceivedAt: batch.ReceivedAt.UTC(),
		Tweets:     batch.Processed(),
	})
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	msg := nats.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set(HeaderRuleID, batch.Rule.RuleID)
	msg.Header.Set(HeaderRuleTag, batch.Rule.RuleTag)
	msg.Header.Set(HeaderEventType, batch.EventType)

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	return nil
}

// Close drains the connection when the publisher owns it.
func (p *NATSPublisher) Close() error {
	if p.drain == nil {
		return nil
	}
	return p.drain()
}
