package publisher_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"tweet-monitor/internal/adapters/publisher"
	"tweet-monitor/internal/domain"
)

// MockConn captures published messages.
type MockConn struct {
	msgs []*nats.Msg
	err  error
}

func (m *MockConn) PublishMsg(msg *nats.Msg) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msg)
	return nil
}

func sampleBatch() domain.Batch {
	return domain.Batch{
		EventType:  "tweet",
		Rule:       domain.RuleInfo{RuleID: "r1", RuleTag: "golang"},
		ReceivedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Tweets: []domain.Tweet{
			{ID: "1", Text: "hello", Author: domain.Author{Username: "gopher"}},
			{ID: "2"},
		},
	}
}

func TestNATSPublisher_Process_PublishesBatch(t *testing.T) {
	// Arrange
	conn := &MockConn{}
	p := publisher.NewNATSPublisher(conn, "tweets.golang")

	// Act
	err := p.Process(context.Background(), sampleBatch())

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conn.msgs) != 1 {
		t.Fatalf("messages: got %d, want 1", len(conn.msgs))
	}
	msg := conn.msgs[0]
	if msg.Subject != "tweets.golang" {
		t.Errorf("Subject: got %q", msg.Subject)
	}
	if msg.Header.Get(publisher.HeaderRuleID) != "r1" || msg.Header.Get(publisher.HeaderRuleTag) != "golang" {
		t.Errorf("headers: got %v", msg.Header)
	}

	var body publisher.BatchMessage
	if err := json.Unmarshal(msg.Data, &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if len(body.Tweets) != 2 || body.Tweets[0].Author.Username != "gopher" || body.RuleInfo.RuleID != "r1" {
		t.Errorf("body: got %+v", body)
	}
}

func TestNATSPublisher_Process_PublishError(t *testing.T) {
	conn := &MockConn{err: nats.ErrConnectionClosed}
	p := publisher.NewNATSPublisher(conn, "")

	err := p.Process(context.Background(), sampleBatch())

	if !errors.Is(err, nats.ErrConnectionClosed) {
		t.Errorf("expected ErrConnectionClosed, got %v", err)
	}
	if p.Subject() != publisher.DefaultSubject {
		t.Errorf("Subject() = %q, want default", p.Subject())
	}
}

func TestNATSPublisher_Process_CancelledContext(t *testing.T) {
	conn := &MockConn{}
	p := publisher.NewNATSPublisher(conn, "s")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Process(ctx, sampleBatch())

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(conn.msgs) != 0 {
		t.Error("nothing should be published")
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() on borrowed conn = %v", err)
	}
}
