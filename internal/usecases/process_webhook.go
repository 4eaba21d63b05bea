package usecases

import (
	"context"
	"time"

	"tweet-monitor/internal/domain"
	"tweet-monitor/internal/metrics"
	"tweet-monitor/pkg/log"
)

// BatchDispatcher receives normalized batches after a successful webhook.
type BatchDispatcher interface {
	Dispatch(ctx context.Context, batch domain.Batch)
}

// ProcessWebhookUseCase normalizes a webhook body, hands its tweets
// downstream and builds the response summary.
type ProcessWebhookUseCase struct {
	dispatcher BatchDispatcher
	now        func() time.Time
}

// NewProcessWebhookUseCase creates the use case. dispatcher may be nil.
func NewProcessWebhookUseCase(dispatcher BatchDispatcher) *ProcessWebhookUseCase {
	return &ProcessWebhookUseCase{
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// WithClock overrides the time source.
func (uc *ProcessWebhookUseCase) WithClock(now func() time.Time) *ProcessWebhookUseCase {
	uc.now = now
	return uc
}

// Execute processes body. The only error it returns wraps
// domain.ErrMalformedPayload; downstream failures never surface here.
func (uc *ProcessWebhookUseCase) Execute(ctx context.Context, body []byte) (*Summary, error) {
	env, err := Normalize(body)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	count := len(env.Tweets)
	metrics.TweetsReceivedTotal.Add(float64(count))

	ctx = log.WithFields(ctx, "rule_id", env.RuleID, "rule_tag", env.RuleTag)
	log.GlobalInfoCtx(ctx, "processing webhook",
		"event_type", env.EventType,
		"tweets_count", count,
	)
	for _, t := range env.Tweets {
		log.GlobalDebugCtx(ctx, "tweet received",
			"tweet_id", t.ID,
			"author", t.Author.Username,
			"text", preview(t.Text, 100),
		)
	}

	if count > 0 && uc.dispatcher != nil {
		uc.dispatcher.Dispatch(ctx, domain.NewBatch(env, now))
	}

	summary := NewSummary(count, now)
	return &summary, nil
}

// preview truncates s to at most n runes.
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
