// Package domain contains the webhook payload entities and errors.
package domain

import (
	"encoding/json"
	"time"
)

// Envelope is the top-level payload pushed by the filter-rule service.
type Envelope struct {
	EventType string
	RuleID    string
	RuleTag   string
	Tweets    []Tweet
	Timestamp int64 // milliseconds since epoch, 0 when absent
}

// Tweet is one matched tweet. Raw keeps the object exactly as received;
// the typed fields are a lenient projection of it.
type Tweet struct {
	ID        string
	Text      string
	Author    Author
	CreatedAt string
	Metrics   Metrics
	Raw       json.RawMessage
}

// Author holds the tweet author's identity. Any field may be empty.
type Author struct {
	ID       string
	Username string
	Name     string
}

// Metrics holds engagement counters. Missing counters are zero.
type Metrics struct {
	RetweetCount int64
	LikeCount    int64
	ReplyCount   int64
}

// RuleInfo identifies the filter rule that matched a tweet.
type RuleInfo struct {
	RuleID  string `json:"rule_id"`
	RuleTag string `json:"rule_tag"`
}

// Batch is the unit handed to downstream processors.
type Batch struct {
	EventType  string
	Rule       RuleInfo
	Tweets     []Tweet
	ReceivedAt time.Time
}

// NewBatch builds a Batch from an envelope.
func NewBatch(env *Envelope, receivedAt time.Time) Batch {
	return Batch{
		EventType:  env.EventType,
		Rule:       RuleInfo{RuleID: env.RuleID, RuleTag: env.RuleTag},
		Tweets:     env.Tweets,
		ReceivedAt: receivedAt,
	}
}

// ProcessedTweet is the stored and published form of a tweet.
type ProcessedTweet struct {
	ID        string           `json:"id"`
	Text      string           `json:"text"`
	Author    ProcessedAuthor  `json:"author"`
	CreatedAt string           `json:"created_at"`
	Metrics   ProcessedMetrics `json:"metrics"`
	RuleInfo  RuleInfo         `json:"rule_info"`
	Raw       json.RawMessage  `json:"raw,omitempty"`
}

type ProcessedAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type ProcessedMetrics struct {
	RetweetCount int64 `json:"retweet_count"`
	LikeCount    int64 `json:"like_count"`
	ReplyCount   int64 `json:"reply_count"`
}

// Processed projects every tweet in the batch to its stored form.
func (b Batch) Processed() []ProcessedTweet {
	out := make([]ProcessedTweet, 0, len(b.Tweets))
	for _, t := range b.Tweets {
		out = append(out, ProcessedTweet{
			ID:   t.ID,
			Text: t.Text,
			Author: ProcessedAuthor{
				ID:       t.Author.ID,
				Username: t.Author.Username,
				Name:     t.Author.Name,
			},
			CreatedAt: t.CreatedAt,
			Metrics: ProcessedMetrics{
				RetweetCount: t.Metrics.RetweetCount,
				LikeCount:    t.Metrics.LikeCount,
				ReplyCount:   t.Metrics.ReplyCount,
			},
			RuleInfo: b.Rule,
			Raw:      t.Raw,
		})
	}
	return out
}

// TweetIDs returns the non-empty tweet ids in order.
func (b Batch) TweetIDs() []string {
	ids := make([]string, 0, len(b.Tweets))
	for _, t := range b.Tweets {
		if t.ID != "" {
			ids = append(ids, t.ID)
		}
	}
	return ids
}
