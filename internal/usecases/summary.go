package usecases

import (
	"fmt"
	"time"
)

// TimestampLayout is the ISO-8601 form used in every response.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// StatusSuccess and StatusError are the response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusHealthy = "healthy"
)

// Summary is the success response for an accepted webhook.
type Summary struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	TweetsCount int    `json:"tweets_count"`
	Timestamp   string `json:"timestamp"`
}

// NewSummary builds the summary for count tweets processed at now.
func NewSummary(count int, now time.Time) Summary {
	return Summary{
		Status:      StatusSuccess,
		Message:     fmt.Sprintf("Processed %d tweets", count),
		TweetsCount: count,
		Timestamp:   FormatTimestamp(now),
	}
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
