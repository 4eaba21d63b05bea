package usecases

import (
	"context"
	"time"
)

// DailyCount is the number of tweets stored for the current day.
type DailyCount struct {
	Count int64
	// Location names where the count came from, e.g. a file path or key.
	Location string
	// Found is false when nothing has been stored today.
	Found bool
}

// StatsSource reports how many tweets were stored today.
type StatsSource interface {
	CountToday(ctx context.Context) (DailyCount, error)
}

// StatsReport is the /stats response body.
type StatsReport struct {
	TweetsToday int64  `json:"tweets_today"`
	LastUpdated string `json:"last_updated"`
	File        string `json:"file,omitempty"`
	Message     string `json:"message,omitempty"`
}

// GetStatsUseCase reads today's tweet count from a StatsSource.
type GetStatsUseCase struct {
	source StatsSource
	now    func() time.Time
}

// NewGetStatsUseCase creates a GetStatsUseCase.
func NewGetStatsUseCase(source StatsSource) *GetStatsUseCase {
	return &GetStatsUseCase{source: source, now: time.Now}
}

// Execute builds the stats report.
func (uc *GetStatsUseCase) Execute(ctx context.Context) (*StatsReport, error) {
	daily, err := uc.source.CountToday(ctx)
	if err != nil {
		return nil, err
	}

	report := &StatsReport{
		TweetsToday: daily.Count,
		LastUpdated: FormatTimestamp(uc.now()),
	}
	if daily.Found {
		report.File = daily.Location
	} else {
		report.TweetsToday = 0
		report.Message = "No tweets received today"
	}
	return report, nil
}

// HealthReport is the /health response body.
type HealthReport struct {
	Status           string `json:"status"`
	Timestamp        string `json:"timestamp"`
	Service          string `json:"service"`
	APIKeyConfigured bool   `json:"api_key_configured"`
}

// NewHealthReport builds a healthy report.
func NewHealthReport(service string, apiKeyConfigured bool, now time.Time) HealthReport {
	return HealthReport{
		Status:           StatusHealthy,
		Timestamp:        FormatTimestamp(now),
		Service:          service,
		APIKeyConfigured: apiKeyConfigured,
	}
}
