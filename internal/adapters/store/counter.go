package store

import (
	"context"
	"sync"
	"time"

	"tweet-monitor/internal/domain"
	"tweet-monitor/internal/usecases"
)

// Counter counts tweets processed today in memory. It serves /stats when
// no persistent store is configured.
type Counter struct {
	mu    sync.Mutex
	day   string
	count int64
	now   func() time.Time
}

// NewCounter creates an empty Counter.
func NewCounter() *Counter {
	return &Counter{now: time.Now}
}

// Name returns "counter".
func (c *Counter) Name() string {
	return "counter"
}

// Process adds the batch size to today's count.
func (c *Counter) Process(_ context.Context, batch domain.Batch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roll()
	c.count += int64(len(batch.Tweets))
	return nil
}

// CountToday returns today's count.
func (c *Counter) CountToday(context.Context) (usecases.DailyCount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roll()
	return usecases.DailyCount{Count: c.count, Location: "memory", Found: c.count > 0}, nil
}

func (c *Counter) roll() {
	day := c.now().Format("20060102")
	if day != c.day {
		c.day = day
		c.count = 0
	}
}
