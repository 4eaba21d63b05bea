package usecases

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"tweet-monitor/internal/domain"
	"tweet-monitor/internal/metrics"
	"tweet-monitor/pkg/log"
)

// DefaultProcessorTimeout bounds a single processor invocation.
const DefaultProcessorTimeout = 10 * time.Second

// TweetProcessor consumes normalized batches downstream of the webhook,
// e.g. storage, publishing or notification.
type TweetProcessor interface {
	Name() string
	Process(ctx context.Context, batch domain.Batch) error
}

// SeenCache remembers tweet ids recently handed downstream.
type SeenCache interface {
	// MarkSeen records id and reports whether it was not already present.
	MarkSeen(id string) bool
	// Forget removes id so a later delivery is handed downstream again.
	Forget(id string)
}

// Dispatcher fans batches out to processors without blocking the caller.
// Each processor runs in its own goroutine under its own timeout; an error
// or panic in one never reaches the others or the webhook response.
//
// Tweet ids are marked seen when a batch is dispatched, so a redelivery
// racing the first one is suppressed. If every processor fails, the ids are
// forgotten again and the next delivery goes through.
type Dispatcher struct {
	processors []TweetProcessor
	timeout    time.Duration
	seen       SeenCache

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. seen may be nil to disable
// redelivery suppression; timeout <= 0 selects DefaultProcessorTimeout.
func NewDispatcher(timeout time.Duration, seen SeenCache, processors ...TweetProcessor) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultProcessorTimeout
	}
	return &Dispatcher{
		processors: processors,
		timeout:    timeout,
		seen:       seen,
	}
}

// Processors returns the names of the registered processors.
func (d *Dispatcher) Processors() []string {
	names := make([]string, len(d.processors))
	for i, p := range d.processors {
		names[i] = p.Name()
	}
	return names
}

// Dispatch hands batch to every processor and returns immediately.
// Processor contexts keep ctx's values but not its cancellation.
// Batches arriving after Close has started are dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, batch domain.Batch) {
	if len(d.processors) == 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		log.GlobalWarnCtx(ctx, "dispatcher closed, dropping batch", "tweets_count", len(batch.Tweets))
		return
	}

	batch = d.dropSeen(ctx, batch)
	if len(batch.Tweets) == 0 {
		return
	}

	detached := context.WithoutCancel(ctx)
	var remaining, succeeded atomic.Int32
	remaining.Store(int32(len(d.processors)))

	d.wg.Add(len(d.processors))
	for _, p := range d.processors {
		go func(p TweetProcessor) {
			defer d.wg.Done()

			if d.run(detached, p, batch) {
				succeeded.Add(1)
			}
			// Last one out releases the ids if nothing stored the batch
			if remaining.Add(-1) == 0 && succeeded.Load() == 0 {
				d.forget(detached, batch)
			}
		}(p)
	}
}

// Wait blocks until every dispatched invocation has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops accepting batches, waits for in-flight work, then closes
// processors that hold resources.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.Wait()

	var firstErr error
	for _, p := range d.processors {
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			log.GlobalError("processor close failed", "processor", p.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// run invokes one processor and reports whether it succeeded.
func (d *Dispatcher) run(ctx context.Context, p TweetProcessor, batch domain.Batch) bool {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := invoke(ctx, p, batch)
	metrics.ProcessorDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ProcessorRunsTotal.WithLabelValues(p.Name(), metrics.StatusError).Inc()
		log.GlobalErrorCtx(ctx, "downstream processor failed",
			"processor", p.Name(),
			"rule_id", batch.Rule.RuleID,
			"tweets_count", len(batch.Tweets),
			"error", err,
		)
		return false
	}

	metrics.ProcessorRunsTotal.WithLabelValues(p.Name(), metrics.StatusOK).Inc()
	log.GlobalDebugCtx(ctx, "downstream processor done",
		"processor", p.Name(),
		"tweets_count", len(batch.Tweets),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return true
}

// invoke calls p.Process, turning a panic into an error.
func invoke(ctx context.Context, p TweetProcessor, batch domain.Batch) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.ProcessorError{Processor: p.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := p.Process(ctx, batch); err != nil {
		return &domain.ProcessorError{Processor: p.Name(), Err: err}
	}
	return nil
}

// dropSeen removes tweets already dispatched within the cache TTL.
// Tweets without an id are always kept.
func (d *Dispatcher) dropSeen(ctx context.Context, batch domain.Batch) domain.Batch {
	if d.seen == nil {
		return batch
	}

	fresh := make([]domain.Tweet, 0, len(batch.Tweets))
	for _, t := range batch.Tweets {
		if t.ID == "" || d.seen.MarkSeen(t.ID) {
			fresh = append(fresh, t)
		}
	}

	if skipped := len(batch.Tweets) - len(fresh); skipped > 0 {
		metrics.DuplicateTweetsTotal.Add(float64(skipped))
		log.GlobalInfoCtx(ctx, "skipping redelivered tweets", "skipped", skipped, "rule_id", batch.Rule.RuleID)
	}

	batch.Tweets = fresh
	return batch
}

// forget releases the ids of a batch no processor accepted.
func (d *Dispatcher) forget(ctx context.Context, batch domain.Batch) {
	if d.seen == nil {
		return
	}
	for _, t := range batch.Tweets {
		if t.ID != "" {
			d.seen.Forget(t.ID)
		}
	}
	log.GlobalWarnCtx(ctx, "every processor failed, batch may be redelivered",
		"rule_id", batch.Rule.RuleID,
		"tweets_count", len(batch.Tweets),
	)
}
