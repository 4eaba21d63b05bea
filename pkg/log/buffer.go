package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Buffer delivers entries to its transporters from a single background
// goroutine. When the queue is full the oldest queued entry is dropped.
type Buffer struct {
	entries      chan Entry
	transporters []Transporter
	dropped      atomic.Int64
	closed       atomic.Bool
	done         chan struct{}
	wg           sync.WaitGroup

	// errOut receives transporter failures.
	errOut io.Writer
}

// NewBuffer starts a buffer holding up to capacity pending entries.
func NewBuffer(capacity int, transporters ...Transporter) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	b := &Buffer{
		entries:      make(chan Entry, capacity),
		transporters: transporters,
		done:         make(chan struct{}),
		errOut:       os.Stderr,
	}

	b.wg.Add(1)
	go b.run()

	return b
}

// Send queues an entry. It never blocks and is a no-op after Close.
func (b *Buffer) Send(entry Entry) {
	if b.closed.Load() {
		return
	}

	// Full: drop the oldest entry and retry
	for attempt := 0; attempt < 2; attempt++ {
		select {
		case b.entries <- entry:
			return
		default:
		}
		select {
		case <-b.entries:
			b.dropped.Add(1)
		default:
		}
	}
	b.dropped.Add(1)
}

// DroppedCount returns how many entries were discarded on overflow.
func (b *Buffer) DroppedCount() int64 {
	return b.dropped.Load()
}

// Close drains pending entries and closes every transporter.
// Calling it more than once is safe.
func (b *Buffer) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}

	close(b.done)
	b.wg.Wait()

	// Flush remaining entries
	for {
		select {
		case entry := <-b.entries:
			b.deliver(entry)
		default:
			for _, t := range b.transporters {
				if err := t.Close(); err != nil {
					fmt.Fprintf(b.errOut, "log transporter %q close failed: %v\n", t.Name(), err)
				}
			}
			return
		}
	}
}

func (b *Buffer) run() {
	defer b.wg.Done()

	for {
		select {
		case entry := <-b.entries:
			b.deliver(entry)
		case <-b.done:
			return
		}
	}
}

// deliver writes entry to every transporter. Failures go to errOut.
func (b *Buffer) deliver(entry Entry) {
	for _, t := range b.transporters {
		if err := t.Write(entry); err != nil {
			fmt.Fprintf(b.errOut, "log transporter %q failed: %v\n", t.Name(), err)
		}
	}
}
