package transporters

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tweet-monitor/pkg/log"
)

// File appends line-delimited JSON entries to a log file.
type File struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// NewFile opens path for appending, creating it and its directory if needed.
func NewFile(path string) (*File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &File{path: path, f: f}, nil
}

// Name returns "file:<path>".
func (t *File) Name() string {
	return "file:" + t.path
}

// Write appends one JSON line.
func (t *File) Write(entry log.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.f == nil {
		return os.ErrClosed
	}
	_, err = t.f.Write(data)
	return err
}

// Close closes the underlying file.
func (t *File) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.f == nil {
		return nil
	}
	err := t.f.Close()
	t.f = nil
	return err
}
