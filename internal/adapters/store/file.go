// Package store contains the downstream processors that persist tweets
// and report daily counts.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tweet-monitor/internal/domain"
	"tweet-monitor/internal/usecases"
	"tweet-monitor/pkg/log"
)

// FileStore appends processed tweets to one JSON array file per day,
// named tweets_YYYYMMDD.json.
type FileStore struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create tweets dir: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// Name returns "file".
func (s *FileStore) Name() string {
	return "file"
}

// PathFor returns the file holding tweets stored on t's day.
func (s *FileStore) PathFor(t time.Time) string {
	return filepath.Join(s.dir, "tweets_"+t.Format("20060102")+".json")
}

// Process appends the batch to today's file.
func (s *FileStore) Process(ctx context.Context, batch domain.Batch) error {
	return s.Append(ctx, batch.Processed())
}

// Append adds tweets to today's file. The file is rewritten through a
// temporary file and rename so readers never see a partial array.
func (s *FileStore) Append(ctx context.Context, tweets []domain.ProcessedTweet) error {
	if len(tweets) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.PathFor(s.now())
	existing, err := readArray(path)
	if err != nil {
		return err
	}

	for _, t := range tweets {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal tweet %s: %w", t.ID, err)
		}
		existing = append(existing, data)
	}

	out, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tweets file: %w", err)
	}
	if err := writeAtomic(path, out); err != nil {
		return err
	}

	log.GlobalInfoCtx(ctx, "saved tweets to file", "count", len(tweets), "file", path)
	return nil
}

// CountToday reports the number of tweets in today's file.
func (s *FileStore) CountToday(ctx context.Context) (usecases.DailyCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.PathFor(s.now())
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return usecases.DailyCount{Location: path}, nil
	}

	items, err := readArray(path)
	if err != nil {
		return usecases.DailyCount{}, err
	}
	return usecases.DailyCount{Count: int64(len(items)), Location: path, Found: true}, nil
}

// readArray loads a JSON array file. A missing file is an empty array.
func readArray(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return items, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
