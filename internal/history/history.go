package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"markerexpr/internal/logging"
)

const (
	defaultMaxEntries = 50
	lockRetryDelay    = 25 * time.Millisecond
)

// Entry is one recorded expression.
type Entry struct {
	Expression string    `json:"expression" yaml:"expression"`
	IsEnd      bool      `json:"is_end" yaml:"is_end"`
	MetadataID int64     `json:"metadata_id,omitempty" yaml:"metadata_id,omitempty"`
	ResultMs   *int64    `json:"result_ms,omitempty" yaml:"result_ms,omitempty"`
	UsedAt     time.Time `json:"used_at" yaml:"used_at"`
}

func (e Entry) key() string {
	return fmt.Sprintf("%t|%d|%s", e.IsEnd, e.MetadataID, e.Expression)
}

// Store reads and writes the history file. A Store with an empty path is a
// no-op.
type Store struct {
	path       string
	maxEntries int
	logger     *slog.Logger
}

// New returns a Store for path keeping at most maxEntries entries.
func New(path string, maxEntries int, logger *slog.Logger) *Store {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Store{
		path:       strings.TrimSpace(path),
		maxEntries: maxEntries,
		logger:     logging.NewComponentLogger(logger, "history"),
	}
}

// Path returns the history file path.
func (s *Store) Path() string {
	return s.path
}

// Record adds entry at the front of the list. An existing entry with the same
// expression, side, and item is moved rather than duplicated.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	entry.Expression = strings.TrimSpace(entry.Expression)
	if entry.Expression == "" {
		return errors.New("history: expression cannot be empty")
	}
	if s.path == "" {
		return nil
	}
	if entry.UsedAt.IsZero() {
		entry.UsedAt = time.Now().UTC()
	}

	return s.withLock(ctx, func() error {
		entries, err := s.load()
		if err != nil {
			s.logger.Warn("history file unreadable; starting fresh",
				logging.String(logging.FieldEventType, "history_load_failed"),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the history file if it keeps failing"),
				logging.String(logging.FieldImpact, "older history entries are dropped"),
			)
			entries = nil
		}

		out := make([]Entry, 0, len(entries)+1)
		out = append(out, entry)
		for _, existing := range entries {
			if existing.key() == entry.key() {
				continue
			}
			out = append(out, existing)
		}
		if len(out) > s.maxEntries {
			out = out[:s.maxEntries]
		}

		if err := s.save(out); err != nil {
			return fmt.Errorf("persist history: %w", err)
		}
		s.logger.Debug("recorded expression",
			logging.String("expression", entry.Expression),
			logging.Int("entry_count", len(out)),
		)
		return nil
	})
}

// List returns all entries, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	if s.path == "" {
		return nil, nil
	}
	var entries []Entry
	err := s.withLock(ctx, func() error {
		var loadErr error
		entries, loadErr = s.load()
		return loadErr
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UsedAt.After(entries[j].UsedAt)
	})
	return entries, nil
}

// Clear removes all entries.
func (s *Store) Clear(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	return s.withLock(ctx, func() error {
		if err := s.save([]Entry{}); err != nil {
			return fmt.Errorf("persist history: %w", err)
		}
		s.logger.Debug("cleared history")
		return nil
	})
}

func (s *Store) withLock(ctx context.Context, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}
	lock := flock.New(s.path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock history: %w", err)
	}
	if !locked {
		return errors.New("history: lock not acquired")
	}
	defer func() {
		_ = lock.Unlock()
	}()
	return fn()
}

func (s *Store) load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse history file: %w", err)
	}
	return entries, nil
}

// save writes entries atomically. Callers hold the lock.
func (s *Store) save(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
