package plexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"markerexpr/internal/logging"
)

var (
	// ErrNotFound is returned when a metadata item or media file does not exist.
	ErrNotFound = errors.New("plexdb: not found")
	// ErrNoMarkerTag is returned when the database has no marker tag row,
	// usually because it is not a Plex library database.
	ErrNoMarkerTag = errors.New("plexdb: marker tag not found")
)

// markerTagType is the tags.tag_type Plex uses for intro/credits/ad markers.
const markerTagType = 12

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	defaultBusyTimeout      = 5 * time.Second
)

// Options tunes how the database is opened.
type Options struct {
	BusyTimeout time.Duration
	Logger      *slog.Logger
}

// DB is a read-only handle on a Plex library database.
type DB struct {
	db          *sql.DB
	path        string
	markerTagID int64
	logger      *slog.Logger
}

// Open connects to the database at path in read-only mode and looks up the
// marker tag.
func Open(ctx context.Context, path string, opts Options) (*DB, error) {
	ctx = ensureContext(ctx)
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("plexdb: database path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("stat plex database: %w", err)
	}

	timeout := opts.BusyTimeout
	if timeout <= 0 {
		timeout = defaultBusyTimeout
	}
	logger := logging.NewComponentLogger(opts.Logger, "plexdb")

	db, err := sql.Open("sqlite", readOnlyDSN(abs, timeout))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &DB{db: db, path: abs, logger: logger}
	if err := store.loadMarkerTag(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("opened plex database",
		logging.String("path", abs),
		logging.Int64("marker_tag_id", store.markerTagID),
	)
	return store, nil
}

// readOnlyDSN builds a URI filename. The _pragma parameters are applied by
// the driver to every pooled connection.
func readOnlyDSN(path string, busyTimeout time.Duration) string {
	query := url.Values{}
	query.Set("mode", "ro")
	query.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	query.Add("_pragma", "query_only(1)")
	dsn := url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: query.Encode()}
	return dsn.String()
}

func (s *DB) loadMarkerTag(ctx context.Context) error {
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT id FROM tags WHERE tag_type = ? ORDER BY id LIMIT 1`, markerTagType,
		).Scan(&s.markerTagID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoMarkerTag
	}
	if err != nil {
		return fmt.Errorf("lookup marker tag: %w", err)
	}
	return nil
}

// Path returns the absolute database path.
func (s *DB) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *DB) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// queryWithRetry runs a multi-row query and hands each row to scan. Rows
// are fully consumed inside the retry so a busy error mid-iteration restarts
// the whole read.
func (s *DB) queryWithRetry(ctx context.Context, reset func(), scan func(*sql.Rows) error, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		reset()
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			if err := scan(rows); err != nil {
				return err
			}
		}
		return rows.Err()
	})
}
