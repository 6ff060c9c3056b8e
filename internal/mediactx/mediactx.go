// Package mediactx assembles the markers and chapters of Plex items into the
// data an expression is bound to.
package mediactx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"markerexpr/internal/config"
	"markerexpr/internal/logging"
	"markerexpr/internal/markers"
	"markerexpr/internal/media/ffprobe"
	"markerexpr/internal/plexdb"
	"markerexpr/internal/timeexpr"
)

// Source is the part of plexdb.DB the loader reads from.
type Source interface {
	Item(ctx context.Context, id int64) (plexdb.Item, error)
	Markers(ctx context.Context, metadataID int64) ([]markers.Marker, error)
	MediaFile(ctx context.Context, metadataID int64) (string, error)
}

// ChapterProbe extracts chapters from a media file.
type ChapterProbe func(ctx context.Context, binary, path string) ([]markers.Chapter, error)

// Media is one item together with its bindable data.
type Media struct {
	Item plexdb.Item        `json:"item" yaml:"item"`
	File string             `json:"file,omitempty" yaml:"file,omitempty"`
	Data timeexpr.MediaData `json:"data" yaml:"data"`
	// ChapterWarning explains why Data.Chapters is empty when lookup failed.
	ChapterWarning string `json:"chapter_warning,omitempty" yaml:"chapter_warning,omitempty"`
}

// Loader reads media data for metadata items.
type Loader struct {
	db          Source
	chapters    config.Chapters
	concurrency int
	probe       ChapterProbe
	logger      *slog.Logger
}

// Option customizes a Loader.
type Option func(*Loader)

// WithChapterProbe replaces the ffprobe-backed chapter lookup.
func WithChapterProbe(probe ChapterProbe) Option {
	return func(l *Loader) {
		if probe != nil {
			l.probe = probe
		}
	}
}

// WithLogger sets the logger used for warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logging.NewComponentLogger(logger, "mediactx")
	}
}

// NewLoader returns a Loader reading from db with the given chapter and bulk
// settings.
func NewLoader(db Source, cfg *config.Config, opts ...Option) *Loader {
	l := &Loader{
		db:          db,
		concurrency: 1,
		probe:       ffprobe.Chapters,
		logger:      logging.NewComponentLogger(nil, "mediactx"),
	}
	if cfg != nil {
		l.chapters = cfg.Chapters
		l.concurrency = cfg.Bulk.Concurrency
	}
	if l.concurrency <= 0 {
		l.concurrency = 1
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the markers and chapters of one item. A failed chapter lookup
// is logged and leaves the chapter list empty.
func (l *Loader) Load(ctx context.Context, id int64) (Media, error) {
	ctx = logging.WithMetadataID(ctx, id)
	item, err := l.db.Item(ctx, id)
	if err != nil {
		return Media{}, err
	}
	if !item.Type.HasMarkers() {
		return Media{}, fmt.Errorf("metadata item %d is a %s; markers belong to movies and episodes", id, item.Type)
	}
	list, err := l.db.Markers(ctx, id)
	if err != nil {
		return Media{}, err
	}

	media := Media{Item: item, Data: timeexpr.MediaData{Markers: markers.SortMarkers(list)}}
	if l.chapters.Enabled {
		l.loadChapters(ctx, &media)
	}
	return media, nil
}

func (l *Loader) loadChapters(ctx context.Context, media *Media) {
	logger := logging.WithContext(ctx, l.logger)
	file, err := l.db.MediaFile(ctx, media.Item.ID)
	if errors.Is(err, plexdb.ErrNotFound) {
		logger.Debug("no media file; skipping chapters")
		media.ChapterWarning = "no media file"
		return
	}
	if err != nil {
		media.ChapterWarning = err.Error()
		logging.WarnWithContext(logger, "media file lookup failed", "media_file_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "chapter references will not resolve"),
		)
		return
	}
	media.File = file

	probeCtx := ctx
	if l.chapters.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, time.Duration(l.chapters.TimeoutSeconds)*time.Second)
		defer cancel()
	}
	chapters, err := l.probe(probeCtx, l.chapters.FFprobeBinary, file)
	if err != nil {
		media.ChapterWarning = err.Error()
		logging.WarnWithContext(logger, "chapter extraction failed", "chapters_failed",
			logging.Error(err),
			logging.String("file", file),
			logging.String(logging.FieldErrorHint, "check chapters.ffprobe_binary and that the file is reachable"),
			logging.String(logging.FieldImpact, "chapter references will not resolve"),
		)
		return
	}
	media.Data.Chapters = chapters
	logger.Debug("loaded chapters", logging.Int("count", len(chapters)))
}

// LoadAll loads many items concurrently and returns them in input order. The
// first failure cancels the remaining loads.
func (l *Loader) LoadAll(ctx context.Context, ids []int64) ([]Media, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	results := make([]Media, len(ids))
	for i, id := range ids {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			media, err := l.Load(ctx, id)
			if err != nil {
				return fmt.Errorf("load %d: %w", id, err)
			}
			results[i] = media
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
