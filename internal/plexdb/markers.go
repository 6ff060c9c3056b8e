package plexdb

import (
	"context"
	"database/sql"
	"fmt"

	"markerexpr/internal/logging"
	"markerexpr/internal/markers"
)

// Markers returns the markers of an item ordered by start time. Rows with a
// marker type this package does not know are skipped.
func (s *DB) Markers(ctx context.Context, metadataID int64) ([]markers.Marker, error) {
	var out []markers.Marker
	var skipped int
	err := s.queryWithRetry(ctx,
		func() { out, skipped = out[:0], 0 },
		func(rows *sql.Rows) error {
			var (
				m     markers.Marker
				text  string
				start sql.NullInt64
				end   sql.NullInt64
			)
			if err := rows.Scan(&m.ID, &m.MetadataID, &text, &start, &end, &m.Index); err != nil {
				return err
			}
			markerType, err := markers.ParseType(text)
			if err != nil || markerType == markers.TypeAny {
				skipped++
				return nil
			}
			m.Type = markerType
			m.Start = start.Int64
			m.End = end.Int64
			out = append(out, m)
			return nil
		},
		`SELECT id, metadata_item_id, COALESCE(text, ''), time_offset, end_time_offset, COALESCE("index", 0)
		FROM taggings
		WHERE tag_id = ? AND metadata_item_id = ?
		ORDER BY time_offset, end_time_offset, id`,
		s.markerTagID, metadataID,
	)
	if err != nil {
		return nil, fmt.Errorf("load markers for %d: %w", metadataID, err)
	}
	if skipped > 0 {
		s.logger.Debug("skipped markers with unknown type",
			logging.Int64(logging.FieldMetadataID, metadataID),
			logging.Int("skipped", skipped),
		)
	}
	return out, nil
}
