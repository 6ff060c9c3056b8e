package plexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ItemType mirrors metadata_items.metadata_type.
type ItemType int

const (
	ItemMovie   ItemType = 1
	ItemShow    ItemType = 2
	ItemSeason  ItemType = 3
	ItemEpisode ItemType = 4
)

func (t ItemType) String() string {
	switch t {
	case ItemMovie:
		return "movie"
	case ItemShow:
		return "show"
	case ItemSeason:
		return "season"
	case ItemEpisode:
		return "episode"
	default:
		return fmt.Sprintf("type_%d", int(t))
	}
}

func (t ItemType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// HasMarkers reports whether items of this type carry markers directly.
func (t ItemType) HasMarkers() bool {
	return t == ItemMovie || t == ItemEpisode
}

// Item is a row of metadata_items.
type Item struct {
	ID       int64    `json:"id" yaml:"id"`
	ParentID int64    `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Type     ItemType `json:"type" yaml:"type"`
	Title    string   `json:"title" yaml:"title"`
	Index    int      `json:"index" yaml:"index"`
}

const itemColumns = `id, COALESCE(parent_id, 0), metadata_type, COALESCE(title, ''), COALESCE("index", 0)`

func scanItem(scanner interface{ Scan(...any) error }) (Item, error) {
	var item Item
	var itemType int
	if err := scanner.Scan(&item.ID, &item.ParentID, &itemType, &item.Title, &item.Index); err != nil {
		return Item{}, err
	}
	item.Type = ItemType(itemType)
	return item, nil
}

// Item returns the metadata item with the given id.
func (s *DB) Item(ctx context.Context, id int64) (Item, error) {
	ctx = ensureContext(ctx)
	var item Item
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM metadata_items WHERE id = ?`, id)
		var scanErr error
		item, scanErr = scanItem(row)
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, fmt.Errorf("metadata item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Item{}, fmt.Errorf("load metadata item %d: %w", id, err)
	}
	return item, nil
}

// Children returns the direct children of an item ordered by index.
func (s *DB) Children(ctx context.Context, id int64) ([]Item, error) {
	var items []Item
	err := s.queryWithRetry(ctx,
		func() { items = items[:0] },
		func(rows *sql.Rows) error {
			item, err := scanItem(rows)
			if err != nil {
				return err
			}
			items = append(items, item)
			return nil
		},
		`SELECT `+itemColumns+` FROM metadata_items WHERE parent_id = ? ORDER BY "index", id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("load children of %d: %w", id, err)
	}
	return items, nil
}

// Episodes expands an item into the items that carry markers. Shows expand
// to every episode of every season, seasons to their episodes, and movies and
// episodes to themselves.
func (s *DB) Episodes(ctx context.Context, id int64) ([]Item, error) {
	item, err := s.Item(ctx, id)
	if err != nil {
		return nil, err
	}
	switch item.Type {
	case ItemMovie, ItemEpisode:
		return []Item{item}, nil
	case ItemSeason:
		children, err := s.Children(ctx, id)
		if err != nil {
			return nil, err
		}
		return filterType(children, ItemEpisode), nil
	case ItemShow:
		seasons, err := s.Children(ctx, id)
		if err != nil {
			return nil, err
		}
		var episodes []Item
		for _, season := range filterType(seasons, ItemSeason) {
			children, err := s.Children(ctx, season.ID)
			if err != nil {
				return nil, err
			}
			episodes = append(episodes, filterType(children, ItemEpisode)...)
		}
		return episodes, nil
	default:
		return nil, fmt.Errorf("metadata item %d has unsupported type %s", id, item.Type)
	}
}

func filterType(items []Item, want ItemType) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Type == want {
			out = append(out, item)
		}
	}
	return out
}

// MediaFile returns the path of the first media part of an item.
func (s *DB) MediaFile(ctx context.Context, metadataID int64) (string, error) {
	ctx = ensureContext(ctx)
	var file string
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `
			SELECT mp.file
			FROM media_parts mp
			JOIN media_items mi ON mp.media_item_id = mi.id
			WHERE mi.metadata_item_id = ? AND COALESCE(mp.file, '') <> ''
			ORDER BY mi.id, mp.id
			LIMIT 1`, metadataID).Scan(&file)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("media file for %d: %w", metadataID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("load media file for %d: %w", metadataID, err)
	}
	return file, nil
}
