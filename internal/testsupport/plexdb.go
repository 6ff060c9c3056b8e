package testsupport

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"markerexpr/internal/plexdb"
)

// PlexItem is a metadata_items row.
type PlexItem struct {
	ID       int64
	ParentID int64
	Type     plexdb.ItemType
	Title    string
	Index    int
	// File adds a media_items/media_parts pair pointing at this path.
	File string
}

// PlexMarker is a marker tagging. Type is the raw taggings.text value.
type PlexMarker struct {
	MetadataID int64
	Type       string
	Start, End int64
}

// PlexFixture describes the rows seeded by NewPlexDB.
type PlexFixture struct {
	Items   []PlexItem
	Markers []PlexMarker
	// NoMarkerTag omits the marker tag row.
	NoMarkerTag bool
}

const plexSchema = `
CREATE TABLE metadata_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	library_section_id INTEGER,
	parent_id INTEGER,
	metadata_type INTEGER,
	title VARCHAR(255) DEFAULT '',
	"index" INTEGER
);
CREATE TABLE tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tag VARCHAR(255),
	tag_type INTEGER
);
CREATE TABLE taggings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	metadata_item_id INTEGER,
	tag_id INTEGER,
	"index" INTEGER,
	text VARCHAR(255),
	time_offset INTEGER,
	end_time_offset INTEGER,
	thumb_url VARCHAR(255),
	created_at INTEGER,
	extra_data VARCHAR(255)
);
CREATE TABLE media_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	metadata_item_id INTEGER
);
CREATE TABLE media_parts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	media_item_id INTEGER,
	file VARCHAR(255)
);
`

// NewPlexDB writes a SQLite file containing the subset of the Plex library
// schema read by plexdb, seeded from fixture, and returns its path.
func NewPlexDB(t testing.TB, fixture PlexFixture) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "com.plexapp.plugins.library.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	mustExec := func(query string, args ...any) sql.Result {
		t.Helper()
		res, err := db.ExecContext(ctx, query, args...)
		if err != nil {
			t.Fatalf("fixture exec %q: %v", query, err)
		}
		return res
	}

	mustExec(plexSchema)
	// an unrelated tag first so the marker tag id is not trivially 1
	mustExec(`INSERT INTO tags (tag, tag_type) VALUES ('Comedy', 1)`)
	var markerTagID int64
	if !fixture.NoMarkerTag {
		res := mustExec(`INSERT INTO tags (tag, tag_type) VALUES ('', 12)`)
		if markerTagID, err = res.LastInsertId(); err != nil {
			t.Fatalf("marker tag id: %v", err)
		}
	}

	for _, item := range fixture.Items {
		var parent any
		if item.ParentID != 0 {
			parent = item.ParentID
		}
		mustExec(`INSERT INTO metadata_items (id, library_section_id, parent_id, metadata_type, title, "index") VALUES (?, 1, ?, ?, ?, ?)`,
			item.ID, parent, int(item.Type), item.Title, item.Index)
		if item.File == "" {
			continue
		}
		res := mustExec(`INSERT INTO media_items (metadata_item_id) VALUES (?)`, item.ID)
		mediaID, err := res.LastInsertId()
		if err != nil {
			t.Fatalf("media item id: %v", err)
		}
		mustExec(`INSERT INTO media_parts (media_item_id, file) VALUES (?, ?)`, mediaID, item.File)
	}

	counts := map[int64]int{}
	for _, m := range fixture.Markers {
		mustExec(`INSERT INTO taggings (metadata_item_id, tag_id, "index", text, time_offset, end_time_offset, created_at)
			VALUES (?, ?, ?, ?, ?, ?, 0)`,
			m.MetadataID, markerTagID, counts[m.MetadataID], m.Type, m.Start, m.End)
		counts[m.MetadataID]++
	}

	return path
}

// MustOpenPlexDB opens path with plexdb and registers cleanup.
func MustOpenPlexDB(t testing.TB, path string) *plexdb.DB {
	t.Helper()

	db, err := plexdb.Open(context.Background(), path, plexdb.Options{})
	if err != nil {
		t.Fatalf("plexdb.Open: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// SampleShow is a show with one season of two episodes and a movie. Episode
// 11 has intro, credits, and a second intro; episode 12 has only credits.
func SampleShow() PlexFixture {
	return PlexFixture{
		Items: []PlexItem{
			{ID: 1, Type: plexdb.ItemShow, Title: "Example Show"},
			{ID: 2, ParentID: 1, Type: plexdb.ItemSeason, Title: "Season 1", Index: 1},
			{ID: 12, ParentID: 2, Type: plexdb.ItemEpisode, Title: "Second", Index: 2, File: "/media/show/s01e02.mkv"},
			{ID: 11, ParentID: 2, Type: plexdb.ItemEpisode, Title: "Pilot", Index: 1, File: "/media/show/s01e01.mkv"},
			{ID: 20, Type: plexdb.ItemMovie, Title: "Feature", File: "/media/movies/feature.mkv"},
		},
		Markers: []PlexMarker{
			{MetadataID: 11, Type: "intro", Start: 200000, End: 300000},
			{MetadataID: 11, Type: "intro", Start: 0, End: 100000},
			{MetadataID: 11, Type: "credits", Start: 100000, End: 200000},
			{MetadataID: 12, Type: "credits", Start: 1200000, End: 1260000},
			{MetadataID: 20, Type: "commercial", Start: 600000, End: 660000},
			{MetadataID: 20, Type: "bookmark", Start: 5000, End: 5000},
		},
	}
}
