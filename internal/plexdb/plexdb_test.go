package plexdb_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"markerexpr/internal/markers"
	"markerexpr/internal/plexdb"
	"markerexpr/internal/testsupport"
)

func TestOpenRequiresMarkerTag(t *testing.T) {
	path := testsupport.NewPlexDB(t, testsupport.PlexFixture{NoMarkerTag: true})
	_, err := plexdb.Open(context.Background(), path, plexdb.Options{})
	if !errors.Is(err, plexdb.ErrNoMarkerTag) {
		t.Fatalf("expected ErrNoMarkerTag, got %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := plexdb.Open(context.Background(), filepath.Join(t.TempDir(), "missing.db"), plexdb.Options{})
	if err == nil {
		t.Fatal("expected error for missing database")
	}
	if _, err := plexdb.Open(context.Background(), "  ", plexdb.Options{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestItemAndNotFound(t *testing.T) {
	db := testsupport.MustOpenPlexDB(t, testsupport.NewPlexDB(t, testsupport.SampleShow()))
	ctx := context.Background()

	item, err := db.Item(ctx, 11)
	if err != nil {
		t.Fatalf("Item returned error: %v", err)
	}
	if item.Type != plexdb.ItemEpisode || item.Title != "Pilot" || item.ParentID != 2 || item.Index != 1 {
		t.Fatalf("unexpected item: %+v", item)
	}

	show, err := db.Item(ctx, 1)
	if err != nil {
		t.Fatalf("Item returned error: %v", err)
	}
	if show.ParentID != 0 {
		t.Fatalf("expected null parent to read as 0, got %d", show.ParentID)
	}

	if _, err := db.Item(ctx, 999); !errors.Is(err, plexdb.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEpisodesExpandsParents(t *testing.T) {
	db := testsupport.MustOpenPlexDB(t, testsupport.NewPlexDB(t, testsupport.SampleShow()))
	ctx := context.Background()

	tests := []struct {
		id   int64
		want []int64
	}{
		{1, []int64{11, 12}},
		{2, []int64{11, 12}},
		{12, []int64{12}},
		{20, []int64{20}},
	}
	for _, tc := range tests {
		items, err := db.Episodes(ctx, tc.id)
		if err != nil {
			t.Fatalf("Episodes(%d) returned error: %v", tc.id, err)
		}
		if len(items) != len(tc.want) {
			t.Fatalf("Episodes(%d) = %+v, want ids %v", tc.id, items, tc.want)
		}
		for i, id := range tc.want {
			if items[i].ID != id {
				t.Fatalf("Episodes(%d)[%d] = %d, want %d", tc.id, i, items[i].ID, id)
			}
		}
	}
}

func TestMarkersOrderedAndTyped(t *testing.T) {
	db := testsupport.MustOpenPlexDB(t, testsupport.NewPlexDB(t, testsupport.SampleShow()))
	ctx := context.Background()

	got, err := db.Markers(ctx, 11)
	if err != nil {
		t.Fatalf("Markers returned error: %v", err)
	}
	want := []struct {
		typ        markers.Type
		start, end int64
	}{
		{markers.TypeIntro, 0, 100000},
		{markers.TypeCredits, 100000, 200000},
		{markers.TypeIntro, 200000, 300000},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d markers, got %+v", len(want), got)
	}
	for i, w := range want {
		if got[i].Type != w.typ || got[i].Start != w.start || got[i].End != w.end || got[i].MetadataID != 11 {
			t.Fatalf("marker %d = %+v, want %+v", i, got[i], w)
		}
	}

	movie, err := db.Markers(ctx, 20)
	if err != nil {
		t.Fatalf("Markers returned error: %v", err)
	}
	if len(movie) != 1 || movie[0].Type != markers.TypeAd {
		t.Fatalf("expected only the commercial marker, got %+v", movie)
	}

	none, err := db.Markers(ctx, 1)
	if err != nil {
		t.Fatalf("Markers returned error: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no markers for show, got %+v", none)
	}
}

func TestMediaFile(t *testing.T) {
	db := testsupport.MustOpenPlexDB(t, testsupport.NewPlexDB(t, testsupport.SampleShow()))
	ctx := context.Background()

	file, err := db.MediaFile(ctx, 11)
	if err != nil {
		t.Fatalf("MediaFile returned error: %v", err)
	}
	if file != "/media/show/s01e01.mkv" {
		t.Fatalf("unexpected file: %q", file)
	}
	if _, err := db.MediaFile(ctx, 1); !errors.Is(err, plexdb.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for show without media, got %v", err)
	}
}

func TestDatabaseIsReadOnly(t *testing.T) {
	path := testsupport.NewPlexDB(t, testsupport.SampleShow())
	db := testsupport.MustOpenPlexDB(t, path)
	if db.Path() != path {
		t.Fatalf("unexpected path: %q", db.Path())
	}
	if err := db.ExecForTest(context.Background(), `UPDATE metadata_items SET title = 'x' WHERE id = 11`); err == nil {
		t.Fatal("expected write to fail on read-only handle")
	}
}

func TestItemTypeString(t *testing.T) {
	if plexdb.ItemSeason.String() != "season" {
		t.Fatalf("unexpected string: %s", plexdb.ItemSeason)
	}
	if !plexdb.ItemEpisode.HasMarkers() || plexdb.ItemShow.HasMarkers() {
		t.Fatal("unexpected HasMarkers result")
	}
}

func TestChildrenOrderedByIndex(t *testing.T) {
	db := testsupport.MustOpenPlexDB(t, testsupport.NewPlexDB(t, testsupport.SampleShow()))

	children, err := db.Children(context.Background(), 2)
	if err != nil {
		t.Fatalf("Children returned error: %v", err)
	}
	if len(children) != 2 || children[0].ID != 11 || children[1].ID != 12 {
		t.Fatalf("unexpected children: %+v", children)
	}
	leaf, err := db.Children(context.Background(), 11)
	if err != nil {
		t.Fatalf("Children returned error: %v", err)
	}
	if len(leaf) != 0 {
		t.Fatalf("expected no children for episode, got %+v", leaf)
	}
}
