package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func int64Ptr(v int64) *int64 { return &v }

func TestRecordAndList(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "state", "history.json"), 10, nil)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := store.Record(ctx, Entry{Expression: "=I1S+5000", MetadataID: 11, ResultMs: int64Ptr(5000), UsedAt: base}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, Entry{Expression: "1:30", UsedAt: base.Add(time.Minute)}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Expression != "1:30" || entries[1].Expression != "=I1S+5000" {
		t.Fatalf("unexpected order: %+v", entries)
	}
	if entries[1].ResultMs == nil || *entries[1].ResultMs != 5000 {
		t.Fatalf("result not persisted: %+v", entries[1])
	}
	if entries[0].ResultMs != nil {
		t.Fatalf("expected no result for plain entry, got %d", *entries[0].ResultMs)
	}
}

func TestRecordMovesDuplicateToFront(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "history.json"), 10, nil)
	ctx := context.Background()
	base := time.Now().UTC()

	for i, expr := range []string{"=I1", "=C1", "=I1"} {
		if err := store.Record(ctx, Entry{Expression: expr, MetadataID: 11, UsedAt: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	// same expression on the other side is a separate entry
	if err := store.Record(ctx, Entry{Expression: "=I1", MetadataID: 11, IsEnd: true, UsedAt: base.Add(5 * time.Second)}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %+v", entries)
	}
	if !entries[0].IsEnd || entries[1].Expression != "=I1" || entries[2].Expression != "=C1" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestRecordCapsEntries(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "history.json"), 3, nil)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, Entry{Expression: fmt.Sprintf("%d", i*1000)}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Expression != "4000" {
		t.Fatalf("expected newest first, got %q", entries[0].Expression)
	}
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := New(path, 10, nil)
	ctx := context.Background()
	if err := store.Record(ctx, Entry{Expression: "=M1"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty history, got %+v", entries)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected history file to remain: %v", err)
	}
}

func TestRecordRejectsEmptyExpression(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "history.json"), 10, nil)
	if err := store.Record(context.Background(), Entry{Expression: "  "}); err == nil {
		t.Fatal("expected error for empty expression")
	}
}

func TestEmptyPathIsNoop(t *testing.T) {
	store := New("", 10, nil)
	ctx := context.Background()
	if err := store.Record(ctx, Entry{Expression: "=I1"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	entries, err := store.List(ctx)
	if err != nil || entries != nil {
		t.Fatalf("expected nil entries, got %+v, %v", entries, err)
	}
}

func TestCorruptFileIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	store := New(path, 10, nil)
	ctx := context.Background()
	if _, err := store.List(ctx); err == nil {
		t.Fatal("expected List to report corrupt file")
	}
	if err := store.Record(ctx, Entry{Expression: "=A1"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	entries, err := store.List(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected 1 entry after recovery, got %+v, %v", entries, err)
	}
}

func TestConcurrentRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store := New(path, 50, nil)
			if err := store.Record(ctx, Entry{Expression: fmt.Sprintf("=I%d", i+1)}); err != nil {
				t.Errorf("Record failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	entries, err := New(path, 50, nil).List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(entries))
	}
}
