package journal

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/duyld15/mqttcore/internal/infrastructure/database"
)

// ============================================================================
// Test Helpers
// ============================================================================

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "journal.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewSQLiteRepository(context.Background(), db.DB)
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	return repo
}

// ============================================================================
// Append
// ============================================================================

func TestAppend(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	e := &Entry{
		Topic:    "sensors/hall/temp",
		Payload:  []byte(`{"value":21.5}`),
		Retained: true,
	}
	if err := repo.Append(ctx, e); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if e.ID == 0 {
		t.Error("Append() did not assign an ID")
	}
	if e.ReceivedAt.IsZero() {
		t.Error("Append() did not assign ReceivedAt")
	}
}

func TestAppend_PreservesExplicitTimestamp(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	e := &Entry{Topic: "a/b", Payload: []byte("x"), ReceivedAt: ts}
	if err := repo.Append(ctx, e); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(got))
	}
	if !got[0].ReceivedAt.Equal(ts) {
		t.Errorf("ReceivedAt = %v, want %v", got[0].ReceivedAt, ts)
	}
}

// ============================================================================
// List
// ============================================================================

func TestList_NewestFirst(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for _, topic := range []string{"first", "second", "third"} {
		if err := repo.Append(ctx, &Entry{Topic: topic, Payload: []byte(topic)}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d entries, want 3", len(got))
	}
	if got[0].Topic != "third" || got[2].Topic != "first" {
		t.Errorf("List() order = [%s %s %s], want newest first",
			got[0].Topic, got[1].Topic, got[2].Topic)
	}
}

func TestList_TopicFilter(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	entries := []Entry{
		{Topic: "lights/hall", Payload: []byte("on")},
		{Topic: "lights/kitchen", Payload: []byte("off")},
		{Topic: "lights/hall", Payload: []byte("off")},
	}
	for i := range entries {
		if err := repo.Append(ctx, &entries[i]); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := repo.List(ctx, Filter{Topic: "lights/hall"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(got))
	}
	for _, e := range got {
		if e.Topic != "lights/hall" {
			t.Errorf("List() returned topic %q, want lights/hall", e.Topic)
		}
	}
}

func TestList_LimitAndOffset(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.Append(ctx, &Entry{Topic: "t", Payload: []byte{byte(i)}}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := repo.List(ctx, Filter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(got))
	}
	// Newest is payload 4 at offset 0, so offset 1 starts at payload 3.
	if !bytes.Equal(got[0].Payload, []byte{3}) {
		t.Errorf("List() first payload = %v, want [3]", got[0].Payload)
	}
}

func TestList_Empty(t *testing.T) {
	repo := openTestRepo(t)

	got, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List() returned %d entries, want 0", len(got))
	}
}

// ============================================================================
// Count
// ============================================================================

func TestCount(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}

	for i := 0; i < 3; i++ {
		if err := repo.Append(ctx, &Entry{Topic: "t", Payload: []byte("p")}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	n, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}
