package history

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedMemoryRepo(t *testing.T, r *MemoryRepo, sessionID string, n int) {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		sub := Submission{
			ID:        sessionID + "-" + string(rune('a'+i)),
			SessionID: sessionID,
			Segmento:  "moda",
			Status:    "processing",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := r.Insert(context.Background(), sub); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
}

func TestMemoryRepoListNewestFirst(t *testing.T) {
	r := NewMemoryRepo()
	seedMemoryRepo(t, r, "sess_1", 3)
	seedMemoryRepo(t, r, "sess_other", 2)

	out, err := r.ListBySession(context.Background(), "sess_1", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].CreatedAt.After(out[i-1].CreatedAt) {
			t.Fatalf("expected newest-first ordering")
		}
	}
}

func TestMemoryRepoListPaging(t *testing.T) {
	r := NewMemoryRepo()
	seedMemoryRepo(t, r, "sess_1", 5)

	page, err := r.ListBySession(context.Background(), "sess_1", 2, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 records, got %d", len(page))
	}

	empty, err := r.ListBySession(context.Background(), "sess_1", 2, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(empty))
	}
}

func TestMemoryRepoFinish(t *testing.T) {
	r := NewMemoryRepo()
	seedMemoryRepo(t, r, "sess_1", 1)

	at := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	if err := r.Finish(context.Background(), "sess_1-a", "completed", "", []byte(`{"insights":2}`), at); err != nil {
		t.Fatalf("finish: %v", err)
	}

	out, _ := r.ListBySession(context.Background(), "sess_1", 10, 0)
	if out[0].Status != "completed" {
		t.Fatalf("expected completed status, got %s", out[0].Status)
	}
	if out[0].CompletedAt == nil || !out[0].CompletedAt.Equal(at) {
		t.Fatalf("expected completed_at set")
	}
	if string(out[0].Summary) != `{"insights":2}` {
		t.Fatalf("expected summary stored, got %s", out[0].Summary)
	}
}

func TestMemoryRepoFinishUnknown(t *testing.T) {
	r := NewMemoryRepo()
	err := r.Finish(context.Background(), "missing", "failed", "boom", nil, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
