package history

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is the in-process fallback used when no database is configured.
type MemoryRepo struct {
	mu   sync.Mutex
	subs map[string]Submission
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{subs: make(map[string]Submission)}
}

// Insert stores a new submission record.
func (r *MemoryRepo) Insert(_ context.Context, sub Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.ID] = sub
	return nil
}

// Finish marks a submission as settled.
func (r *MemoryRepo) Finish(_ context.Context, id, status, errMsg string, summary []byte, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return ErrNotFound
	}
	sub.Status = status
	sub.Error = errMsg
	if summary != nil {
		sub.Summary = append([]byte(nil), summary...)
	}
	completed := at
	sub.CompletedAt = &completed
	r.subs[id] = sub
	return nil
}

// ListBySession returns the session's submissions, newest first.
func (r *MemoryRepo) ListBySession(_ context.Context, sessionID string, limit, offset int) ([]Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Submission
	for _, sub := range r.subs {
		if sub.SessionID == sessionID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
