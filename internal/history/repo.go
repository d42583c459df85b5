package history

import (
	"context"
	"time"
)

// Repo persists submission records.
type Repo interface {
	Insert(ctx context.Context, sub Submission) error
	Finish(ctx context.Context, id, status, errMsg string, summary []byte, at time.Time) error
	ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]Submission, error)
}
