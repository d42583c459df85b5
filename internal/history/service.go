package history

import (
	"context"
	"time"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Service records the submission trail and serves the history listing.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// RecordStart inserts the initial record for a dispatched submission.
func (s *Service) RecordStart(ctx context.Context, id, sessionID, segmento, analysisType string, at time.Time) error {
	return s.Repo.Insert(ctx, Submission{
		ID:           id,
		SessionID:    sessionID,
		Segmento:     segmento,
		AnalysisType: analysisType,
		Status:       "processing",
		CreatedAt:    at,
	})
}

// RecordFinish settles a submission record.
func (s *Service) RecordFinish(ctx context.Context, id, status, errMsg string, summary []byte, at time.Time) error {
	return s.Repo.Finish(ctx, id, status, errMsg, summary, at)
}

// List returns the session's submissions, newest first, with clamped paging.
func (s *Service) List(ctx context.Context, sessionID string, limit, offset int) ([]Submission, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListBySession(ctx, sessionID, limit, offset)
}
