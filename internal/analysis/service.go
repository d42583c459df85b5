package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"analysis-console/internal/backend"
	"analysis-console/internal/render"
	"analysis-console/internal/shared/metrics"
	"analysis-console/internal/shared/telemetry"
)

// Backend is the slice of the backend client the dispatcher needs.
type Backend interface {
	Analyze(ctx context.Context, payload map[string]string) (json.RawMessage, error)
	Progress(ctx context.Context, sessionID string) (backend.ProgressState, error)
}

// HistoryRecorder persists the submission trail. Recording is best-effort;
// failures are logged and never block the analysis flow.
type HistoryRecorder interface {
	RecordStart(ctx context.Context, id, sessionID, segmento, analysisType string, at time.Time) error
	RecordFinish(ctx context.Context, id, status, errMsg string, summary []byte, at time.Time) error
}

// Status is the lifecycle state of a submission.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Submission tracks one analysis request for a session.
type Submission struct {
	ID           string
	SessionID    string
	Segmento     string
	AnalysisType string
	Status       Status
	Error        string
	StartedAt    time.Time
	CompletedAt  time.Time
}

// Done reports whether the submission has settled.
func (s Submission) Done() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

var (
	// ErrInFlight rejects a second submission while one is running for the
	// same session. Callers surface it as a warning, not a failure.
	ErrInFlight = errors.New("analysis already in progress for this session")

	// ErrNoResult means the session has no completed analysis to act on.
	ErrNoResult = errors.New("no analysis result for this session")
)

// Service owns all mutable submission state: the in-flight guard, the last
// result per session, and the latest progress snapshots. One mutex covers all
// of it; handlers never touch shared flags directly.
type Service struct {
	backendClient Backend
	history       HistoryRecorder
	pollInterval  time.Duration
	submitTimeout time.Duration
	now           func() time.Time

	mu          sync.Mutex
	inFlight    map[string]context.CancelFunc
	submissions map[string]Submission
	results     map[string]json.RawMessage
	progress    map[string]backend.ProgressState
}

// NewService constructs the dispatcher. history may be nil.
func NewService(b Backend, history HistoryRecorder, pollInterval, submitTimeout time.Duration) *Service {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if submitTimeout <= 0 {
		submitTimeout = 10 * time.Minute
	}
	return &Service{
		backendClient: b,
		history:       history,
		pollInterval:  pollInterval,
		submitTimeout: submitTimeout,
		now:           time.Now,
		inFlight:      make(map[string]context.CancelFunc),
		submissions:   make(map[string]Submission),
		results:       make(map[string]json.RawMessage),
		progress:      make(map[string]backend.ProgressState),
	}
}

// Submit dispatches an analysis for the session unless one is already in
// flight. The backend call and its progress poller run in the background; the
// poller's lifetime is bound to the request, not to any UI state, and both end
// together when the request settles.
func (s *Service) Submit(req Request) (Submission, error) {
	sessionID := req.SessionID
	now := s.now()

	sub := Submission{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		Segmento:     req.Fields["segmento"],
		AnalysisType: req.AnalysisType(),
		Status:       StatusQueued,
		StartedAt:    now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.submitTimeout)

	s.mu.Lock()
	if _, busy := s.inFlight[sessionID]; busy {
		s.mu.Unlock()
		cancel()
		metrics.IncAnalysisRejected()
		return Submission{}, ErrInFlight
	}
	s.inFlight[sessionID] = cancel
	s.submissions[sessionID] = sub
	s.progress[sessionID] = backend.ProgressState{Step: 0, Message: "Iniciando análise...", Percentage: 0}
	s.mu.Unlock()

	metrics.IncAnalysisSubmitted()
	if s.history != nil {
		if err := s.history.RecordStart(ctx, sub.ID, sessionID, sub.Segmento, sub.AnalysisType, now); err != nil {
			telemetry.Warn("history.record_start_failed", map[string]any{"session_id": sessionID, "error": err.Error()})
		}
	}

	go s.run(ctx, cancel, req)
	return sub, nil
}

func (s *Service) run(ctx context.Context, cancel context.CancelFunc, req Request) {
	defer cancel()
	sessionID := req.SessionID

	s.setStatus(sessionID, StatusProcessing)

	pollCtx, stopPoll := context.WithCancel(ctx)
	go s.poll(pollCtx, sessionID)

	start := s.now()
	raw, err := s.backendClient.Analyze(ctx, req.Payload())
	stopPoll()

	now := s.now()
	s.mu.Lock()
	delete(s.inFlight, sessionID)
	sub := s.submissions[sessionID]
	sub.CompletedAt = now
	if err != nil {
		sub.Status = StatusFailed
		sub.Error = backend.ErrorMessage(err)
	} else {
		sub.Status = StatusCompleted
		s.results[sessionID] = raw
		s.progress[sessionID] = backend.ProgressState{Step: 13, Message: "Análise concluída", Percentage: 100}
	}
	s.submissions[sessionID] = sub
	s.mu.Unlock()

	durationMs := float64(now.Sub(start)) / float64(time.Millisecond)
	metrics.ObserveAnalysisDurationMs(durationMs)

	var summary []byte
	if err != nil {
		metrics.IncAnalysisFailed()
		telemetry.Error("analysis.failed", map[string]any{
			"session_id":    sessionID,
			"analysis_type": sub.AnalysisType,
			"error":         err.Error(),
			"duration_ms":   durationMs,
		})
	} else {
		metrics.IncAnalysisCompleted()
		summary = render.Summarize(raw)
		telemetry.Info("analysis.completed", map[string]any{
			"session_id":    sessionID,
			"analysis_type": sub.AnalysisType,
			"duration_ms":   durationMs,
		})
	}

	if s.history != nil {
		recordCtx, recordCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer recordCancel()
		if err := s.history.RecordFinish(recordCtx, sub.ID, string(sub.Status), sub.Error, summary, now); err != nil {
			telemetry.Warn("history.record_finish_failed", map[string]any{"session_id": sessionID, "error": err.Error()})
		}
	}
}

// poll fetches backend progress on a fixed interval until ctx is cancelled.
// Poll failures are non-fatal: logged, counted, and skipped.
func (s *Service) poll(ctx context.Context, sessionID string) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state, err := s.backendClient.Progress(ctx, sessionID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				metrics.IncProgressPollError()
				telemetry.Warn("progress.poll_failed", map[string]any{"session_id": sessionID, "error": err.Error()})
				continue
			}
			s.mu.Lock()
			s.progress[sessionID] = state
			s.mu.Unlock()
		}
	}
}

// InFlight reports whether the session has a running submission.
func (s *Service) InFlight(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inFlight[sessionID]
	return busy
}

// Submission returns the latest submission for the session.
func (s *Service) Submission(sessionID string) (Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[sessionID]
	return sub, ok
}

// Result returns the session's last successful analysis result. The cached
// copy backs the PDF, copy, share and save actions without re-fetching.
func (s *Service) Result(sessionID string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.results[sessionID]
	if !ok {
		return nil, ErrNoResult
	}
	return raw, nil
}

// Progress returns the latest progress snapshot for the session.
func (s *Service) Progress(sessionID string) (backend.ProgressState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.progress[sessionID]
	return state, ok
}

func (s *Service) setStatus(sessionID string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := s.submissions[sessionID]
	sub.Status = status
	s.submissions[sessionID] = sub
}
