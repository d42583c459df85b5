package history

import (
	"encoding/json"
	"errors"
	"time"
)

// Submission is one recorded analysis submission for a session.
type Submission struct {
	ID           string          `json:"id"`
	SessionID    string          `json:"sessionId"`
	Segmento     string          `json:"segmento"`
	AnalysisType string          `json:"analysisType"`
	Status       string          `json:"status"`
	Error        string          `json:"error,omitempty"`
	Summary      json.RawMessage `json:"summary,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
}

// ErrNotFound indicates the submission does not exist.
var ErrNotFound = errors.New("submission not found")
