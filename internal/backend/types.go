package backend

import (
	"encoding/json"
	"fmt"
)

// ProgressState is the server-reported progress of a running analysis.
type ProgressState struct {
	Step       int     `json:"step"`
	Message    string  `json:"message"`
	Percentage float64 `json:"percentage"`
}

// DiagnosticsResult is the shared response shape of the backend self-test and
// status endpoints.
type DiagnosticsResult struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message,omitempty"`
	Results      json.RawMessage `json:"results,omitempty"`
	Capabilities json.RawMessage `json:"capabilities,omitempty"`
	Systems      json.RawMessage `json:"systems,omitempty"`
}

// APIError is an application-level error reported by the backend, either via a
// non-2xx status or an error/message field in an otherwise valid body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend error (status %d)", e.StatusCode)
}

// ErrorMessage extracts the user-facing message from err. Application errors
// surface the backend's own wording; anything else gets the generic fallback.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := err.(*APIError); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return GenericErrorMessage
}

// GenericErrorMessage is shown when the backend gave no usable error detail.
const GenericErrorMessage = "Erro desconhecido ao processar a análise"
