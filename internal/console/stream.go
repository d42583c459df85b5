package console

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"analysis-console/internal/analysis"
	"analysis-console/internal/shared/server/respond"
)

const streamInterval = 2 * time.Second

// progressStream pushes progress snapshots over Server-Sent Events. The
// stream follows the submission, not the page: it ends when the submission
// settles or the client disconnects, whichever comes first.
func (h *Handler) progressStream(c *gin.Context) {
	sessionID := c.Param("session")
	if _, ok := h.Svc.Submission(sessionID); !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "Sessão não encontrada", nil)
		return
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	c.Status(http.StatusOK)

	// First event immediately so the page shows state without waiting a tick.
	if done := h.sendProgressEvent(c, sessionID); done {
		return
	}

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			if done := h.sendProgressEvent(c, sessionID); done {
				return
			}
		}
	}
}

func (h *Handler) sendProgressEvent(c *gin.Context, sessionID string) bool {
	sub, ok := h.Svc.Submission(sessionID)
	if !ok {
		return true
	}
	state, _ := h.Svc.Progress(sessionID)

	event := map[string]any{
		"status":     sub.Status,
		"step":       state.Step,
		"message":    state.Message,
		"percentage": state.Percentage,
	}
	if sub.Status == analysis.StatusFailed {
		event["error"] = sub.Error
	}

	data, err := json.Marshal(event)
	if err != nil {
		return true
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return true
	}
	c.Writer.Flush()

	return sub.Done()
}
