package console

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"analysis-console/internal/backend"
	"analysis-console/internal/shared/server/respond"
)

// Diagnostics are isolated backend round trips with no retry: the outcome is
// reported as-is.

func (h *Handler) diagTestSearch(c *gin.Context) {
	h.diagPost(c, h.Diag.TestSearch)
}

func (h *Handler) diagTestExtraction(c *gin.Context) {
	h.diagPost(c, h.Diag.TestExtraction)
}

func (h *Handler) diagSearchUnified(c *gin.Context) {
	h.diagPost(c, h.Diag.SearchUnified)
}

func (h *Handler) diagReset(c *gin.Context) {
	result, err := h.Diag.ResetSystem(c.Request.Context())
	h.diagRespond(c, result, err)
}

func (h *Handler) diagCapabilities(c *gin.Context) {
	result, err := h.Diag.Capabilities(c.Request.Context())
	h.diagRespond(c, result, err)
}

func (h *Handler) diagStatus(c *gin.Context) {
	result, err := h.Diag.SystemStatus(c.Request.Context())
	h.diagRespond(c, result, err)
}

func (h *Handler) diagPost(c *gin.Context, call func(context.Context, map[string]string) (backend.DiagnosticsResult, error)) {
	body := map[string]string{}
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
			respond.Error(c, http.StatusBadRequest, "bad_request", "Corpo da requisição inválido", nil)
			return
		}
	}
	result, err := call(c.Request.Context(), body)
	h.diagRespond(c, result, err)
}

func (h *Handler) diagRespond(c *gin.Context, result backend.DiagnosticsResult, err error) {
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "diagnostics_failed", backend.ErrorMessage(err), nil)
		return
	}
	respond.OK(c, result)
}
