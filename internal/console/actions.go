package console

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"analysis-console/internal/backend"
	"analysis-console/internal/export"
	"analysis-console/internal/shared/server/respond"
	"analysis-console/internal/shared/telemetry"
)

// downloadPDF posts the cached result to the PDF endpoint and streams the
// report back as an attachment. The blob is validated before it goes out and
// a copy is archived locally; archive failures only log.
func (h *Handler) downloadPDF(c *gin.Context) {
	sessionID := c.Param("session")
	raw, ok := h.cachedResult(c)
	if !ok {
		return
	}

	blob, err := h.Exporter.GeneratePDF(c.Request.Context(), raw)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "pdf_failed", backend.ErrorMessage(err), nil)
		return
	}

	if err := export.ValidatePDF(blob); err != nil {
		telemetry.Error("pdf.invalid_blob", map[string]any{"session_id": sessionID, "error": err.Error()})
		respond.Error(c, http.StatusBadGateway, "pdf_invalid", "O relatório PDF retornado está corrompido", nil)
		return
	}

	if h.Store != nil {
		if key, err := export.ArchiveReport(c.Request.Context(), h.Store, sessionID, blob, h.now()); err != nil {
			telemetry.Warn("pdf.archive_failed", map[string]any{"session_id": sessionID, "error": err.Error()})
		} else {
			telemetry.Info("pdf.archived", map[string]any{"session_id": sessionID, "storage_key": key})
		}
	}

	fileName := fmt.Sprintf("analise_%s.pdf", h.now().UTC().Format("20060102_150405"))
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, "application/pdf", blob)
}

// saveResult pushes the cached result to the backend's save endpoint.
func (h *Handler) saveResult(c *gin.Context) {
	raw, ok := h.cachedResult(c)
	if !ok {
		return
	}

	if err := h.Exporter.SaveAnalysis(c.Request.Context(), raw); err != nil {
		respond.Error(c, http.StatusBadGateway, "save_failed", backend.ErrorMessage(err), nil)
		return
	}
	respond.OK(c, gin.H{"success": true})
}
