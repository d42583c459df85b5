// Package console is the browser-facing surface: the analysis form, the
// progress/result pages, and the JSON endpoints the pages use.
package console

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"analysis-console/internal/analysis"
	"analysis-console/internal/backend"
	"analysis-console/internal/history"
	"analysis-console/internal/render"
	"analysis-console/internal/shared/server/respond"
	"analysis-console/internal/shared/session"
	"analysis-console/internal/shared/storage/object"
)

// DiagnosticsClient is the slice of the backend client behind the self-test
// endpoints.
type DiagnosticsClient interface {
	TestSearch(ctx context.Context, body map[string]string) (backend.DiagnosticsResult, error)
	TestExtraction(ctx context.Context, body map[string]string) (backend.DiagnosticsResult, error)
	SearchUnified(ctx context.Context, body map[string]string) (backend.DiagnosticsResult, error)
	ResetSystem(ctx context.Context) (backend.DiagnosticsResult, error)
	Capabilities(ctx context.Context) (backend.DiagnosticsResult, error)
	SystemStatus(ctx context.Context) (backend.DiagnosticsResult, error)
}

// Exporter is the slice of the backend client behind the PDF and save actions.
type Exporter interface {
	GeneratePDF(ctx context.Context, result json.RawMessage) ([]byte, error)
	SaveAnalysis(ctx context.Context, result json.RawMessage) error
}

// HistoryLister serves the submission history listing.
type HistoryLister interface {
	List(ctx context.Context, sessionID string, limit, offset int) ([]history.Submission, error)
}

// Handler wires HTTP handlers to the dispatcher and backend client.
type Handler struct {
	Svc           *analysis.Service
	Diag          DiagnosticsClient
	Exporter      Exporter
	History       HistoryLister
	Store         object.ObjectStore
	PublicBaseURL string

	now func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(svc *analysis.Service, diag DiagnosticsClient, exporter Exporter, hist HistoryLister, store object.ObjectStore, publicBaseURL string) *Handler {
	return &Handler{
		Svc:           svc,
		Diag:          diag,
		Exporter:      exporter,
		History:       hist,
		Store:         store,
		PublicBaseURL: publicBaseURL,
		now:           time.Now,
	}
}

// RegisterRoutes attaches page and API routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.indexPage)
	r.POST("/analyze", h.analyzeForm)
	r.GET("/result/:session", h.resultPage)

	api := r.Group("/api")
	api.POST("/analyze", h.analyzeAPI)
	api.GET("/progress/:session", h.progressAPI)
	api.GET("/progress/:session/stream", h.progressStream)
	api.GET("/result/:session", h.resultJSON)
	api.GET("/result/:session/share", h.sharePayload)
	api.POST("/result/:session/pdf", h.downloadPDF)
	api.POST("/result/:session/save", h.saveResult)
	api.GET("/history", h.listHistory)

	diag := api.Group("/diagnostics")
	diag.POST("/search", h.diagTestSearch)
	diag.POST("/extraction", h.diagTestExtraction)
	diag.POST("/search_unified", h.diagSearchUnified)
	diag.POST("/reset", h.diagReset)
	diag.GET("/capabilities", h.diagCapabilities)
	diag.GET("/status", h.diagStatus)
}

// indexPage renders the analysis form.
func (h *Handler) indexPage(c *gin.Context) {
	c.HTML(http.StatusOK, "index", gin.H{
		"Fields": map[string]string{},
		"Errors": map[string]string{},
		"Flash":  c.Query("flash"),
	})
}

// analyzeForm handles the HTML form submission. Validation failures re-render
// the form with the offending fields flagged and never touch the backend.
func (h *Handler) analyzeForm(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		respond.Error(c, http.StatusBadRequest, "bad_request", "Formulário inválido", nil)
		return
	}

	sessionID := session.FromContext(c)
	req := analysis.BuildRequest(c.Request.PostForm, sessionID, h.now())
	c.Set("analysisType", req.AnalysisType())

	if fieldErrs, ok := analysis.Validate(req); !ok {
		errMap := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			errMap[fe.Field] = fe.Issue
		}
		c.HTML(http.StatusBadRequest, "index", gin.H{
			"Fields": req.Fields,
			"Errors": errMap,
			"Flash":  "",
		})
		return
	}

	if _, err := h.Svc.Submit(req); err != nil {
		if errors.Is(err, analysis.ErrInFlight) {
			c.Redirect(http.StatusSeeOther, "/result/"+sessionID+"?flash=in_flight")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "Não foi possível iniciar a análise", nil)
		return
	}

	c.Redirect(http.StatusSeeOther, "/result/"+sessionID)
}

// resultPage shows progress while the submission runs, the rendered panels
// once it completes, or the error panel with a retry link when it fails.
func (h *Handler) resultPage(c *gin.Context) {
	sessionID := c.Param("session")
	sub, ok := h.Svc.Submission(sessionID)
	if !ok {
		c.HTML(http.StatusNotFound, "notfound", gin.H{"SessionID": sessionID})
		return
	}

	data := gin.H{
		"SessionID": sessionID,
		"Status":    string(sub.Status),
		"Segmento":  sub.Segmento,
		"Flash":     flashMessage(c.Query("flash")),
	}

	switch {
	case sub.Status == analysis.StatusFailed:
		data["Error"] = sub.Error
		c.HTML(http.StatusOK, "result", data)
	case sub.Done():
		raw, err := h.Svc.Result(sessionID)
		if err != nil {
			c.HTML(http.StatusNotFound, "notfound", gin.H{"SessionID": sessionID})
			return
		}
		data["Panels"] = render.Panels(raw)
		c.HTML(http.StatusOK, "result", data)
	default:
		state, _ := h.Svc.Progress(sessionID)
		data["Progress"] = state
		c.HTML(http.StatusOK, "result", data)
	}
}

func flashMessage(code string) string {
	switch code {
	case "in_flight":
		return "Uma análise já está em andamento para esta sessão. Aguarde a conclusão."
	default:
		return ""
	}
}
