package console

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"analysis-console/internal/analysis"
	"analysis-console/internal/history"
	"analysis-console/internal/shared/server/respond"
	"analysis-console/internal/shared/session"
)

// analyzeAPI is the JSON flavor of submission. The body is a flat map of form
// field → value; unknown fields are dropped and the session comes from the
// console session, not the payload.
func (h *Handler) analyzeAPI(c *gin.Context) {
	var body map[string]string
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "bad_request", "Dados não fornecidos", nil)
		return
	}

	form := make(url.Values, len(body))
	for k, v := range body {
		form.Set(k, v)
	}

	sessionID := session.FromContext(c)
	req := analysis.BuildRequest(form, sessionID, h.now())
	c.Set("analysisType", req.AnalysisType())

	if fieldErrs, ok := analysis.Validate(req); !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Preencha os campos obrigatórios", fieldErrs)
		return
	}

	sub, err := h.Svc.Submit(req)
	if err != nil {
		if errors.Is(err, analysis.ErrInFlight) {
			respond.Error(c, http.StatusConflict, "in_flight", "Uma análise já está em andamento para esta sessão", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "Não foi possível iniciar a análise", nil)
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"sessionId": sub.SessionID,
		"status":    sub.Status,
	})
}

// progressAPI returns the latest progress snapshot for the session.
func (h *Handler) progressAPI(c *gin.Context) {
	sessionID := c.Param("session")
	sub, ok := h.Svc.Submission(sessionID)
	if !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "Sessão não encontrada", nil)
		return
	}

	state, _ := h.Svc.Progress(sessionID)
	respond.OK(c, gin.H{
		"progress": state,
		"status":   sub.Status,
	})
}

// resultJSON serves the cached result as formatted JSON text, backing the
// clipboard copy action. No backend round trip happens here.
func (h *Handler) resultJSON(c *gin.Context) {
	raw, ok := h.cachedResult(c)
	if !ok {
		return
	}

	var indented json.RawMessage
	var buf []byte
	if err := json.Unmarshal(raw, &indented); err == nil {
		buf, _ = json.MarshalIndent(indented, "", "  ")
	}
	if buf == nil {
		buf = raw
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf)
}

// sharePayload returns the title/text/url triple for the platform share
// capability; the URL doubles as the clipboard fallback.
func (h *Handler) sharePayload(c *gin.Context) {
	sessionID := c.Param("session")
	if _, ok := h.cachedResult(c); !ok {
		return
	}

	sub, _ := h.Svc.Submission(sessionID)
	title := "Análise de Mercado"
	if sub.Segmento != "" {
		title += " — " + sub.Segmento
	}
	respond.OK(c, gin.H{
		"title": title,
		"text":  "Análise de mercado gerada pelo console de análise",
		"url":   h.PublicBaseURL + "/result/" + sessionID,
	})
}

// listHistory lists the console's own submission records for the session.
func (h *Handler) listHistory(c *gin.Context) {
	sessionID := session.FromContext(c)

	limit := 0
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	subs, err := h.History.List(c.Request.Context(), sessionID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Não foi possível listar o histórico", nil)
		return
	}
	if subs == nil {
		subs = []history.Submission{}
	}
	respond.OK(c, gin.H{"analyses": subs})
}

// cachedResult fetches the session's retained result, answering with the
// standard warning when there is none. Actions must short-circuit without a
// network request in that case.
func (h *Handler) cachedResult(c *gin.Context) (json.RawMessage, bool) {
	sessionID := c.Param("session")
	raw, err := h.Svc.Result(sessionID)
	if err != nil {
		respond.Error(c, http.StatusConflict, "no_result", "Nenhuma análise disponível. Execute uma análise primeiro.", nil)
		return nil, false
	}
	return raw, true
}
