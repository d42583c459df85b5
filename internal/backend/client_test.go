package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAnalyzeReturnsBody(t *testing.T) {
	var gotPath string
	var gotPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"insights_unificados":["a"]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	raw, err := c.Analyze(context.Background(), map[string]string{"segmento": "moda", "session_id": "sess_1"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if gotPath != "/api/unified/analyze_unified" {
		t.Fatalf("expected unified route, got %s", gotPath)
	}
	if gotPayload["segmento"] != "moda" {
		t.Fatalf("payload not forwarded: %v", gotPayload)
	}
	if string(raw) != `{"insights_unificados":["a"]}` {
		t.Fatalf("unexpected body %s", raw)
	}
}

func TestAnalyzeFallsBackToLegacyRoute(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/api/unified/analyze_unified" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if _, err := c.Analyze(context.Background(), map[string]string{"segmento": "moda"}); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(paths) != 2 || paths[1] != "/api/analyze" {
		t.Fatalf("expected fallback to /api/analyze, got %v", paths)
	}
}

func TestAnalyzeApplicationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"Motor de análise indisponível"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Analyze(context.Background(), map[string]string{"segmento": "moda"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "Motor de análise indisponível" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestAnalyzeErrorFieldTakesPrecedence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"falha interna","message":"outro texto"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Analyze(context.Background(), map[string]string{"segmento": "moda"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "falha interna" {
		t.Fatalf("expected error field to win, got %q", apiErr.Message)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
}

func TestAnalyzeEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Analyze(context.Background(), map[string]string{"segmento": "moda"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != GenericErrorMessage {
		t.Fatalf("expected generic error for empty body, got %v", err)
	}
}

func TestProgressParsesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/progress/get_progress/sess_9" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"progress":{"step":4,"message":"Analisando concorrência","percentage":33.5}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	state, err := c.Progress(context.Background(), "sess_9")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if state.Step != 4 || state.Message != "Analisando concorrência" || state.Percentage != 33.5 {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestProgressTopLevelFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/progress/get_progress/sess_9" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"step":2,"message":"Coletando dados","percentage":15}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	state, err := c.Progress(context.Background(), "sess_9")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if state.Step != 2 || state.Percentage != 15 {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestGeneratePDFRejectsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"PDF generator offline"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.GeneratePDF(context.Background(), json.RawMessage(`{}`))
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "PDF generator offline" {
		t.Fatalf("expected API error from JSON body, got %v", err)
	}
}

func TestGeneratePDFReturnsBinary(t *testing.T) {
	blob := []byte("%PDF-1.4 fake")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(blob)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	got, err := c.GeneratePDF(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("generate pdf: %v", err)
	}
	if string(got) != string(blob) {
		t.Fatalf("unexpected blob %q", got)
	}
}

func TestSaveAnalysis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/save_analysis" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if err := c.SaveAnalysis(context.Background(), json.RawMessage(`{"a":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestDiagnosticsDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/unified/capabilities" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"capabilities":{"search":true}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	out, err := c.Capabilities(context.Background())
	if err != nil {
		t.Fatalf("capabilities: %v", err)
	}
	if !out.Success || len(out.Capabilities) == 0 {
		t.Fatalf("unexpected result %+v", out)
	}
}

func TestApplicationErrorSuccessWithMessage(t *testing.T) {
	// An informational message on a 2xx success body is not an error.
	if err := applicationError(200, []byte(`{"success":true,"message":"Análise salva"}`)); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := applicationError(200, []byte(`{"status":"ok"}`)); err != nil {
		t.Fatalf("expected nil for plain success body, got %v", err)
	}
	if err := applicationError(500, []byte(``)); err == nil || err.Message != GenericErrorMessage {
		t.Fatalf("expected generic error for empty 500, got %v", err)
	}
}
