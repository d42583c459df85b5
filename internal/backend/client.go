package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const defaultTimeout = 30 * time.Second

// Client talks to the unified analysis backend over its JSON HTTP boundary.
// Analysis submissions may run for minutes, so the underlying http.Client has
// no global timeout; short calls get a per-request deadline instead.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// New constructs a Client for the given base URL. timeout bounds the short
// calls (progress, diagnostics, save); pass 0 for the default.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

// Analyze submits the analysis request and blocks until the backend responds.
// The caller owns the deadline. The unified route is preferred; the legacy
// route is tried when the unified one is not deployed.
func (c *Client) Analyze(ctx context.Context, payload map[string]string) (json.RawMessage, error) {
	status, raw, err := c.postJSON(ctx, "/api/unified/analyze_unified", payload)
	if err == nil && status == http.StatusNotFound {
		status, raw, err = c.postJSON(ctx, "/api/analyze", payload)
	}
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	if appErr := applicationError(status, raw); appErr != nil {
		return nil, appErr
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &APIError{StatusCode: status, Message: GenericErrorMessage}
	}
	return json.RawMessage(raw), nil
}

// Progress fetches the backend-reported progress for a session.
func (c *Client) Progress(ctx context.Context, sessionID string) (ProgressState, error) {
	ctx, cancel := c.ensureDeadline(ctx)
	defer cancel()

	status, raw, err := c.get(ctx, "/api/progress/get_progress/"+sessionID)
	if err == nil && status == http.StatusNotFound {
		status, raw, err = c.get(ctx, "/api/progress/"+sessionID)
	}
	if err != nil {
		return ProgressState{}, fmt.Errorf("progress: %w", err)
	}
	if appErr := applicationError(status, raw); appErr != nil {
		return ProgressState{}, appErr
	}

	node := gjson.GetBytes(raw, "progress")
	if !node.Exists() {
		node = gjson.ParseBytes(raw)
	}
	return ProgressState{
		Step:       int(node.Get("step").Int()),
		Message:    node.Get("message").String(),
		Percentage: node.Get("percentage").Float(),
	}, nil
}

// GeneratePDF posts the analysis result to the PDF endpoint and returns the
// binary report.
func (c *Client) GeneratePDF(ctx context.Context, result json.RawMessage) ([]byte, error) {
	ctx, cancel := c.ensureDeadline(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate_pdf", bytes.NewReader(result))
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("generate pdf: read body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode != http.StatusOK || strings.Contains(contentType, "application/json") {
		if appErr := applicationError(resp.StatusCode, raw); appErr != nil {
			return nil, appErr
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: GenericErrorMessage}
	}
	return raw, nil
}

// SaveAnalysis posts the analysis result to the backend's save endpoint.
func (c *Client) SaveAnalysis(ctx context.Context, result json.RawMessage) error {
	ctx, cancel := c.ensureDeadline(ctx)
	defer cancel()

	status, raw, err := c.post(ctx, "/api/save_analysis", result)
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	if appErr := applicationError(status, raw); appErr != nil {
		return appErr
	}
	return nil
}

// TestSearch exercises the backend's search provider.
func (c *Client) TestSearch(ctx context.Context, body map[string]string) (DiagnosticsResult, error) {
	return c.diagnosticsPost(ctx, "/api/unified/test_exa", body)
}

// TestExtraction exercises the backend's PDF text extraction.
func (c *Client) TestExtraction(ctx context.Context, body map[string]string) (DiagnosticsResult, error) {
	return c.diagnosticsPost(ctx, "/api/unified/test_pymupdf", body)
}

// SearchUnified runs a unified search round trip.
func (c *Client) SearchUnified(ctx context.Context, body map[string]string) (DiagnosticsResult, error) {
	return c.diagnosticsPost(ctx, "/api/unified/search_unified", body)
}

// ResetSystem asks the backend to reset its subsystems.
func (c *Client) ResetSystem(ctx context.Context) (DiagnosticsResult, error) {
	return c.diagnosticsPost(ctx, "/api/unified/reset_system", nil)
}

// Capabilities fetches the backend's capability report.
func (c *Client) Capabilities(ctx context.Context) (DiagnosticsResult, error) {
	return c.diagnosticsGet(ctx, "/api/unified/capabilities")
}

// SystemStatus fetches the backend's subsystem status report.
func (c *Client) SystemStatus(ctx context.Context) (DiagnosticsResult, error) {
	return c.diagnosticsGet(ctx, "/api/unified/system_status")
}

func (c *Client) diagnosticsPost(ctx context.Context, path string, body map[string]string) (DiagnosticsResult, error) {
	ctx, cancel := c.ensureDeadline(ctx)
	defer cancel()

	status, raw, err := c.postJSON(ctx, path, body)
	return parseDiagnostics(path, status, raw, err)
}

func (c *Client) diagnosticsGet(ctx context.Context, path string) (DiagnosticsResult, error) {
	ctx, cancel := c.ensureDeadline(ctx)
	defer cancel()

	status, raw, err := c.get(ctx, path)
	return parseDiagnostics(path, status, raw, err)
}

func parseDiagnostics(path string, status int, raw []byte, err error) (DiagnosticsResult, error) {
	if err != nil {
		return DiagnosticsResult{}, fmt.Errorf("diagnostics %s: %w", path, err)
	}
	if appErr := applicationError(status, raw); appErr != nil {
		return DiagnosticsResult{}, appErr
	}
	var out DiagnosticsResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return DiagnosticsResult{}, fmt.Errorf("diagnostics %s: decode: %w", path, err)
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (int, []byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal payload: %w", err)
		}
	}
	return c.post(ctx, path, body)
}

func (c *Client) post(ctx context.Context, path string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func (c *Client) ensureDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// applicationError inspects a response for failure, either via status or an
// error indicator in the body. Success bodies may carry an informational
// message, so only an explicit success:false or an error field marks a 2xx
// response as failed.
func applicationError(status int, raw []byte) *APIError {
	parsed := gjson.ParseBytes(raw)
	errField := parsed.Get("error")
	success := parsed.Get("success")
	failed := success.Exists() && !success.Bool()

	ok := status >= 200 && status < 300
	if ok && !errField.Exists() && !failed {
		return nil
	}

	msg := ""
	if errField.Type == gjson.String {
		msg = errField.Str
	}
	if msg == "" {
		msg = parsed.Get("message").String()
	}
	if msg == "" {
		msg = GenericErrorMessage
	}
	return &APIError{StatusCode: status, Message: msg}
}
