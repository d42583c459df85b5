package analysis

import (
	"net/url"
	"strings"
	"time"
)

// Request is a snapshot of the submitted form: a flat field→value map
// augmented with the session ID and submission timestamp. Requests are
// created per submission and discarded once the submission settles.
type Request struct {
	Fields    map[string]string
	SessionID string
	Timestamp time.Time
}

// formFields is the allowlist of fields collected from the analysis form.
var formFields = []string{
	"segmento",
	"produto",
	"publico",
	"preco",
	"objetivo_receita",
	"orcamento_marketing",
	"prazo_lancamento",
	"concorrentes",
	"dados_adicionais",
	"query",
	"analysis_type",
	"transcription",
	"leads_data",
	"drivers_list",
}

// BuildRequest collects the known form fields into a Request. Unknown fields
// are dropped; values are trimmed but otherwise passed through verbatim.
func BuildRequest(form url.Values, sessionID string, now time.Time) Request {
	fields := make(map[string]string, len(formFields))
	for _, name := range formFields {
		if v := strings.TrimSpace(form.Get(name)); v != "" {
			fields[name] = v
		}
	}
	return Request{
		Fields:    fields,
		SessionID: sessionID,
		Timestamp: now.UTC(),
	}
}

// AnalysisType returns the requested analysis type, defaulting to "complete".
func (r Request) AnalysisType() string {
	if t := r.Fields["analysis_type"]; t != "" {
		return t
	}
	return TypeComplete
}

// Payload is the wire form of the request: all fields plus session_id and an
// ISO-8601 timestamp, as the backend expects.
func (r Request) Payload() map[string]string {
	out := make(map[string]string, len(r.Fields)+3)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["analysis_type"] = r.AnalysisType()
	out["session_id"] = r.SessionID
	out["timestamp"] = r.Timestamp.Format(time.RFC3339)
	return out
}
