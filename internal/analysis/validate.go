package analysis

// Analysis types understood by the validator. Unknown types fall back to the
// complete ruleset, which needs only the market segment.
const (
	TypeComplete      = "complete"
	TypeForensicCPL   = "forensic_cpl"
	TypeVisceralLeads = "visceral_leads"
	TypePrePitch      = "pre_pitch"
)

const (
	minTranscriptionChars = 500
	minLeadsDataChars     = 200
)

// FieldError flags a single form field that failed validation.
type FieldError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// Validate applies the per-type required-field rules. It returns the offending
// fields and an ok flag so callers can abort without treating validation as an
// exceptional condition. A failed validation must never reach the backend.
func Validate(req Request) ([]FieldError, bool) {
	var errs []FieldError

	if req.Fields["segmento"] == "" {
		errs = append(errs, FieldError{Field: "segmento", Issue: "O campo \"segmento\" é obrigatório para análise"})
	}

	switch req.AnalysisType() {
	case TypeForensicCPL:
		if len([]rune(req.Fields["transcription"])) < minTranscriptionChars {
			errs = append(errs, FieldError{Field: "transcription", Issue: "A transcrição precisa de pelo menos 500 caracteres"})
		}
	case TypeVisceralLeads:
		if len([]rune(req.Fields["leads_data"])) < minLeadsDataChars {
			errs = append(errs, FieldError{Field: "leads_data", Issue: "Os dados de leads precisam de pelo menos 200 caracteres"})
		}
	case TypePrePitch:
		if req.Fields["drivers_list"] == "" {
			errs = append(errs, FieldError{Field: "drivers_list", Issue: "A lista de drivers é obrigatória para o pré-pitch"})
		}
	}

	return errs, len(errs) == 0
}
