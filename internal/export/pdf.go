// Package export handles the PDF report path: sanity-checking the binary the
// backend returns and archiving a copy before it is handed to the browser.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ledongthuc/pdf"

	"analysis-console/internal/shared/storage/object"
)

// ErrNotPDF means the backend returned something that is not a PDF document.
var ErrNotPDF = errors.New("response is not a PDF document")

var pdfMagic = []byte("%PDF-")

// ValidatePDF checks that data is a parseable PDF before it is offered as a
// download. A JSON error body or truncated stream fails here instead of
// reaching the user as a corrupt file.
func ValidatePDF(data []byte) (err error) {
	if len(data) == 0 {
		return ErrNotPDF
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return ErrNotPDF
	}
	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parse pdf: %v", rec)
		}
	}()
	if _, parseErr := pdf.NewReader(bytes.NewReader(data), int64(len(data))); parseErr != nil {
		return fmt.Errorf("parse pdf: %w", parseErr)
	}
	return nil
}

// ArchiveReport stores a copy of the generated report under the session's
// namespace and returns the storage key.
func ArchiveReport(ctx context.Context, store object.ObjectStore, sessionID string, data []byte, at time.Time) (string, error) {
	name := fmt.Sprintf("relatorio_%s.pdf", at.UTC().Format("20060102_150405"))
	key, _, _, err := store.Save(ctx, sessionID, name, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("archive report: %w", err)
	}
	return key, nil
}
