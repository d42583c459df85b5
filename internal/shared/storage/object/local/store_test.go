package local

import (
	"context"
	"io"
	"strings"
	"testing"

	"analysis-console/internal/shared/util"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir())

	key, size, mimeType, err := store.Save(context.Background(), "sess_1", "relatorio.pdf", strings.NewReader("%PDF-1.4 conteúdo"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if size != int64(len("%PDF-1.4 conteúdo")) {
		t.Fatalf("unexpected size %d", size)
	}
	if mimeType == "" {
		t.Fatalf("expected sniffed mime type")
	}
	if !strings.HasPrefix(key, util.HashSessionKey("sess_1")) {
		t.Fatalf("expected key namespaced by hashed session, got %q", key)
	}

	rc, err := store.Open(context.Background(), key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "%PDF-1.4 conteúdo" {
		t.Fatalf("round trip mismatch: %q", data)
	}
}

func TestSaveRejectsTraversalName(t *testing.T) {
	store := New(t.TempDir())
	if _, _, _, err := store.Save(context.Background(), "sess_1", "../escape.pdf", strings.NewReader("x")); err == nil {
		t.Fatalf("expected traversal name to be rejected")
	}
}

func TestOpenRejectsTraversalKey(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Open(context.Background(), "../outside"); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
}
