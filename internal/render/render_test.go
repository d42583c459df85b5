package render

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

func parsePanels(t *testing.T, raw string) *goquery.Document {
	t.Helper()
	html := string(Panels([]byte(raw)))
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse rendered html: %v", err)
	}
	return doc
}

func TestPanelsRendersInsightsAsNumberedList(t *testing.T) {
	doc := parsePanels(t, `{"insights_unificados":["primeiro insight","segundo insight"]}`)

	panel := doc.Find("section#panel-insights_unificados")
	if panel.Length() != 1 {
		t.Fatalf("expected one insights panel, got %d", panel.Length())
	}
	if got := panel.Find("h3").Text(); got != "Insights Unificados" {
		t.Fatalf("unexpected panel title %q", got)
	}

	items := panel.Find("ol.numbered li")
	if items.Length() != 2 {
		t.Fatalf("expected 2 list items, got %d", items.Length())
	}
	if got := items.First().Text(); got != "primeiro insight" {
		t.Fatalf("unexpected first item %q", got)
	}
}

func TestPanelsSkipsAbsentSections(t *testing.T) {
	doc := parsePanels(t, `{"avatar_unificado":{"nome":"Maria"},"campo_estranho":{"x":1}}`)

	if doc.Find("section.result-panel").Length() != 1 {
		t.Fatalf("expected exactly one panel for the single known section")
	}
	if doc.Find("#panel-avatar_unificado").Length() != 1 {
		t.Fatalf("expected the avatar panel")
	}
	if doc.Find("#panel-campo_estranho").Length() != 0 {
		t.Fatalf("unknown keys must not produce panels")
	}
}

func TestPanelsEscapesScriptContent(t *testing.T) {
	raw := `{"insights_unificados":["<script>alert('xss')</script>"]}`
	html := string(Panels([]byte(raw)))

	if strings.Contains(html, "<script>") {
		t.Fatalf("script tag survived escaping: %s", html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse rendered html: %v", err)
	}
	if doc.Find("script").Length() != 0 {
		t.Fatalf("rendered document must not contain script elements")
	}
	// The payload is still shown to the user, as text.
	if got := doc.Find("ol.numbered li").First().Text(); got != "<script>alert('xss')</script>" {
		t.Fatalf("expected escaped payload shown as text, got %q", got)
	}
}

func TestPanelsUnwrapsDataEnvelope(t *testing.T) {
	doc := parsePanels(t, `{"data":{"insights_unificados":["a"]}}`)
	if doc.Find("#panel-insights_unificados ol.numbered li").Length() != 1 {
		t.Fatalf("expected section lookup to fall back into the data envelope")
	}
}

func TestPanelsObjectFieldsAndNesting(t *testing.T) {
	doc := parsePanels(t, `{"avatar_unificado":{"nome_completo":"Maria Silva","dores":["preço alto"]}}`)

	panel := doc.Find("#panel-avatar_unificado")
	field := panel.Find("p.field").First()
	if !strings.Contains(field.Text(), "Nome Completo:") {
		t.Fatalf("expected humanized field label, got %q", field.Text())
	}
	if !strings.Contains(field.Text(), "Maria Silva") {
		t.Fatalf("expected field value, got %q", field.Text())
	}

	sub := panel.Find("div.sub-block")
	if got := sub.Find("h4").Text(); got != "Dores" {
		t.Fatalf("expected nested block heading Dores, got %q", got)
	}
	if sub.Find("ol.numbered li").Length() != 1 {
		t.Fatalf("expected nested list item")
	}
}

func TestPanelsFallsBackToRawDump(t *testing.T) {
	doc := parsePanels(t, `{"algo_inesperado":true}`)

	if doc.Find("#panel-raw").Length() != 1 {
		t.Fatalf("expected raw fallback panel when no known section is present")
	}
	if !strings.Contains(doc.Find("#panel-raw pre").Text(), "algo_inesperado") {
		t.Fatalf("expected raw JSON dump in fallback panel")
	}
}

func TestSummarize(t *testing.T) {
	raw := []byte(`{"avatar_unificado":{},"insights_unificados":["a","b","c"]}`)
	summary := gjson.ParseBytes(Summarize(raw))

	if got := summary.Get("insights").Int(); got != 3 {
		t.Fatalf("expected 3 insights, got %d", got)
	}
	keys := summary.Get("sections").Array()
	if len(keys) != 2 {
		t.Fatalf("expected 2 present sections, got %d", len(keys))
	}
	if keys[0].String() != "avatar_unificado" || keys[1].String() != "insights_unificados" {
		t.Fatalf("unexpected section order: %v", keys)
	}
}

func TestHumanizeKey(t *testing.T) {
	cases := map[string]string{
		"nome_completo":      "Nome Completo",
		"avatar":             "Avatar",
		"análise_forense":    "Análise Forense",
		"campo__com_vazio":   "Campo  Com Vazio",
	}
	for in, want := range cases {
		if got := humanizeKey(in); got != want {
			t.Errorf("humanizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
