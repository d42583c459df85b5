// Package render converts the loosely-typed analysis result JSON into HTML
// panels. No schema is enforced: sections come from a fixed allowlist and
// whichever are present get rendered. Every dynamic string is escaped before
// insertion.
package render

import (
	"encoding/json"
	"html/template"
	"strings"

	"github.com/tidwall/gjson"
)

type section struct {
	Key   string
	Title string
}

// sections is the allowlist of top-level result keys, rendered in this order.
var sections = []section{
	{"metadata_final", "Metadados da Análise"},
	{"pesquisa_unificada", "Pesquisa Unificada"},
	{"avatar_unificado", "Avatar Unificado"},
	{"drivers_mentais_customizados", "Drivers Mentais Customizados"},
	{"sistema_anti_objecao", "Sistema Anti-Objeção"},
	{"pre_pitch_invisivel", "Pré-Pitch Invisível"},
	{"predicoes_futuro_completas", "Predições de Futuro"},
	{"insights_unificados", "Insights Unificados"},
	{"analise_forense_cpl", "Análise Forense de CPL"},
	{"engenharia_reversa_psicologica", "Engenharia Reversa Psicológica"},
}

const maxDepth = 8

// Panels renders the result JSON as a sequence of section panels. Absent
// sections are skipped silently; a result with no recognized section at all
// falls back to a single raw panel so the user still sees something.
func Panels(raw []byte) template.HTML {
	parsed := gjson.ParseBytes(raw)

	var b strings.Builder
	found := false
	for _, sec := range sections {
		node := lookupSection(parsed, sec.Key)
		if !node.Exists() {
			continue
		}
		found = true
		b.WriteString(`<section class="result-panel" id="panel-` + sec.Key + `">`)
		b.WriteString(`<h3>` + template.HTMLEscapeString(sec.Title) + `</h3>`)
		writeValue(&b, node, 0)
		b.WriteString(`</section>`)
	}

	if !found {
		b.WriteString(`<section class="result-panel" id="panel-raw">`)
		b.WriteString(`<h3>Resultado</h3><pre>`)
		b.WriteString(template.HTMLEscapeString(prettyJSON(raw)))
		b.WriteString(`</pre></section>`)
	}

	return template.HTML(b.String())
}

// Summarize produces a compact JSON summary of a result for history records:
// which allowlisted sections are present and how many insights came back.
func Summarize(raw []byte) []byte {
	parsed := gjson.ParseBytes(raw)

	present := make([]string, 0, len(sections))
	for _, sec := range sections {
		if lookupSection(parsed, sec.Key).Exists() {
			present = append(present, sec.Key)
		}
	}

	summary := map[string]any{
		"sections": present,
		"insights": len(lookupSection(parsed, "insights_unificados").Array()),
	}
	out, err := json.Marshal(summary)
	if err != nil {
		return nil
	}
	return out
}

// lookupSection resolves a section key at the top level, falling back into the
// "data" envelope some backend routes wrap results in.
func lookupSection(parsed gjson.Result, key string) gjson.Result {
	if node := parsed.Get(key); node.Exists() {
		return node
	}
	return parsed.Get("data." + key)
}

func writeValue(b *strings.Builder, v gjson.Result, depth int) {
	if depth > maxDepth {
		b.WriteString(`<pre>` + template.HTMLEscapeString(v.Raw) + `</pre>`)
		return
	}

	switch {
	case v.IsArray():
		b.WriteString(`<ol class="numbered">`)
		v.ForEach(func(_, item gjson.Result) bool {
			b.WriteString(`<li>`)
			if item.IsObject() || item.IsArray() {
				writeValue(b, item, depth+1)
			} else {
				b.WriteString(template.HTMLEscapeString(item.String()))
			}
			b.WriteString(`</li>`)
			return true
		})
		b.WriteString(`</ol>`)
	case v.IsObject():
		v.ForEach(func(key, item gjson.Result) bool {
			label := template.HTMLEscapeString(humanizeKey(key.String()))
			if item.IsObject() || item.IsArray() {
				b.WriteString(`<div class="sub-block"><h4>` + label + `</h4>`)
				writeValue(b, item, depth+1)
				b.WriteString(`</div>`)
			} else {
				b.WriteString(`<p class="field"><strong>` + label + `:</strong> `)
				b.WriteString(template.HTMLEscapeString(item.String()))
				b.WriteString(`</p>`)
			}
			return true
		})
	default:
		b.WriteString(`<p>` + template.HTMLEscapeString(v.String()) + `</p>`)
	}
}

// humanizeKey turns a snake_case key into a display label.
func humanizeKey(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r := []rune(p)
		parts[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(parts, " ")
}

func prettyJSON(raw []byte) string {
	var buf strings.Builder
	var tmp any
	if err := json.Unmarshal(raw, &tmp); err != nil {
		return string(raw)
	}
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tmp); err != nil {
		return string(raw)
	}
	return strings.TrimRight(buf.String(), "\n")
}
