// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"html"
	"net/http"
	"strings"
)

// --- HTML templates ---

const pageStyle = `<style>
  body { font-family: system-ui, -apple-system, sans-serif; max-width: 900px;
         margin: 0 auto; padding: 40px 20px; color: #222; }
  h1 { margin-bottom: 4px; }
  code { background: #f2f2f2; padding: 2px 6px; border-radius: 3px; font-size: 0.9em; }
  table { border-collapse: collapse; width: 100%%; margin: 8px 0 24px; }
  th, td { text-align: left; padding: 4px 8px; border-bottom: 1px solid #e4e4e4; }
  .card { border: 1px solid #ddd; border-radius: 6px; padding: 12px 16px; margin-bottom: 16px; }
  .type { font-family: monospace; font-weight: 600; font-size: 1.05em; }
  a { color: #1f5fa8; }
</style>`

const notFoundHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>404 &mdash; r2a</title>
` + pageStyle + `
</head>
<body>
<h1>404 &mdash; Not Found</h1>
<p>This is an <code>r2a</code> endpoint. The service lives under <a href="%s/"><code>%s/</code></a>.</p>
</body>
</html>`

const landingHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>r2a</title>
` + pageStyle + `
</head>
<body>
<h1>r2a</h1>
<p>ROS 2 messages to Apache Arrow.</p>
<ul>
<li><a href="%[1]s/describe">Registered message types</a></li>
<li><code>GET %[1]s/schemas</code> lists type ids as JSON</li>
<li><code>GET %[1]s/schemas/&lt;type&gt;</code> returns the Arrow schema as an IPC stream</li>
<li><code>GET %[1]s/__describe__</code> returns every type as an Arrow record batch</li>
<li><code>POST %[1]s/&lt;type&gt;/convert?fields=a,b</code> converts length-prefixed CDR frames</li>
<li><a href="/metrics"><code>/metrics</code></a></li>
</ul>
</body>
</html>`

const describeHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Message types &mdash; r2a</title>
` + pageStyle + `
</head>
<body>
<h1>Message types</h1>
<p>%d registered</p>
%s
</body>
</html>`

// --- Page builders ---

func buildNotFoundHTML(prefix string) []byte {
	p := html.EscapeString(prefix)
	return []byte(fmt.Sprintf(notFoundHTMLTemplate, p, p))
}

func buildLandingHTML(prefix string) []byte {
	return []byte(fmt.Sprintf(landingHTMLTemplate, html.EscapeString(prefix)))
}

// buildDescribeHTML renders the registry as it is now; types may be
// registered after the server starts.
func (s *Server) buildDescribeHTML() []byte {
	names := s.registry.SupportedSchemas()
	var cards strings.Builder
	for _, name := range names {
		schema, err := s.registry.SchemaFor(name)
		if err != nil {
			continue
		}
		buildTypeCard(&cards, Describe(schema))
	}
	return []byte(fmt.Sprintf(describeHTMLTemplate, len(names), cards.String()))
}

func buildTypeCard(w *strings.Builder, d *TypeDescription) {
	w.WriteString(`<div class="card">`)
	fmt.Fprintf(w, `<div class="type">%s</div>`, html.EscapeString(d.Type))
	w.WriteString(`<table><tr><th>Field</th><th>ROS type</th><th>Arrow type</th></tr>`)
	writeFieldRows(w, "", d.Fields)
	w.WriteString(`</table>`)
	w.WriteString(`</div>`)
	w.WriteString("\n")
}

func writeFieldRows(w *strings.Builder, prefix string, fields []*FieldDescription) {
	for _, f := range fields {
		fmt.Fprintf(w, `<tr><td><code>%s%s</code></td><td><code>%s</code></td><td><code>%s</code></td></tr>`,
			html.EscapeString(prefix),
			html.EscapeString(f.Name),
			html.EscapeString(f.SourceType),
			html.EscapeString(f.ArrowType),
		)
		if len(f.Nested) > 0 && !strings.HasSuffix(f.SourceType, "]") {
			writeFieldRows(w, prefix+f.Name+".", f.Nested)
		}
	}
}

// --- HTTP handlers ---

func (s *Server) handleLandingPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.landingHTML)
}

func (s *Server) handleDescribePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.buildDescribeHTML())
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(s.notFoundHTML)
}
