package web

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		// Raw HTML passthrough stays disabled (no html.WithUnsafe()).
		html.WithHardWraps(),
	),
)

var exportPage = template.Must(template.New("export").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
{{.Body}}
</body>
</html>
`))

func renderMarkdownHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return template.HTML("")
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	// goldmark output is trusted only because raw HTML is disabled above.
	return template.HTML(b.String())
}

func renderExportPage(title, md string) ([]byte, error) {
	var b bytes.Buffer
	err := exportPage.Execute(&b, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: renderMarkdownHTML(md)})
	return b.Bytes(), err
}
