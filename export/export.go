// Package export serialises reconstructed documents for downstream
// consumers: raw HTML, sanitised HTML safe to archive and serve, and
// Markdown for indexing pipelines.
package export

import (
	"bytes"
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// HTML renders the document tree to HTML bytes.
func HTML(doc *html.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("export: render: %w", err)
	}
	return buf.Bytes(), nil
}

// Exporter holds the sanitisation policy and markdown converter. Safe for
// reuse across documents.
type Exporter struct {
	policy      *bluemonday.Policy
	mdConverter *converter.Converter
}

// New creates an Exporter. The sanitisation policy keeps layout-bearing
// markup the engine emits — style attributes for placeholder sizing and
// data attributes for scroll offsets and ignore markers — while stripping
// active content, so archived reconstructions stay inert.
func New() *Exporter {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("style").Globally()
	p.AllowDataAttributes()
	p.AllowImages()
	p.AllowDataURIImages()
	p.AllowElements("html", "head", "body", "base")
	p.AllowAttrs("href").OnElements("base")

	return &Exporter{
		policy: p,
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// SafeHTML renders the document and passes it through the sanitisation
// policy.
func (e *Exporter) SafeHTML(doc *html.Node) ([]byte, error) {
	raw, err := HTML(doc)
	if err != nil {
		return nil, err
	}
	return e.policy.SanitizeBytes(raw), nil
}

// Markdown converts the document to Markdown.
func (e *Exporter) Markdown(doc *html.Node) (string, error) {
	raw, err := HTML(doc)
	if err != nil {
		return "", err
	}
	md, err := e.mdConverter.ConvertString(string(raw))
	if err != nil {
		return "", fmt.Errorf("export: markdown: %w", err)
	}
	return md, nil
}

// MarkdownBytes converts already-rendered HTML to Markdown. Used by
// consumers that read serialised snapshots from the archive.
func (e *Exporter) MarkdownBytes(rawHTML []byte) (string, error) {
	md, err := e.mdConverter.ConvertString(string(rawHTML))
	if err != nil {
		return "", fmt.Errorf("export: markdown: %w", err)
	}
	return md, nil
}
