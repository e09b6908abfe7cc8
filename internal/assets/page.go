package assets

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sort"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
)

// KaTeXVersion is the KaTeX release loaded from the CDN.
const KaTeXVersion = "0.16.9"

// PageData is the per-request content of the page.
type PageData struct {
	Title    string
	Preview  template.HTML // rendered surface, already sanitized by the pipeline
	Markdown string
	Label    string
	// ClearPrompt is asked before clearing the buffer.
	ClearPrompt string
	// Live enables the editing controls and the WebSocket channel.
	Live bool
}

type pageView struct {
	PageData
	Style     template.CSS
	Highlight template.CSS
	KaTeX     string
}

// PageOption configures a Page.
type PageOption func(*pageConfig)

type pageConfig struct {
	style          string
	template       string
	highlightStyle string
}

// WithStyle selects the stylesheet by name.
func WithStyle(name string) PageOption {
	return func(c *pageConfig) { c.style = name }
}

// WithTemplate selects the page template by name.
func WithTemplate(name string) PageOption {
	return func(c *pageConfig) { c.template = name }
}

// WithHighlightStyle selects the chroma style for code blocks.
func WithHighlightStyle(name string) PageOption {
	return func(c *pageConfig) { c.highlightStyle = name }
}

// Page renders the preview page. Safe for concurrent use after creation.
type Page struct {
	tmpl      *template.Template
	style     template.CSS
	highlight template.CSS
}

// NewPage loads the stylesheet and template from loader and prepares the
// chroma stylesheet.
func NewPage(loader AssetLoader, opts ...PageOption) (*Page, error) {
	cfg := pageConfig{
		style:          DefaultStyleName,
		template:       DefaultTemplateName,
		highlightStyle: "github",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	css, err := loader.LoadStyle(cfg.style)
	if err != nil {
		return nil, err
	}
	src, err := loader.LoadTemplate(cfg.template)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(cfg.template).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %q: %v", ErrPageRender, cfg.template, err)
	}
	highlight, err := HighlightCSS(cfg.highlightStyle)
	if err != nil {
		return nil, err
	}

	return &Page{
		tmpl:      tmpl,
		style:     template.CSS(css),       // #nosec G203 -- trusted asset
		highlight: template.CSS(highlight), // #nosec G203 -- generated by chroma
	}, nil
}

// Render writes the page for data to w.
func (p *Page) Render(w io.Writer, data PageData) error {
	if data.Title == "" {
		data.Title = "Markdown to DOCX"
	}
	if data.ClearPrompt == "" {
		data.ClearPrompt = "Are you sure you want to clear all content?"
	}
	view := pageView{
		PageData:  data,
		Style:     p.style,
		Highlight: p.highlight,
		KaTeX:     "https://cdn.jsdelivr.net/npm/katex@" + KaTeXVersion + "/dist",
	}
	if err := p.tmpl.Execute(w, view); err != nil {
		return fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	return nil
}

// HighlightCSS returns the stylesheet for code highlighted with CSS classes
// in the named chroma style.
func HighlightCSS(name string) (string, error) {
	style, ok := chromastyles.Registry[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownHighlightStyle, name)
	}

	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, style); err != nil {
		return "", fmt.Errorf("writing highlight css: %w", err)
	}
	return buf.String(), nil
}

// HighlightStyles lists the available chroma style names, sorted.
func HighlightStyles() []string {
	names := make([]string, 0, len(chromastyles.Registry))
	for name := range chromastyles.Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
