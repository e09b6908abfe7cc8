// Package preview turns the markdown buffer into the rendered surface.
//
// Render is the error containment boundary of the live preview: failures in
// preprocessing, conversion or math scanning are logged and shown on the
// surface as a single error node; they never reach the caller.
package preview

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/alnah/go-md2docx/internal/logging"
	"github.com/alnah/go-md2docx/internal/mathscan"
	"github.com/alnah/go-md2docx/internal/pipeline"
	"github.com/alnah/go-md2docx/internal/surface"
)

// Default surface texts.
const (
	DefaultPlaceholder = "Preview content will appear here..."
	DefaultErrorPrefix = "Preview error: "
)

// CSS classes of the nodes Render produces itself.
const (
	PlaceholderClass = "preview-placeholder"
	ErrorClass       = "preview-error"
)

// Scanner rewrites math regions in a rendered tree.
type Scanner interface {
	Scan(root *html.Node) error
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithPreprocessor replaces the markdown preprocessor.
func WithPreprocessor(p pipeline.MarkdownPreprocessor) Option {
	return func(r *Renderer) { r.pre = p }
}

// WithConverter replaces the markdown to HTML converter.
func WithConverter(c pipeline.HTMLConverter) Option {
	return func(r *Renderer) { r.conv = c }
}

// WithScanner replaces the math scanner.
func WithScanner(s Scanner) Option {
	return func(r *Renderer) { r.scanner = s }
}

// WithLogger sets the logger for contained failures.
func WithLogger(l logging.Logger) Option {
	return func(r *Renderer) { r.logger = logging.OrNoOp(l) }
}

// WithPlaceholder sets the text shown for an empty buffer.
func WithPlaceholder(text string) Option {
	return func(r *Renderer) {
		if text != "" {
			r.placeholder = text
		}
	}
}

// WithErrorPrefix sets the text placed before a failure message.
func WithErrorPrefix(prefix string) Option {
	return func(r *Renderer) {
		if prefix != "" {
			r.errorPrefix = prefix
		}
	}
}

// WithLinkPrefix rewrites relative image and link targets under prefix.
func WithLinkPrefix(prefix string) Option {
	return func(r *Renderer) { r.linkPrefix = prefix }
}

// Renderer is the only writer of its surface.
type Renderer struct {
	surface     *surface.Surface
	pre         pipeline.MarkdownPreprocessor
	conv        pipeline.HTMLConverter
	scanner     Scanner
	logger      logging.Logger
	placeholder string
	errorPrefix string
	linkPrefix  string

	mu   sync.Mutex // one render at a time
	meta pipeline.FrontMatter
}

// New creates a Renderer writing to s with goldmark and the default math
// scanner unless overridden.
func New(s *surface.Surface, opts ...Option) *Renderer {
	r := &Renderer{
		surface:     s,
		pre:         &pipeline.CommonMarkPreprocessor{},
		logger:      logging.NoOp(),
		placeholder: DefaultPlaceholder,
		errorPrefix: DefaultErrorPrefix,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.conv == nil {
		r.conv = pipeline.NewGoldmarkConverter()
	}
	if r.scanner == nil {
		r.scanner = mathscan.New(nil)
	}
	return r
}

// Surface returns the surface the renderer writes to.
func (r *Renderer) Surface() *surface.Surface {
	return r.surface
}

// Meta returns the front matter of the last successfully rendered source.
func (r *Renderer) Meta() pipeline.FrontMatter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meta
}

// Render replaces the surface with the rendering of source and notifies
// surface listeners once. A blank source shows the placeholder without
// invoking the pipeline or the scanner.
func (r *Renderer) Render(ctx context.Context, source string) surface.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		r.meta = pipeline.FrontMatter{}
		r.surface.Replace(surface.KindPlaceholder, surface.Paragraph(PlaceholderClass, r.placeholder))
		return r.surface.Publish()
	}

	if err := r.render(ctx, trimmed); err != nil {
		r.logger.Warn("preview render failed", "error", err, "bytes", len(trimmed))
		r.surface.Replace(surface.KindError, surface.Paragraph(ErrorClass, r.errorPrefix+err.Error()))
	}
	return r.surface.Publish()
}

// render runs the pipeline and the scanner. Panics become errors.
func (r *Renderer) render(ctx context.Context, source string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrRenderPanic, rec)
		}
	}()

	prepared, err := r.pre.PreprocessMarkdown(ctx, source)
	if err != nil {
		return err
	}

	fragment, err := r.conv.ToHTML(ctx, prepared.Markdown)
	if err != nil {
		return err
	}

	nodes, err := pipeline.ParseFragment(fragment)
	if err != nil {
		return err
	}

	r.surface.Replace(surface.KindContent, nodes...)
	if err := r.surface.Edit(func(root *html.Node) error {
		pipeline.RewriteRelativePaths(root, r.linkPrefix)
		return r.scanner.Scan(root)
	}); err != nil {
		return err
	}

	r.meta = prepared.Meta
	r.logger.Debug("preview rendered", "bytes", len(source), "nodes", len(nodes))
	return nil
}
