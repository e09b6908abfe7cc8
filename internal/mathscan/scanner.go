package mathscan

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// defaultIgnoredTags are elements whose text is never scanned for math.
var defaultIgnoredTags = []string{"script", "noscript", "style", "textarea", "pre", "code", "option"}

// Options configures a Scanner.
type Options struct {
	Delimiters   []Delimiter
	ThrowOnError bool
	IgnoredTags  []string
}

// Option mutates Options.
type Option func(*Options)

// WithDelimiters replaces the delimiter list.
func WithDelimiters(delims []Delimiter) Option {
	return func(o *Options) {
		o.Delimiters = delims
	}
}

// WithThrowOnError makes the first failing region abort the scan.
func WithThrowOnError(throw bool) Option {
	return func(o *Options) {
		o.ThrowOnError = throw
	}
}

// WithIgnoredTags replaces the list of elements that are skipped.
func WithIgnoredTags(tags ...string) Option {
	return func(o *Options) {
		o.IgnoredTags = tags
	}
}

// Scanner rewrites math regions in an HTML tree in place.
type Scanner struct {
	renderer MathRenderer
	opts     Options
	split    *splitter
	ignored  map[string]bool
}

// New creates a Scanner. A nil renderer uses TeXRenderer.
func New(renderer MathRenderer, opts ...Option) *Scanner {
	if renderer == nil {
		renderer = TeXRenderer{}
	}
	o := Options{
		Delimiters:  DefaultDelimiters(),
		IgnoredTags: defaultIgnoredTags,
	}
	for _, opt := range opts {
		opt(&o)
	}

	ignored := make(map[string]bool, len(o.IgnoredTags))
	for _, tag := range o.IgnoredTags {
		ignored[strings.ToLower(tag)] = true
	}

	return &Scanner{
		renderer: renderer,
		opts:     o,
		split:    newSplitter(o.Delimiters),
		ignored:  ignored,
	}
}

// Scan walks root and replaces every math region in its text nodes with
// rendered markup. With ThrowOnError unset it only fails on a nil root.
func (s *Scanner) Scan(root *html.Node) error {
	if root == nil {
		return fmt.Errorf("%w: nil root", ErrMathRender)
	}
	if len(s.opts.Delimiters) == 0 {
		return nil
	}
	return s.walk(root)
}

func (s *Scanner) walk(n *html.Node) error {
	// Capture next before a text node is replaced.
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.TextNode:
			if err := s.rewriteText(c); err != nil {
				return err
			}
		case html.ElementNode:
			if !s.ignored[strings.ToLower(c.Data)] {
				if err := s.walk(c); err != nil {
					return err
				}
			}
		}
		c = next
	}
	return nil
}

// rewriteText replaces a text node with literal and rendered math nodes.
func (s *Scanner) rewriteText(n *html.Node) error {
	segments := s.split.split(n.Data)
	if len(segments) == 1 && !segments[0].Math {
		return nil
	}

	parent := n.Parent
	for _, seg := range segments {
		if !seg.Math {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: seg.Data}, n)
			continue
		}

		nodes, err := s.renderSegment(seg)
		if err != nil {
			if s.opts.ThrowOnError {
				return fmt.Errorf("%w: %q: %v", ErrMathRender, seg.RawData, err)
			}
			nodes = []*html.Node{errorNode(seg.RawData, err)}
		}
		for _, m := range nodes {
			parent.InsertBefore(m, n)
		}
	}
	parent.RemoveChild(n)
	return nil
}

// renderSegment invokes the renderer, converting panics into errors.
func (s *Scanner) renderSegment(seg Segment) (nodes []*html.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			nodes, err = nil, fmt.Errorf("renderer panic: %v", r)
		}
	}()

	markup, err := s.renderer.Render(seg.Data, seg.Display)
	if err != nil {
		return nil, err
	}

	context := &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span}
	return html.ParseFragment(strings.NewReader(markup), context)
}

// errorNode renders the raw source of a failed region as a visible error.
func errorNode(raw string, err error) *html.Node {
	span := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "class", Val: "math-error"},
			{Key: "title", Val: err.Error()},
		},
	}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: raw})
	return span
}
