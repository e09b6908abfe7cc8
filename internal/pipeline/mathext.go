package pipeline

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-md2docx/internal/mathscan"
)

// KindMathInline and KindMathBlock identify passthrough math nodes.
var (
	KindMathInline = ast.NewNodeKind("MathInline")
	KindMathBlock  = ast.NewNodeKind("MathBlock")
)

// MathInline is a math region within a line, delimiters included.
type MathInline struct {
	ast.BaseInline
	Raw []byte
}

// Kind implements ast.Node.
func (n *MathInline) Kind() ast.NodeKind { return KindMathInline }

// Dump implements ast.Node.
func (n *MathInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Raw": string(n.Raw)}, nil)
}

// MathBlock is a display region spanning several lines.
type MathBlock struct {
	ast.BaseBlock
	Delimiter mathscan.Delimiter
	Source    []byte
	Closed    bool
}

// Kind implements ast.Node.
func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

// Dump implements ast.Node.
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Source": string(n.Source)}, nil)
}

var (
	_ ast.Node = (*MathInline)(nil)
	_ ast.Node = (*MathBlock)(nil)
)

// triggers returns the distinct first bytes of the opening delimiters.
func triggers(delims []mathscan.Delimiter, displayOnly bool) []byte {
	var out []byte
	for _, d := range delims {
		if d.Left == "" || (displayOnly && !d.Display) {
			continue
		}
		if bytes.IndexByte(out, d.Left[0]) == -1 {
			out = append(out, d.Left[0])
		}
	}
	return out
}

type mathInlineParser struct {
	delims []mathscan.Delimiter
}

var _ parser.InlineParser = (*mathInlineParser)(nil)

func (p *mathInlineParser) Trigger() []byte {
	return triggers(p.delims, false)
}

func (p *mathInlineParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	_, n, ok := mathscan.Match(string(line), p.delims)
	if !ok {
		return nil
	}
	node := &MathInline{Raw: append([]byte(nil), line[:n]...)}
	block.Advance(n)
	return node
}

// mathBlockParser opens on a line starting with a display opener whose
// closer is on a later line.
type mathBlockParser struct {
	delims []mathscan.Delimiter
}

var _ parser.BlockParser = (*mathBlockParser)(nil)

func (p *mathBlockParser) Trigger() []byte {
	return triggers(p.delims, true)
}

func (p *mathBlockParser) Open(_ ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos >= len(line) {
		return nil, parser.NoChildren
	}
	trimmed := bytes.TrimRight(line[pos:], " \t\r\n")

	for _, d := range p.delims {
		if !d.Display || !bytes.HasPrefix(trimmed, []byte(d.Left)) {
			continue
		}
		after := trimmed[len(d.Left):]
		if bytes.Contains(after, []byte(d.Right)) {
			// Single-line region: left to the inline parser.
			return nil, parser.NoChildren
		}
		if !bytes.Contains(reader.Source()[segment.Stop:], []byte(d.Right)) {
			return nil, parser.NoChildren
		}

		node := &MathBlock{Delimiter: d}
		if len(bytes.TrimSpace(after)) > 0 {
			node.Source = append(node.Source, after...)
			node.Source = append(node.Source, '\n')
		}
		return node, parser.NoChildren
	}
	return nil, parser.NoChildren
}

func (p *mathBlockParser) Continue(node ast.Node, reader text.Reader, _ parser.Context) parser.State {
	n := node.(*MathBlock)
	line, _ := reader.PeekLine()
	if line == nil {
		return parser.Close
	}

	if idx := bytes.Index(line, []byte(n.Delimiter.Right)); idx >= 0 {
		n.Source = append(n.Source, line[:idx]...)
		n.Closed = true
		// Text after the closer is left for the next block.
		reader.Advance(idx + len(n.Delimiter.Right))
		return parser.Close
	}

	n.Source = append(n.Source, line...)
	return parser.Continue | parser.NoChildren
}

func (p *mathBlockParser) Close(ast.Node, text.Reader, parser.Context) {}

func (p *mathBlockParser) CanInterruptParagraph() bool { return true }

func (p *mathBlockParser) CanAcceptIndentedLine() bool { return false }

// mathHTMLRenderer writes math regions back verbatim, HTML-escaped.
type mathHTMLRenderer struct{}

var _ renderer.NodeRenderer = (*mathHTMLRenderer)(nil)

func (r *mathHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMathInline, r.renderInline)
	reg.Register(KindMathBlock, r.renderBlock)
}

func (r *mathHTMLRenderer) renderInline(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.Write(util.EscapeHTML(node.(*MathInline).Raw))
	}
	return ast.WalkSkipChildren, nil
}

func (r *mathHTMLRenderer) renderBlock(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	n := node.(*MathBlock)
	_, _ = w.WriteString(`<div class="math-block">`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.Delimiter.Left)))
	_, _ = w.Write(util.EscapeHTML(n.Source))
	if n.Closed {
		_, _ = w.Write(util.EscapeHTML([]byte(n.Delimiter.Right)))
	}
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

// MathPassthrough is a goldmark extension that keeps math regions out of
// markdown processing so emphasis and escapes never alter them.
type MathPassthrough struct {
	Delimiters []mathscan.Delimiter
}

// Extend implements goldmark.Extender.
func (e *MathPassthrough) Extend(m goldmark.Markdown) {
	delims := e.Delimiters
	if delims == nil {
		delims = mathscan.DefaultDelimiters()
	}

	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(&mathBlockParser{delims: delims}, 701)),
		parser.WithInlineParsers(util.Prioritized(&mathInlineParser{delims: delims}, 501)),
	)
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&mathHTMLRenderer{}, 501),
	))
}

var _ goldmark.Extender = (*MathPassthrough)(nil)
