package pipeline

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/alnah/go-md2docx/internal/mathscan"
)

// Highlight placeholders use Unicode Private Use Area characters so they
// pass through Goldmark unchanged without enabling raw HTML.
const (
	MarkStartPlaceholder = "\uE000" // U+E000
	MarkEndPlaceholder   = "\uE001" // U+E001
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	highlightPattern   = regexp.MustCompile(`==(.*?)==`)
)

// FrontMatter is the metadata block at the top of a document, if any.
type FrontMatter struct {
	Title  string         `yaml:"title" toml:"title" json:"title"`
	Author string         `yaml:"author" toml:"author" json:"author"`
	Custom map[string]any `yaml:",inline" toml:"-" json:"-"`
}

// Prepared is preprocessed markdown ready for conversion.
type Prepared struct {
	Markdown string
	Meta     FrontMatter
}

// MarkdownPreprocessor prepares source text for conversion.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) (Prepared, error)
}

// CommonMarkPreprocessor applies transformations before CommonMark conversion.
type CommonMarkPreprocessor struct {
	// Delimiters protects math regions from the highlight rewrite.
	// Nil uses mathscan.DefaultDelimiters.
	Delimiters []mathscan.Delimiter
}

// PreprocessMarkdown strips front matter, normalizes line endings, converts
// ==highlight== outside math and compresses runs of blank lines.
func (p *CommonMarkPreprocessor) PreprocessMarkdown(ctx context.Context, content string) (Prepared, error) {
	if err := ctx.Err(); err != nil {
		return Prepared{}, err
	}

	content = normalizeLineEndings(content)

	meta, body := stripFrontMatter(content)

	delims := p.Delimiters
	if delims == nil {
		delims = mathscan.DefaultDelimiters()
	}
	body = convertHighlights(body, delims)
	body = compressBlankLines(body)

	return Prepared{Markdown: body, Meta: meta}, nil
}

// stripFrontMatter removes a leading YAML or TOML block. Content without
// a well-formed block is returned unchanged, so a leading thematic break
// still renders as one.
func stripFrontMatter(content string) (FrontMatter, string) {
	if !strings.HasPrefix(content, "---") && !strings.HasPrefix(content, "+++") {
		return FrontMatter{}, content
	}

	var meta FrontMatter
	body, err := frontmatter.Parse(strings.NewReader(content), &meta)
	if err != nil {
		return FrontMatter{}, content
	}
	return meta, string(bytes.TrimLeft(body, "\n"))
}

func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// compressBlankLines limits consecutive blank lines to 2 maximum.
func compressBlankLines(content string) string {
	return multipleBlankLines.ReplaceAllString(content, "\n\n")
}

// convertHighlights transforms ==text== to placeholder markers in the
// literal parts of content; math regions are left as written.
func convertHighlights(content string, delims []mathscan.Delimiter) string {
	if !strings.Contains(content, "==") {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))
	for _, seg := range mathscan.Split(content, delims) {
		if seg.Math {
			b.WriteString(seg.RawData)
			continue
		}
		b.WriteString(highlightPattern.ReplaceAllString(seg.Data, MarkStartPlaceholder+"$1"+MarkEndPlaceholder))
	}
	return b.String()
}

// ConvertMarkPlaceholders converts placeholder markers to <mark> tags.
func ConvertMarkPlaceholders(content string) string {
	return strings.ReplaceAll(
		strings.ReplaceAll(content, MarkStartPlaceholder, "<mark>"),
		MarkEndPlaceholder, "</mark>",
	)
}
