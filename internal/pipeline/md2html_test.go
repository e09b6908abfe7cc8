package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// Notes:
// - Output checks use substring matching; goldmark's exact whitespace is
//   not part of the contract.

// ---------------------------------------------------------------------------
// TestGoldmarkConverter_ToHTML - Fragment conversion
// ---------------------------------------------------------------------------

func TestGoldmarkConverter_ToHTML(t *testing.T) {
	t.Parallel()

	converter := NewGoldmarkConverter()

	tests := []struct {
		name         string
		input        string
		wantContains []string
		wantExcludes []string
	}{
		{
			name:         "heading gets id",
			input:        "# Title",
			wantContains: []string{`<h1 id="title">Title</h1>`},
			wantExcludes: []string{"<html", "<body"},
		},
		{
			name:         "inline math survives emphasis",
			input:        "a $x_1 * y_2$ and *c*",
			wantContains: []string{"$x_1 * y_2$", "<em>c</em>"},
			wantExcludes: []string{"<em>1"},
		},
		{
			name:         "bracket math keeps backslashes",
			input:        `see \(a_b\) and \[c\]`,
			wantContains: []string{`\(a_b\)`, `\[c\]`},
		},
		{
			name:         "multi-line display block",
			input:        "before\n\n$$\na < b\n$$\n\nafter",
			wantContains: []string{"<div class=\"math-block\">$$a &lt; b\n$$</div>", "<p>after</p>"},
			wantExcludes: []string{"<p>$$</p>"},
		},
		{
			name:         "text after display closer",
			input:        "$$\na\n$$ after",
			wantContains: []string{"<div class=\"math-block\">$$a\n$$</div>", "<p>after</p>"},
			wantExcludes: []string{"<p>$$", "$$ after"},
		},
		{
			name:         "soft line break stays a newline",
			input:        "inline $a +\nb$ end",
			wantContains: []string{"<p>inline $a +\nb$ end</p>"},
			wantExcludes: []string{"<br"},
		},
		{
			name:         "multi-line bracket block",
			input:        "\\[\nx_1\n\\]\n",
			wantContains: []string{"<div class=\"math-block\">\\[x_1\n\\]</div>"},
		},
		{
			name:         "unclosed display opener stays text",
			input:        "$$\na\n",
			wantContains: []string{"$$"},
			wantExcludes: []string{"math-block"},
		},
		{
			name:         "code span is not math",
			input:        "`$a$`",
			wantContains: []string{"<code>$a$</code>"},
		},
		{
			name:         "fenced code is highlighted",
			input:        "```go\nx := 1\n```",
			wantContains: []string{"chroma"},
		},
		{
			name:         "raw html omitted",
			input:        "<script>alert(1)</script>",
			wantExcludes: []string{"<script>"},
		},
		{
			name:         "gfm table",
			input:        "| a | b |\n|---|---|\n| 1 | 2 |",
			wantContains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:         "highlight placeholders become marks",
			input:        MarkStartPlaceholder + "hi" + MarkEndPlaceholder,
			wantContains: []string{"<mark>hi</mark>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := converter.ToHTML(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("ToHTML() error: %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
			for _, exclude := range tt.wantExcludes {
				if strings.Contains(got, exclude) {
					t.Errorf("output contains %q:\n%s", exclude, got)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestGoldmarkConverter_DisplayBlock - Multi-line regions consume their closer
// ---------------------------------------------------------------------------

func TestGoldmarkConverter_DisplayBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "dollars",
			input: "$$\nx^2\n$$",
			want:  "<div class=\"math-block\">$$x^2\n$$</div>\n",
		},
		{
			name:  "brackets",
			input: "\\[\nE=mc^2\n\\]",
			want:  "<div class=\"math-block\">\\[E=mc^2\n\\]</div>\n",
		},
	}

	converter := NewGoldmarkConverter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := converter.ToHTML(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("ToHTML() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ToHTML(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGoldmarkConverter_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGoldmarkConverter().ToHTML(ctx, "# x")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ToHTML() error = %v, want context.Canceled", err)
	}
}

func TestGoldmarkConverter_CustomDelimiters(t *testing.T) {
	t.Parallel()

	converter := NewGoldmarkConverter(WithMathDelimiters(nil), WithHighlightStyle("monokai"))
	got, err := converter.ToHTML(context.Background(), "$a_b_c$")
	if err != nil {
		t.Fatalf("ToHTML() error: %v", err)
	}
	if !strings.Contains(got, "$a_b_c$") {
		t.Errorf("nil delimiters should fall back to defaults, got %s", got)
	}
}
