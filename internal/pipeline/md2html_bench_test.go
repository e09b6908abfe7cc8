//go:build bench

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// BenchmarkGoldmarkToHTML measures fragment conversion for typical
// preview buffers.
func BenchmarkGoldmarkToHTML(b *testing.B) {
	converter := NewGoldmarkConverter()
	ctx := context.Background()

	inputs := []struct {
		name    string
		content string
	}{
		{"minimal", "# Hello\n\nWorld"},
		{"inline_math", strings.Repeat("Euler: $e^{i\\pi} + 1 = 0$ and $a_1 * b_2$.\n\n", 20)},
		{"display_math", benchMathBlocks(20)},
		{"notes_small", benchNotes(10)},
		{"notes_large", benchNotes(200)},
	}

	for _, input := range inputs {
		b.Run(input.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := converter.ToHTML(ctx, input.content); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkPreprocessMarkdown measures highlight rewriting around math.
func BenchmarkPreprocessMarkdown(b *testing.B) {
	p := &CommonMarkPreprocessor{}
	ctx := context.Background()
	content := "---\ntitle: Bench\n---\n" + benchNotes(50)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := p.PreprocessMarkdown(ctx, content); err != nil {
			b.Fatal(err)
		}
	}
}

func benchMathBlocks(count int) string {
	var sb strings.Builder
	for i := 0; i < count; i++ {
		fmt.Fprintf(&sb, "Equation %d:\n\n$$\n\\sum_{k=0}^{%d} \\frac{x^k}{k!}\n$$\n\n", i+1, i)
	}
	return sb.String()
}

func benchNotes(sections int) string {
	var sb strings.Builder
	sb.WriteString("# Lecture notes\n\n")
	for i := 0; i < sections; i++ {
		fmt.Fprintf(&sb, "## Part %d\n\n", i+1)
		sb.WriteString("A ==key idea== with **bold** text and $x_i^2$ inline.\n\n")
		sb.WriteString("- item one\n- item two\n\n")
		if i%3 == 0 {
			sb.WriteString("```go\nfunc main() {\n    fmt.Println(\"$not math$\")\n}\n```\n\n")
		}
		if i%5 == 0 {
			sb.WriteString("\\[\n\\int_0^1 f(x)\\,dx\n\\]\n\n")
		}
	}
	return sb.String()
}
