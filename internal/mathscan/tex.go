package mathscan

import (
	"fmt"
	"html"
	"strings"
)

// MathRenderer typesets a single expression into HTML markup.
type MathRenderer interface {
	Render(expr string, display bool) (string, error)
}

// RenderFunc adapts a function to MathRenderer.
type RenderFunc func(expr string, display bool) (string, error)

// Render implements MathRenderer.
func (f RenderFunc) Render(expr string, display bool) (string, error) {
	return f(expr, display)
}

// TeXRenderer validates an expression and wraps it in markup that the
// browser-side math engine (KaTeX) typesets.
type TeXRenderer struct{}

// Render implements MathRenderer.
func (TeXRenderer) Render(expr string, display bool) (string, error) {
	if err := ValidateTeX(expr); err != nil {
		return "", err
	}

	class := "math-tex"
	if display {
		class += " math-display"
	}
	return fmt.Sprintf(`<span class="%s" data-display="%t">%s</span>`,
		class, display, html.EscapeString(expr)), nil
}

// ValidateTeX reports structural errors a typesetter would reject:
// unbalanced braces, unpaired \left/\right, mismatched environments,
// a dangling backslash and scripts without an argument.
func ValidateTeX(expr string) error {
	depth := 0
	lefts := 0
	var envs []string

	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch c {
		case '\\':
			if i+1 >= len(expr) {
				return fmt.Errorf("%w: unexpected end of input after '\\'", ErrMalformedTeX)
			}
			name, next := readCommand(expr, i+1)
			switch name {
			case "left":
				lefts++
			case "right":
				lefts--
				if lefts < 0 {
					return fmt.Errorf("%w: \\right without matching \\left", ErrMalformedTeX)
				}
			case "begin", "end":
				env, after, ok := readGroup(expr, next)
				if !ok {
					return fmt.Errorf("%w: expected {environment} after \\%s", ErrMalformedTeX, name)
				}
				if name == "begin" {
					envs = append(envs, env)
				} else {
					if len(envs) == 0 || envs[len(envs)-1] != env {
						return fmt.Errorf("%w: \\end{%s} without matching \\begin", ErrMalformedTeX, env)
					}
					envs = envs[:len(envs)-1]
				}
				next = after
			}
			i = next - 1
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unexpected '}'", ErrMalformedTeX)
			}
		case '^', '_':
			if !hasScriptArgument(expr, i+1) {
				return fmt.Errorf("%w: expected group after '%c'", ErrMalformedTeX, c)
			}
		}
	}

	switch {
	case depth > 0:
		return fmt.Errorf("%w: missing '}'", ErrMalformedTeX)
	case lefts > 0:
		return fmt.Errorf("%w: \\left without matching \\right", ErrMalformedTeX)
	case len(envs) > 0:
		return fmt.Errorf("%w: \\begin{%s} without matching \\end", ErrMalformedTeX, envs[len(envs)-1])
	}
	return nil
}

// readCommand reads a control word (letters) or a single control symbol
// starting at i. It returns the name and the index after it.
func readCommand(s string, i int) (string, int) {
	j := i
	for j < len(s) && isLetter(s[j]) {
		j++
	}
	if j == i {
		return s[i : i+1], i + 1
	}
	return s[i:j], j
}

// readGroup reads a {name} group starting at i, skipping leading spaces.
func readGroup(s string, i int) (string, int, bool) {
	for i < len(s) && s[i] == ' ' {
		i++
	}
	if i >= len(s) || s[i] != '{' {
		return "", i, false
	}
	end := strings.IndexByte(s[i:], '}')
	if end == -1 {
		return "", i, false
	}
	return s[i+1 : i+end], i + end + 1, true
}

// hasScriptArgument reports whether a superscript or subscript starting at
// i has something to attach.
func hasScriptArgument(s string, i int) bool {
	for i < len(s) && s[i] == ' ' {
		i++
	}
	if i >= len(s) {
		return false
	}
	switch s[i] {
	case '}', '^', '_', '&':
		return false
	}
	return true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
