package mathscan

import (
	"regexp"
	"strings"
)

// Delimiter is a pair of opening and closing markers around a math region.
type Delimiter struct {
	Left    string
	Right   string
	Display bool
}

// DefaultDelimiters returns the recognized delimiter pairs in precedence
// order. $$ must precede $ so display math is matched first.
func DefaultDelimiters() []Delimiter {
	return []Delimiter{
		{Left: "$$", Right: "$$", Display: true},
		{Left: "$", Right: "$", Display: false},
		{Left: `\[`, Right: `\]`, Display: true},
		{Left: `\(`, Right: `\)`, Display: false},
	}
}

// Segment is a piece of scanned text: either literal text or a math region.
type Segment struct {
	Math    bool
	Data    string // literal text, or the expression without delimiters
	RawData string // the region including its delimiters (math only)
	Display bool
}

// leftPattern builds an alternation of the opening delimiters. Go's regexp
// prefers earlier alternatives at the same position, which gives $$ its
// precedence over $.
func leftPattern(delims []Delimiter) *regexp.Regexp {
	parts := make([]string, len(delims))
	for i, d := range delims {
		parts[i] = regexp.QuoteMeta(d.Left)
	}
	return regexp.MustCompile(strings.Join(parts, "|"))
}

// splitter splits text at a fixed set of delimiters.
type splitter struct {
	delims []Delimiter
	left   *regexp.Regexp
}

func newSplitter(delims []Delimiter) *splitter {
	return &splitter{delims: delims, left: leftPattern(delims)}
}

// Split breaks text into literal and math segments.
func Split(text string, delims []Delimiter) []Segment {
	if len(delims) == 0 {
		return []Segment{{Data: text}}
	}
	return newSplitter(delims).split(text)
}

func (s *splitter) split(text string) []Segment {
	var out []Segment

	loc := s.left.FindStringIndex(text)
	for loc != nil {
		if loc[0] > 0 {
			out = append(out, Segment{Data: text[:loc[0]]})
			text = text[loc[0]:]
		}

		d := s.delimiterAt(text)
		end := findEndOfMath(d.Right, text, len(d.Left))
		if end == -1 {
			break
		}

		out = append(out, Segment{
			Math:    true,
			Data:    text[len(d.Left):end],
			RawData: text[:end+len(d.Right)],
			Display: d.Display,
		})
		text = text[end+len(d.Right):]
		loc = s.left.FindStringIndex(text)
	}

	if text != "" {
		out = append(out, Segment{Data: text})
	}
	return out
}

// delimiterAt returns the first delimiter, in precedence order, that opens text.
func (s *splitter) delimiterAt(text string) Delimiter {
	for _, d := range s.delims {
		if strings.HasPrefix(text, d.Left) {
			return d
		}
	}
	// unreachable: the left pattern only matches known openers
	return s.delims[0]
}

// findEndOfMath returns the index of the closing delimiter at brace depth
// zero, starting at start, or -1 when there is none.
func findEndOfMath(right, text string, start int) int {
	depth := 0
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case depth <= 0 && strings.HasPrefix(text[i:], right):
			return i
		case c == '\\':
			i++
		case c == '{':
			depth++
		case c == '}':
			depth--
		}
	}
	return -1
}

// Match reports whether text opens with one of delims and contains its
// closer. It returns the region and the number of bytes it spans.
func Match(text string, delims []Delimiter) (Segment, int, bool) {
	for _, d := range delims {
		if !strings.HasPrefix(text, d.Left) {
			continue
		}
		end := findEndOfMath(d.Right, text, len(d.Left))
		if end == -1 {
			return Segment{}, 0, false
		}
		n := end + len(d.Right)
		return Segment{
			Math:    true,
			Data:    text[len(d.Left):end],
			RawData: text[:n],
			Display: d.Display,
		}, n, true
	}
	return Segment{}, 0, false
}
