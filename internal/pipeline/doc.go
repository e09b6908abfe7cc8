// Package pipeline implements the Markdown-to-HTML stages of the live preview.
//
// Stages, in the order the preview renderer runs them:
//   - Markdown preprocessing (front matter, line endings, highlight syntax)
//   - Markdown to HTML fragment conversion via Goldmark, with math regions
//     passed through verbatim so the math scanner sees them intact
//   - Fragment parsing into detached html.Node trees
//   - Relative link rewriting for assets served next to the source file
//
// Math typesetting is not done here; see internal/mathscan.
package pipeline
