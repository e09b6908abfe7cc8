// Package mathscan finds delimiter-bounded math regions in a rendered HTML
// tree and hands each one to a math renderer.
//
// The delimiter contract matches KaTeX's auto-render extension: at every
// position the delimiters are tried in order ($$, $, \[, \(), so a display
// $$ is never read as two inline $ delimiters. Closing delimiters are found
// brace-aware, skipping backslash escapes; an opening delimiter without a
// closer leaves the rest of the text untouched.
//
// Rendering failures are contained per region unless ThrowOnError is set: a
// malformed formula becomes a visible error span and scanning continues.
package mathscan
