package mathscan

import "errors"

// Sentinel errors for math scanning and validation.
var (
	ErrMathRender   = errors.New("math rendering failed")
	ErrMalformedTeX = errors.New("malformed TeX expression")
)
