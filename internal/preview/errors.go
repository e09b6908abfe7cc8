package preview

import "errors"

// ErrRenderPanic wraps a panic recovered while rendering.
var ErrRenderPanic = errors.New("render panicked")
