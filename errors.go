package md2docx

import "errors"

// Sentinel errors for editor operations.
var (
	ErrEmptyMarkdown = errors.New("markdown content cannot be empty")
	ErrBusy          = errors.New("a conversion is already in progress")
	ErrNoConverter   = errors.New("no conversion backend configured")
	ErrConversion    = errors.New("conversion failed")
	ErrSave          = errors.New("saving document failed")
	ErrReadFile      = errors.New("reading markdown file failed")
	ErrInvalidName   = errors.New("invalid output filename")
)
