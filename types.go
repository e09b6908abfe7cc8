package md2docx

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// State is the coarse editing state derived from the buffer.
type State int

const (
	// StateEmpty means the trimmed buffer is empty.
	StateEmpty State = iota
	// StateEditing means the buffer has content.
	StateEditing
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateEditing:
		return "editing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Document is a converted file.
type Document struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Result describes a saved conversion.
type Result struct {
	Filename string
	Location string
	Size     int
}

// Converter turns markdown into a document, usually through a remote service.
type Converter interface {
	Convert(ctx context.Context, markdown string) (*Document, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(ctx context.Context, markdown string) (*Document, error)

// Convert implements Converter.
func (f ConverterFunc) Convert(ctx context.Context, markdown string) (*Document, error) {
	return f(ctx, markdown)
}

// Saver persists a converted document and returns where it went.
type Saver interface {
	Save(ctx context.Context, doc *Document) (string, error)
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, doc *Document) (string, error)

// Save implements Saver.
func (f SaverFunc) Save(ctx context.Context, doc *Document) (string, error) {
	return f(ctx, doc)
}

// LabelSink displays the loaded file label.
type LabelSink interface {
	SetLabel(label string)
}

// BusySink displays the conversion-in-progress indicator.
type BusySink interface {
	SetBusy(busy bool)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Messages are the user-facing texts. {error} and {file} are placeholders.
type Messages struct {
	EmptyMarkdown  string
	ConvertError   string
	ConvertSuccess string
	ClearPrompt    string
	FileLabel      string
}

// DefaultMessages returns the built-in English texts.
func DefaultMessages() Messages {
	return Messages{
		EmptyMarkdown:  "Please enter Markdown content before converting!",
		ConvertError:   "Error: {error}. Please check the connection to the backend server.",
		ConvertSuccess: "Download successful! The DOCX file has been saved.",
		ClearPrompt:    "Are you sure you want to clear all content?",
		FileLabel:      "Selected: {file}",
	}
}

// withDefaults fills empty fields from DefaultMessages.
func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	if m.EmptyMarkdown == "" {
		m.EmptyMarkdown = d.EmptyMarkdown
	}
	if m.ConvertError == "" {
		m.ConvertError = d.ConvertError
	}
	if m.ConvertSuccess == "" {
		m.ConvertSuccess = d.ConvertSuccess
	}
	if m.ClearPrompt == "" {
		m.ClearPrompt = d.ClearPrompt
	}
	if m.FileLabel == "" {
		m.FileLabel = d.FileLabel
	}
	return m
}

// conversionError formats the banner for a failed conversion.
func (m Messages) conversionError(err error) string {
	return strings.ReplaceAll(m.ConvertError, "{error}", err.Error())
}

// FileLabelFor formats the label for a loaded file of size bytes.
func (m Messages) FileLabelFor(name string, size int) string {
	file := fmt.Sprintf("%s (%s)", name, humanize.Bytes(uint64(size)))
	return strings.ReplaceAll(m.FileLabel, "{file}", file)
}
