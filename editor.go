package md2docx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-md2docx/internal/clock"
	"github.com/alnah/go-md2docx/internal/debounce"
	"github.com/alnah/go-md2docx/internal/logging"
	"github.com/alnah/go-md2docx/internal/preview"
	"github.com/alnah/go-md2docx/internal/status"
	"github.com/alnah/go-md2docx/internal/surface"
)

// pendingRender is the argument of a debounced render.
type pendingRender struct {
	text string
	gen  uint64
}

// Editor coordinates one editing session: the markdown buffer, the file
// label, the debounced preview and conversion to a document.
//
// Thread-safety: all methods are safe for concurrent use.
type Editor struct {
	clock     clock.Clock
	surface   *surface.Surface
	board     *status.Board
	renderer  *preview.Renderer
	debouncer *debounce.Debouncer[pendingRender]
	converter Converter
	saver     Saver
	labels    LabelSink
	busySink  BusySink
	logger    logging.Logger
	delay     time.Duration
	messages  Messages

	mu    sync.Mutex
	text  string
	label string
	gen   uint64 // bumped on every buffer change
	busy  bool

	renderMu sync.Mutex // orders immediate and debounced renders
}

// NewEditor creates an Editor with an empty buffer. The surface is not
// rendered until Render or the first input event.
func NewEditor(opts ...Option) *Editor {
	cfg := editorConfig{
		delay:    DefaultDebounce,
		messages: DefaultMessages(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.clock == nil {
		cfg.clock = clock.Real()
	}
	if cfg.surface == nil {
		cfg.surface = surface.New()
	}
	if cfg.board == nil {
		cfg.board = status.New(cfg.clock, cfg.boardOptions...)
	}
	if cfg.saver == nil {
		cfg.saver = &DirSaver{Dir: "."}
	}
	if cfg.labels == nil {
		cfg.labels = noopLabels{}
	}
	if cfg.busy == nil {
		cfg.busy = noopBusy{}
	}
	logger := logging.OrNoOp(cfg.logger)

	previewOpts := append([]preview.Option{preview.WithLogger(logger)}, cfg.previewOpts...)

	return &Editor{
		clock:     cfg.clock,
		surface:   cfg.surface,
		board:     cfg.board,
		renderer:  preview.New(cfg.surface, previewOpts...),
		debouncer: debounce.New[pendingRender](cfg.clock),
		converter: cfg.converter,
		saver:     cfg.saver,
		labels:    cfg.labels,
		busySink:  cfg.busy,
		logger:    logger,
		delay:     cfg.delay,
		messages:  cfg.messages,
	}
}

// Surface returns the render surface.
func (e *Editor) Surface() *surface.Surface { return e.surface }

// Board returns the status banner board.
func (e *Editor) Board() *status.Board { return e.board }

// Renderer returns the preview renderer.
func (e *Editor) Renderer() *preview.Renderer { return e.renderer }

// Messages returns the user-facing texts in use.
func (e *Editor) Messages() Messages { return e.messages }

// Text returns the buffer.
func (e *Editor) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

// Label returns the loaded file label, or "" when none.
func (e *Editor) Label() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.label
}

// State reports whether the trimmed buffer has content.
func (e *Editor) State() State {
	if strings.TrimSpace(e.Text()) == "" {
		return StateEmpty
	}
	return StateEditing
}

// Busy reports whether a conversion is outstanding.
func (e *Editor) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// Render renders the current buffer immediately, cancelling a pending
// debounced render. Used for the initial preview.
func (e *Editor) Render(ctx context.Context) surface.Snapshot {
	e.debouncer.Cancel()
	return e.renderCurrent(ctx)
}

// OnFileLoaded replaces the buffer with contents loaded from a file,
// shows label and renders immediately.
func (e *Editor) OnFileLoaded(contents, label string) {
	e.mu.Lock()
	e.text = contents
	e.label = label
	e.gen++
	e.mu.Unlock()

	e.debouncer.Cancel()
	e.labels.SetLabel(label)
	e.logger.Info("file loaded", "label", label, "bytes", len(contents))
	e.renderCurrent(context.Background())
}

// OnTextEdited replaces the buffer and schedules a debounced render.
// Bursts of edits produce one render of the last text.
func (e *Editor) OnTextEdited(text string) {
	e.mu.Lock()
	e.text = text
	e.gen++
	p := pendingRender{text: text, gen: e.gen}
	e.mu.Unlock()

	e.debouncer.Schedule(e.renderPending, p, e.delay)
}

// Clear empties the buffer and label after c confirms. It returns false
// and changes nothing when c is nil or declines.
func (e *Editor) Clear(c Confirmer) bool {
	if c == nil || !c.Confirm(e.messages.ClearPrompt) {
		return false
	}

	e.mu.Lock()
	e.text = ""
	e.label = ""
	e.gen++
	e.mu.Unlock()

	e.debouncer.Cancel()
	e.labels.SetLabel("")
	e.renderCurrent(context.Background())
	e.board.Hide()
	e.logger.Info("buffer cleared")
	return true
}

// LoadFile reads a local text file and loads it as OnFileLoaded does.
func (e *Editor) LoadFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- user-selected input file
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadFile, err)
	}
	e.OnFileLoaded(string(data), e.messages.FileLabelFor(filepath.Base(path), len(data)))
	return nil
}

// Convert sends the trimmed buffer to the converter and saves the result.
// The outcome is reported on the banner board; the busy indicator is
// cleared on every exit path.
func (e *Editor) Convert(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	markdown := strings.TrimSpace(e.text)
	if markdown == "" {
		e.mu.Unlock()
		e.board.ShowError(e.messages.EmptyMarkdown)
		return nil, ErrEmptyMarkdown
	}
	if e.converter == nil {
		e.mu.Unlock()
		e.board.ShowError(e.messages.conversionError(ErrNoConverter))
		return nil, ErrNoConverter
	}
	e.busy = true
	e.mu.Unlock()

	e.board.Hide()
	e.busySink.SetBusy(true)
	defer func() {
		e.mu.Lock()
		e.busy = false
		e.mu.Unlock()
		e.busySink.SetBusy(false)
	}()

	doc, err := e.converter.Convert(ctx, markdown)
	if err != nil {
		e.logger.Error("conversion failed", "error", err)
		e.board.ShowError(e.messages.conversionError(err))
		return nil, fmt.Errorf("%w: %w", ErrConversion, err)
	}

	location, err := e.saver.Save(ctx, doc)
	if err != nil {
		e.logger.Error("saving document failed", "error", err)
		e.board.ShowError(e.messages.conversionError(err))
		return nil, fmt.Errorf("%w: %w", ErrSave, err)
	}

	e.logger.Info("document saved", "location", location, "bytes", len(doc.Data))
	e.board.ShowSuccess(e.messages.ConvertSuccess)
	return &Result{Filename: doc.Filename, Location: location, Size: len(doc.Data)}, nil
}

// Close drops a pending render.
func (e *Editor) Close() {
	e.debouncer.Cancel()
}

// renderPending is the debounced action. It skips renders made stale by a
// file load or clear that happened after it was scheduled.
func (e *Editor) renderPending(p pendingRender) {
	e.renderMu.Lock()
	defer e.renderMu.Unlock()

	e.mu.Lock()
	stale := p.gen != e.gen
	e.mu.Unlock()
	if stale {
		return
	}
	e.renderer.Render(context.Background(), p.text)
}

func (e *Editor) renderCurrent(ctx context.Context) surface.Snapshot {
	e.renderMu.Lock()
	defer e.renderMu.Unlock()
	return e.renderer.Render(ctx, e.Text())
}
