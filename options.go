package md2docx

import (
	"time"

	"github.com/alnah/go-md2docx/internal/clock"
	"github.com/alnah/go-md2docx/internal/logging"
	"github.com/alnah/go-md2docx/internal/preview"
	"github.com/alnah/go-md2docx/internal/status"
	"github.com/alnah/go-md2docx/internal/surface"
)

// DefaultDebounce is the quiet period before an edit is rendered.
const DefaultDebounce = 300 * time.Millisecond

// Option configures an Editor.
type Option func(*editorConfig)

type editorConfig struct {
	clock        clock.Clock
	surface      *surface.Surface
	board        *status.Board
	converter    Converter
	saver        Saver
	labels       LabelSink
	busy         BusySink
	logger       logging.Logger
	delay        time.Duration
	messages     Messages
	previewOpts  []preview.Option
	boardOptions []status.Option
}

// WithClock sets the clock driving the debounce and banner timers.
func WithClock(c clock.Clock) Option {
	return func(cfg *editorConfig) { cfg.clock = c }
}

// WithSurface sets the render surface. Listeners may already be attached.
func WithSurface(s *surface.Surface) Option {
	return func(cfg *editorConfig) { cfg.surface = s }
}

// WithBoard sets the status banner board.
func WithBoard(b *status.Board) Option {
	return func(cfg *editorConfig) { cfg.board = b }
}

// WithBannerDurations sets error and success banner lifetimes for the
// board the editor creates. Ignored when WithBoard is used.
func WithBannerDurations(errorTTL, successTTL time.Duration) Option {
	return func(cfg *editorConfig) {
		cfg.boardOptions = append(cfg.boardOptions,
			status.WithErrorDuration(errorTTL),
			status.WithSuccessDuration(successTTL),
		)
	}
}

// WithConverter sets the conversion backend.
func WithConverter(c Converter) Option {
	return func(cfg *editorConfig) { cfg.converter = c }
}

// WithSaver sets where converted documents go.
func WithSaver(s Saver) Option {
	return func(cfg *editorConfig) { cfg.saver = s }
}

// WithLabelSink sets the file label display.
func WithLabelSink(l LabelSink) Option {
	return func(cfg *editorConfig) { cfg.labels = l }
}

// WithBusySink sets the busy indicator display.
func WithBusySink(b BusySink) Option {
	return func(cfg *editorConfig) { cfg.busy = b }
}

// WithLogger sets the logger for the editor and its preview renderer.
func WithLogger(l logging.Logger) Option {
	return func(cfg *editorConfig) { cfg.logger = l }
}

// WithDebounce sets the edit quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(cfg *editorConfig) {
		if d > 0 {
			cfg.delay = d
		}
	}
}

// WithMessages overrides user-facing texts. Empty fields keep defaults.
func WithMessages(m Messages) Option {
	return func(cfg *editorConfig) { cfg.messages = m.withDefaults() }
}

// WithPreviewOptions passes options to the preview renderer.
func WithPreviewOptions(opts ...preview.Option) Option {
	return func(cfg *editorConfig) { cfg.previewOpts = append(cfg.previewOpts, opts...) }
}

type noopLabels struct{}

func (noopLabels) SetLabel(string) {}

type noopBusy struct{}

func (noopBusy) SetBusy(bool) {}
