package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	md2docx "github.com/alnah/go-md2docx"
	"github.com/alnah/go-md2docx/internal/assets"
	"github.com/alnah/go-md2docx/internal/config"
	"github.com/alnah/go-md2docx/internal/fileutil"
	"github.com/alnah/go-md2docx/internal/hints"
	"github.com/alnah/go-md2docx/internal/logging"
	"github.com/alnah/go-md2docx/internal/logging/gologger"
	"github.com/alnah/go-md2docx/internal/mathscan"
	"github.com/alnah/go-md2docx/internal/pipeline"
	"github.com/alnah/go-md2docx/internal/preview"
	"github.com/alnah/go-md2docx/internal/remote"
)

// Defaults shown in help text.
const (
	defaultBackendHelp = config.DefaultBackendURL
	defaultAddrHelp    = config.DefaultAddr
)

// stdinArg reads the markdown from standard input.
const stdinArg = "-"

// ErrNoInput indicates a command needs a markdown file.
var ErrNoInput = errors.New("no input specified")

// loadConfig resolves configuration: the named file (flag, then
// MD2DOCX_CONFIG) or the environment's base config, then env overrides.
// CLI flags are merged by the caller, which validates the result.
func loadConfig(flagConfig string, env *Environment) (*config.Config, error) {
	envCfg := loadEnvConfig()
	warnUnknownEnvVars(env.Stderr)

	name := flagConfig
	if name == "" {
		name = envCfg.ConfigPath
	}

	var cfg *config.Config
	switch {
	case name != "":
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(name) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	case env.Config != nil:
		copied := *env.Config
		cfg = &copied
	default:
		cfg = config.DefaultConfig()
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, nil
}

// mergeCommonFlags applies verbosity flags to the log level.
func mergeCommonFlags(f commonFlags, cfg *config.Config) {
	switch {
	case f.verbose:
		cfg.Log.Level = "debug"
	case f.quiet:
		cfg.Log.Level = "error"
	}
}

// mergeBackendFlags applies backend flags (CLI wins).
func mergeBackendFlags(f backendFlags, cfg *config.Config) {
	if f.url != "" {
		cfg.Backend.URL = f.url
	}
	if f.timeout != "" {
		cfg.Backend.Timeout = f.timeout
	}
}

// validateConfig checks the merged configuration, including the highlight
// style which only chroma knows about.
func validateConfig(cfg *config.Config) error {
	if cfg.Preview.HighlightStyle == "" {
		cfg.Preview.HighlightStyle = config.DefaultHighlightStyle
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := assets.HighlightCSS(cfg.Preview.HighlightStyle); err != nil {
		return fmt.Errorf("%w%s", err, hints.ForHighlightStyle(assets.HighlightStyles()))
	}
	return nil
}

// newLogger builds the go-logger backed logger for cfg.Log.
func newLogger(cfg *config.Config) (logging.Logger, error) {
	provider, err := gologger.NewProvider(gologger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return provider.GetLogger("md2docx"), nil
}

// messagesFrom maps configured texts onto editor messages.
func messagesFrom(cfg *config.Config) md2docx.Messages {
	m := cfg.Messages
	return md2docx.Messages{
		EmptyMarkdown:  m.EmptyMarkdown,
		ConvertError:   m.ConvertError,
		ConvertSuccess: m.ConvertSuccess,
		ClearPrompt:    m.ClearPrompt,
		FileLabel:      m.FileLabel,
	}
}

// previewOptions configures the preview pipeline from cfg.Preview.
func previewOptions(cfg *config.Config, extra ...preview.Option) []preview.Option {
	opts := []preview.Option{
		preview.WithPlaceholder(cfg.Preview.Placeholder),
		preview.WithErrorPrefix(cfg.Preview.ErrorPrefix),
		preview.WithConverter(pipeline.NewGoldmarkConverter(
			pipeline.WithHighlightStyle(cfg.Preview.HighlightStyle),
		)),
		preview.WithScanner(mathscan.New(nil,
			mathscan.WithThrowOnError(cfg.Preview.ThrowOnError),
		)),
	}
	return append(opts, extra...)
}

// editorOptions returns the Editor options shared by every command.
func editorOptions(cfg *config.Config, logger logging.Logger, extra ...preview.Option) []md2docx.Option {
	return []md2docx.Option{
		md2docx.WithLogger(logger),
		md2docx.WithDebounce(cfg.Preview.DebounceDuration()),
		md2docx.WithMessages(messagesFrom(cfg)),
		md2docx.WithPreviewOptions(previewOptions(cfg, extra...)...),
	}
}

// newConverter builds the remote conversion backend from cfg.Backend.
func newConverter(cfg *config.Config, logger logging.Logger) (*md2docx.RemoteConverter, error) {
	return md2docx.NewRemoteConverter(cfg.Backend.URL,
		remote.WithTimeout(cfg.Backend.TimeoutDuration()),
		remote.WithLogger(logger),
	)
}

// newPage builds the preview page with the configured highlight style.
// A configured asset path overrides the built-in style and template; assets
// missing there fall back to the embedded ones.
func newPage(env *Environment, cfg *config.Config) (*assets.Page, error) {
	loader := env.AssetLoader
	if cfg.Preview.AssetPath != "" {
		resolver, err := assets.NewAssetResolver(cfg.Preview.AssetPath)
		if err != nil {
			return nil, fmt.Errorf("loading assets: %w", err)
		}
		loader = resolver
	}
	if loader == nil {
		loader = assets.NewEmbeddedLoader()
	}
	return assets.NewPage(loader, assets.WithHighlightStyle(cfg.Preview.HighlightStyle))
}

// loadInput loads path, or stdin for "-", into the editor.
func loadInput(editor *md2docx.Editor, path string, stdin io.Reader) error {
	if path != stdinArg {
		return editor.LoadFile(path)
	}
	if stdin == nil {
		return fmt.Errorf("%w: stdin is not available", ErrNoInput)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("%w: %v", md2docx.ErrReadFile, err)
	}
	editor.OnFileLoaded(string(data), editor.Messages().FileLabelFor("stdin", len(data)))
	return nil
}

// singleInput returns the one positional argument a command accepts.
func singleInput(positional []string) (string, error) {
	switch len(positional) {
	case 0:
		return "", ErrNoInput
	case 1:
		return positional[0], nil
	default:
		return "", fmt.Errorf("%w: expected one file, got %d", ErrUsage, len(positional))
	}
}

// titleFor picks a page title: front matter title, else the file name.
func titleFor(editor *md2docx.Editor, path string) string {
	if title := editor.Renderer().Meta().Title; title != "" {
		return title
	}
	if path == "" || path == stdinArg {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
