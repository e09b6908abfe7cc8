package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	md2docx "github.com/alnah/go-md2docx"
	"github.com/alnah/go-md2docx/internal/config"
	"github.com/alnah/go-md2docx/internal/hints"
	"github.com/alnah/go-md2docx/internal/logging"
	"github.com/alnah/go-md2docx/internal/remote"
	"github.com/alnah/go-md2docx/internal/status"
)

// Banner colors.
var (
	errorBanner   = color.New(color.FgRed, color.Bold)
	successBanner = color.New(color.FgGreen)
)

// runConvertCmd converts one markdown file through the backend and saves
// the document.
func runConvertCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	input, err := singleInput(positional)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	mergeConvertFlags(flags, cfg)
	if err := validateConfig(cfg); err != nil {
		return err
	}

	logger := logging.NoOp()
	if flags.common.verbose {
		if logger, err = newLogger(cfg); err != nil {
			return err
		}
	}

	converter, err := newConverter(cfg, logger)
	if err != nil {
		return err
	}

	opts := editorOptions(cfg, logger)
	opts = append(opts,
		md2docx.WithConverter(converter),
		md2docx.WithSaver(&md2docx.DirSaver{
			Dir:       cfg.Output.Dir,
			Filename:  cfg.Output.Filename,
			Overwrite: cfg.Output.Overwrite,
		}),
	)
	editor := md2docx.NewEditor(opts...)
	defer editor.Close()

	unsubscribe := editor.Board().Subscribe(bannerPrinter(env, flags.common.quiet))
	defer unsubscribe()

	if err := loadInput(editor, input, env.Stdin); err != nil {
		return err
	}
	if flags.common.verbose {
		fmt.Fprintln(env.Stderr, editor.Label())
	}

	result, err := editor.Convert(ctx)
	if err != nil {
		return withConvertHints(err, cfg)
	}

	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "%s (%s)\n", result.Location, humanize.Bytes(uint64(result.Size)))
	}
	return nil
}

// mergeConvertFlags merges CLI flags into config (CLI wins).
func mergeConvertFlags(flags *convertFlags, cfg *config.Config) {
	mergeCommonFlags(flags.common, cfg)
	mergeBackendFlags(flags.backend, cfg)
	if flags.output != "" {
		cfg.Output.Dir = flags.output
	}
	if flags.name != "" {
		cfg.Output.Filename = flags.name
	}
	if flags.yes {
		cfg.Output.Overwrite = true
	}
}

// bannerPrinter writes visible banners: errors to stderr, success to
// stdout unless quiet.
func bannerPrinter(env *Environment, quiet bool) status.Listener {
	return func(b status.Banner) {
		if !b.Visible {
			return
		}
		var w io.Writer = env.Stderr
		c := errorBanner
		if b.Kind == status.KindSuccess {
			if quiet {
				return
			}
			w, c = env.Stdout, successBanner
		}
		_, _ = c.Fprintln(w, b.Message)
	}
}

// withConvertHints appends actionable hints for common failures.
func withConvertHints(err error, cfg *config.Config) error {
	var hint string
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		hint = hints.ForTimeout()
	case errors.Is(err, remote.ErrTransport):
		hint = hints.ForBackendConnect(cfg.Backend.URL)
	case errors.Is(err, md2docx.ErrSave) && (errors.Is(err, os.ErrPermission) || errors.Is(err, os.ErrNotExist)):
		hint = hints.ForOutputDirectory()
	}
	if hint == "" {
		return err
	}
	return fmt.Errorf("%w%s", err, hint)
}
