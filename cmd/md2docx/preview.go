package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	md2docx "github.com/alnah/go-md2docx"
	"github.com/alnah/go-md2docx/internal/config"
	"github.com/alnah/go-md2docx/internal/hints"
	"github.com/alnah/go-md2docx/internal/preview"
	"github.com/alnah/go-md2docx/internal/server"
	"github.com/alnah/go-md2docx/internal/watch"
)

// runPreviewCmd serves the live editor until ctx is done.
func runPreviewCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parsePreviewFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	var input string
	switch len(positional) {
	case 0:
	case 1:
		input = positional[0]
	default:
		return fmt.Errorf("%w: expected at most one file, got %d", ErrUsage, len(positional))
	}
	if input == stdinArg {
		return fmt.Errorf("%w: preview needs a file, not stdin", ErrUsage)
	}
	if flags.watch && input == "" {
		return fmt.Errorf("%w: --watch needs a file", ErrUsage)
	}

	cfg, err := loadConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	mergePreviewFlags(flags, cfg)
	if err := validateConfig(cfg); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	page, err := newPage(env, cfg)
	if err != nil {
		return err
	}
	converter, err := newConverter(cfg, logger)
	if err != nil {
		return err
	}

	hub := server.NewHub(server.WithHubLogger(logger))
	var previewOpts []preview.Option
	serverOpts := []server.Option{server.WithLogger(logger)}
	if input != "" {
		abs, err := filepath.Abs(input)
		if err != nil {
			return fmt.Errorf("%w: %v", md2docx.ErrReadFile, err)
		}
		input = abs
		previewOpts = append(previewOpts, preview.WithLinkPrefix(server.FilesPrefix))
		serverOpts = append(serverOpts, server.WithFilesDir(filepath.Dir(input)))
	}

	opts := editorOptions(cfg, logger, previewOpts...)
	opts = append(opts,
		md2docx.WithConverter(converter),
		md2docx.WithSaver(hub),
		md2docx.WithLabelSink(hub),
		md2docx.WithBusySink(hub),
	)
	editor := md2docx.NewEditor(opts...)
	defer editor.Close()

	if input != "" {
		if err := editor.LoadFile(input); err != nil {
			return err
		}
	} else {
		editor.Render(ctx)
	}
	serverOpts = append(serverOpts, server.WithTitle(titleFor(editor, input)))

	srv := server.New(editor, hub, page, serverOpts...)
	defer srv.Close()

	ln, err := listen(ctx, cfg.Server.Addr)
	if err != nil {
		return err
	}
	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Preview: http://%s/\n", ln.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, ln)
	})
	if flags.watch {
		g.Go(func() error {
			return watch.File(gctx, input, srv.ExternalEdit, watch.WithLogger(logger))
		})
	}
	return g.Wait()
}

// mergePreviewFlags merges CLI flags into config (CLI wins).
func mergePreviewFlags(flags *previewFlags, cfg *config.Config) {
	mergeCommonFlags(flags.common, cfg)
	mergeBackendFlags(flags.backend, cfg)
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.highlight != "" {
		cfg.Preview.HighlightStyle = flags.highlight
	}
	if flags.assetPath != "" {
		cfg.Preview.AssetPath = flags.assetPath
	}
}

// listen opens the preview address, hinting when the port is taken.
func listen(ctx context.Context, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("%w: listening on %s: %v%s", server.ErrServe, addr, err, hints.ForAddrInUse(addr))
		}
		return nil, fmt.Errorf("%w: listening on %s: %v", server.ErrServe, addr, err)
	}
	return ln, nil
}
