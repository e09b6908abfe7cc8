package main

import (
	"bytes"
	"fmt"
	"html/template"

	md2docx "github.com/alnah/go-md2docx"
	"github.com/alnah/go-md2docx/internal/assets"
	"github.com/alnah/go-md2docx/internal/fileutil"
	"github.com/alnah/go-md2docx/internal/logging"
)

const filePermissions = 0o644 // rw-r--r--: owner read+write, others read

// runRenderCmd renders a markdown file through the preview pipeline and
// writes the surface HTML, or the full page with --page.
func runRenderCmd(args []string, env *Environment) error {
	flags, positional, err := parseRenderFlags(args, env.Stderr)
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
	if flags.highlight != "" {
		cfg.Preview.HighlightStyle = flags.highlight
	}
	if flags.assetPath != "" {
		cfg.Preview.AssetPath = flags.assetPath
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	// Logs would interleave with HTML on stdout.
	editor := md2docx.NewEditor(editorOptions(cfg, logging.NoOp())...)
	defer editor.Close()

	if err := loadInput(editor, input, env.Stdin); err != nil {
		return err
	}

	var out bytes.Buffer
	snapshot := editor.Surface().Snapshot()
	if flags.page {
		page, err := newPage(env, cfg)
		if err != nil {
			return err
		}
		err = page.Render(&out, assets.PageData{
			Title:   titleFor(editor, input),
			Preview: template.HTML(snapshot.HTML), // #nosec G203 -- produced by the preview pipeline
			Label:   editor.Label(),
		})
		if err != nil {
			return err
		}
	} else {
		out.WriteString(snapshot.HTML)
		out.WriteByte('\n')
	}

	if flags.output == "" {
		_, err := env.Stdout.Write(out.Bytes())
		return err
	}
	if err := fileutil.WriteFileAtomic(flags.output, out.Bytes(), filePermissions); err != nil {
		return fmt.Errorf("writing %s: %w", flags.output, err)
	}
	if !flags.common.quiet {
		fmt.Fprintf(env.Stderr, "Wrote %s\n", flags.output)
	}
	return nil
}
