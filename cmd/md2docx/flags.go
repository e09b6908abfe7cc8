package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrUsage indicates invalid command-line usage.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// backendFlags holds conversion service flags.
type backendFlags struct {
	url     string
	timeout string
}

// previewFlags holds flags for the preview command.
type previewFlags struct {
	common    commonFlags
	backend   backendFlags
	addr      string
	watch     bool
	highlight string
	assetPath string
}

// renderFlags holds flags for the render command.
type renderFlags struct {
	common    commonFlags
	output    string
	page      bool
	highlight string
	assetPath string
}

// convertFlags holds flags for the convert command.
type convertFlags struct {
	common  commonFlags
	backend backendFlags
	output  string
	name    string
	yes     bool
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	common  commonFlags
	backend backendFlags
	json    bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// addBackendFlags adds conversion service flags to a FlagSet.
func addBackendFlags(fs *flag.FlagSet, f *backendFlags) {
	fs.StringVarP(&f.url, "backend", "b", "", "conversion endpoint URL")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "conversion request timeout (e.g., 30s, 2m)")
}

// newFlagSet creates a FlagSet that reports errors instead of exiting.
func newFlagSet(name string, usage func(io.Writer), stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { usage(stderr) }
	return fs
}

// parse parses args and wraps failures with ErrUsage. --help prints usage
// and yields flag.ErrHelp unwrapped so callers can exit successfully.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// parsePreviewFlags parses preview command flags and returns positional args.
func parsePreviewFlags(args []string, stderr io.Writer) (*previewFlags, []string, error) {
	f := &previewFlags{}
	fs := newFlagSet("preview", printPreviewUsage, stderr)
	addCommonFlags(fs, &f.common)
	addBackendFlags(fs, &f.backend)
	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (host:port)")
	fs.BoolVarP(&f.watch, "watch", "w", false, "reload when the file changes on disk")
	fs.StringVar(&f.highlight, "highlight", "", "code highlight style")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string, stderr io.Writer) (*renderFlags, []string, error) {
	f := &renderFlags{}
	fs := newFlagSet("render", printRenderUsage, stderr)
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	fs.BoolVarP(&f.page, "page", "p", false, "write the full HTML page")
	fs.StringVar(&f.highlight, "highlight", "", "code highlight style")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, stderr io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newFlagSet("convert", printConvertUsage, stderr)
	addCommonFlags(fs, &f.common)
	addBackendFlags(fs, &f.backend)
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.StringVarP(&f.name, "name", "n", "", "output file name (default: document.docx)")
	fs.BoolVarP(&f.yes, "yes", "y", false, "overwrite an existing output file")

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, stderr io.Writer) (*doctorFlags, error) {
	f := &doctorFlags{}
	fs := newFlagSet("doctor", printDoctorUsage, stderr)
	addCommonFlags(fs, &f.common)
	addBackendFlags(fs, &f.backend)
	fs.BoolVar(&f.json, "json", false, "output JSON")

	if err := parse(fs, args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: doctor takes no arguments", ErrUsage)
	}
	return f, nil
}
