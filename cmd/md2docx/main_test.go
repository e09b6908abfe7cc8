package main

// Notes:
// - runMain: we test dispatch and exit codes for help, version, unknown
//   commands and flag errors. Command behavior is covered in the
//   per-command test files.
// - hasVerboseFlag: we test detection and the "--" terminator.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-md2docx/internal/assets"
	"github.com/alnah/go-md2docx/internal/config"
)

// testEnv returns an Environment writing to buffers.
func testEnv() (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Environment{
		Now:         time.Now,
		Stdout:      &stdout,
		Stderr:      &stderr,
		Stdin:       strings.NewReader(""),
		AssetLoader: assets.NewEmbeddedLoader(),
		Config:      config.DefaultConfig(),
	}, &stdout, &stderr
}

// ---------------------------------------------------------------------------
// TestRunMain - Command dispatch and exit codes
// ---------------------------------------------------------------------------

func TestRunMain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		args         []string
		wantCode     int
		wantInStdout []string
		wantInStderr []string
	}{
		{
			name:         "no args shows usage and exits with ExitUsage",
			args:         []string{"md2docx"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"Usage: md2docx"},
		},
		{
			name:         "version command exits 0",
			args:         []string{"md2docx", "version"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"md2docx dev"},
		},
		{
			name:         "help command exits 0",
			args:         []string{"md2docx", "help"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"Usage: md2docx", "Commands:", "preview", "convert"},
		},
		{
			name:         "help convert shows convert help",
			args:         []string{"md2docx", "help", "convert"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"Usage: md2docx convert", "--backend"},
		},
		{
			name:         "help preview shows preview help",
			args:         []string{"md2docx", "help", "preview"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"Usage: md2docx preview", "--watch"},
		},
		{
			name:         "help unknown exits with ExitUsage",
			args:         []string{"md2docx", "help", "bogus"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"unknown command: bogus"},
		},
		{
			name:         "unknown command exits with ExitUsage",
			args:         []string{"md2docx", "unknown"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"unknown command: unknown"},
		},
		{
			name:         "unknown flag exits with ExitUsage",
			args:         []string{"md2docx", "render", "--bogus", "x.md"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"invalid usage"},
		},
		{
			name:         "--help on a command exits 0",
			args:         []string{"md2docx", "render", "--help"},
			wantCode:     ExitSuccess,
			wantInStderr: []string{"Usage: md2docx render"},
		},
		{
			name:         "missing input exits with ExitIO",
			args:         []string{"md2docx", "convert"},
			wantCode:     ExitIO,
			wantInStderr: []string{"no input specified"},
		},
		{
			name:         "too many inputs exits with ExitUsage",
			args:         []string{"md2docx", "render", "a.md", "b.md"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"expected one file"},
		},
		{
			name:         "watch without file exits with ExitUsage",
			args:         []string{"md2docx", "preview", "--watch"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"--watch needs a file"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv()
			code := runMain(tt.args, env)

			if code != tt.wantCode {
				t.Errorf("runMain(%v) = %d, want %d\nstderr: %s", tt.args, code, tt.wantCode, stderr.String())
			}
			for _, want := range tt.wantInStdout {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("stdout should contain %q, got %q", want, stdout.String())
				}
			}
			for _, want := range tt.wantInStderr {
				if !strings.Contains(stderr.String(), want) {
					t.Errorf("stderr should contain %q, got %q", want, stderr.String())
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestHasVerboseFlag - Early verbose detection for maxprocs logging
// ---------------------------------------------------------------------------

func TestHasVerboseFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"none", []string{"md2docx", "convert", "a.md"}, false},
		{"short", []string{"md2docx", "convert", "-v", "a.md"}, true},
		{"long", []string{"md2docx", "preview", "--verbose"}, true},
		{"after terminator", []string{"md2docx", "convert", "--", "-v"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := hasVerboseFlag(tt.args); got != tt.want {
				t.Errorf("hasVerboseFlag(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}
