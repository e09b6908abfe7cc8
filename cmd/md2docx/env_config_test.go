package main

// Notes:
// - loadEnvConfig: we test every MD2DOCX_* variable. Invalid durations are
//   ignored, not errors.
// - warnUnknownEnvVars: we test typo detection and that known vars don't warn.
// - applyEnvConfig: we test that set variables override the config file and
//   unset ones leave it alone.
// - Tests use t.Setenv() which prevents t.Parallel().
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-md2docx/internal/config"
)

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Environment variable loading
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Setenv("MD2DOCX_CONFIG", "/path/to/config.yaml")
	t.Setenv("MD2DOCX_BACKEND_URL", "http://backend:5000/convert")
	t.Setenv("MD2DOCX_TIMEOUT", "2m")
	t.Setenv("MD2DOCX_ADDR", "0.0.0.0:9000")
	t.Setenv("MD2DOCX_OUTPUT_DIR", "/out")
	t.Setenv("MD2DOCX_LOG_LEVEL", "debug")
	t.Setenv("MD2DOCX_LOG_FORMAT", "json")
	t.Setenv("MD2DOCX_DEBOUNCE", "500ms")

	got := loadEnvConfig()
	want := &envConfig{
		ConfigPath: "/path/to/config.yaml",
		BackendURL: "http://backend:5000/convert",
		Timeout:    2 * time.Minute,
		Addr:       "0.0.0.0:9000",
		OutputDir:  "/out",
		LogLevel:   "debug",
		LogFormat:  "json",
		Debounce:   500 * time.Millisecond,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("loadEnvConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvConfig_InvalidDurations(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not a duration", "soon"},
		{"negative", "-5s"},
		{"zero", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MD2DOCX_TIMEOUT", tt.value)
			t.Setenv("MD2DOCX_DEBOUNCE", tt.value)

			cfg := loadEnvConfig()
			if cfg.Timeout != 0 {
				t.Errorf("Timeout = %v, want 0 for %q", cfg.Timeout, tt.value)
			}
			if cfg.Debounce != 0 {
				t.Errorf("Debounce = %v, want 0 for %q", cfg.Debounce, tt.value)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars - Typo detection
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Setenv("MD2DOCX_BACKEND", "http://typo")
	t.Setenv("MD2DOCX_BACKEND_URL", "http://backend:5000/convert")

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf)

	out := buf.String()
	if !strings.Contains(out, "unknown environment variable MD2DOCX_BACKEND (typo?)") {
		t.Errorf("expected warning for MD2DOCX_BACKEND, got %q", out)
	}
	if strings.Contains(out, "MD2DOCX_BACKEND_URL") {
		t.Errorf("known variable should not warn, got %q", out)
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Env overrides config file values
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	t.Run("set values override", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Backend.URL = "http://from-file:5000/convert"
		applyEnvConfig(&envConfig{
			BackendURL: "http://from-env:5000/convert",
			Timeout:    30 * time.Second,
			Addr:       ":9000",
			OutputDir:  "out",
			LogLevel:   "warn",
			LogFormat:  "pretty",
			Debounce:   time.Second,
		}, cfg)

		if cfg.Backend.URL != "http://from-env:5000/convert" {
			t.Errorf("Backend.URL = %q, want env value", cfg.Backend.URL)
		}
		if cfg.Backend.Timeout != "30s" {
			t.Errorf("Backend.Timeout = %q, want 30s", cfg.Backend.Timeout)
		}
		if cfg.Server.Addr != ":9000" {
			t.Errorf("Server.Addr = %q, want :9000", cfg.Server.Addr)
		}
		if cfg.Output.Dir != "out" {
			t.Errorf("Output.Dir = %q, want out", cfg.Output.Dir)
		}
		if cfg.Log.Level != "warn" || cfg.Log.Format != "pretty" {
			t.Errorf("Log = %+v, want warn/pretty", cfg.Log)
		}
		if cfg.Preview.Debounce != "1s" {
			t.Errorf("Preview.Debounce = %q, want 1s", cfg.Preview.Debounce)
		}
	})

	t.Run("unset values keep config", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Output.Dir = "docs"
		want := *cfg

		applyEnvConfig(&envConfig{}, cfg)

		if diff := cmp.Diff(want, *cfg); diff != "" {
			t.Errorf("config changed (-want +got):\n%s", diff)
		}
	})
}
