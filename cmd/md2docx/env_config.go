package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alnah/go-md2docx/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // MD2DOCX_CONFIG: config file name or path
	BackendURL string        // MD2DOCX_BACKEND_URL: conversion endpoint
	Timeout    time.Duration // MD2DOCX_TIMEOUT: conversion request timeout
	Addr       string        // MD2DOCX_ADDR: preview server listen address
	OutputDir  string        // MD2DOCX_OUTPUT_DIR: where documents are saved
	LogLevel   string        // MD2DOCX_LOG_LEVEL: trace, debug, info, warn, error
	LogFormat  string        // MD2DOCX_LOG_FORMAT: console, json, pretty
	Debounce   time.Duration // MD2DOCX_DEBOUNCE: preview quiet period
}

// knownEnvVars lists valid MD2DOCX_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MD2DOCX_CONFIG":      true,
	"MD2DOCX_BACKEND_URL": true,
	"MD2DOCX_TIMEOUT":     true,
	"MD2DOCX_ADDR":        true,
	"MD2DOCX_OUTPUT_DIR":  true,
	"MD2DOCX_LOG_LEVEL":   true,
	"MD2DOCX_LOG_FORMAT":  true,
	"MD2DOCX_DEBOUNCE":    true,
	"MD2DOCX_CONTAINER":   true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Unparsable durations are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("MD2DOCX_CONFIG"),
		BackendURL: os.Getenv("MD2DOCX_BACKEND_URL"),
		Addr:       os.Getenv("MD2DOCX_ADDR"),
		OutputDir:  os.Getenv("MD2DOCX_OUTPUT_DIR"),
		LogLevel:   os.Getenv("MD2DOCX_LOG_LEVEL"),
		LogFormat:  os.Getenv("MD2DOCX_LOG_FORMAT"),
	}

	if timeout := os.Getenv("MD2DOCX_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if debounce := os.Getenv("MD2DOCX_DEBOUNCE"); debounce != "" {
		if d, err := time.ParseDuration(debounce); err == nil && d > 0 {
			cfg.Debounce = d
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MD2DOCX_* variables.
// Helps catch typos like MD2DOCX_BACKEND instead of MD2DOCX_BACKEND_URL.
func warnUnknownEnvVars(w io.Writer) {
	var unknown []string
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "MD2DOCX_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				unknown = append(unknown, name)
			}
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
	}
}

// applyEnvConfig applies environment variable values to config.
// Set variables override the config file; CLI flags are applied later
// via mergeFlags, giving: CLI flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.BackendURL != "" {
		cfg.Backend.URL = env.BackendURL
	}
	if env.Timeout > 0 {
		cfg.Backend.Timeout = env.Timeout.String()
	}
	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
	if env.OutputDir != "" {
		cfg.Output.Dir = env.OutputDir
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.Log.Format = env.LogFormat
	}
	if env.Debounce > 0 {
		cfg.Preview.Debounce = env.Debounce.String()
	}
}
