package main

import (
	"io"
	"os"
	"time"

	"github.com/alnah/go-md2docx/internal/assets"
	"github.com/alnah/go-md2docx/internal/config"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, configuration, and asset loading.
type Environment struct {
	Now         func() time.Time
	Stdout      io.Writer
	Stderr      io.Writer
	Stdin       io.Reader
	AssetLoader assets.AssetLoader
	Config      *config.Config // Base config when no file is given
}

// DefaultEnv returns production environment with embedded assets.
func DefaultEnv() *Environment {
	return &Environment{
		Now:         time.Now,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Stdin:       os.Stdin,
		AssetLoader: assets.NewEmbeddedLoader(),
		Config:      config.DefaultConfig(),
	}
}
