package md2docx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-md2docx/internal/fileutil"
	"github.com/alnah/go-md2docx/internal/remote"
)

// DirSaver writes documents into a directory.
type DirSaver struct {
	Dir string
	// Filename replaces the fixed document.docx name.
	Filename string
	// Overwrite replaces an existing file instead of picking "name (n).ext".
	Overwrite bool
}

// Save implements Saver.
func (s *DirSaver) Save(ctx context.Context, doc *Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := s.Filename
	if name == "" {
		name = remote.DefaultFilename
	}
	if err := fileutil.ValidateFilename(name); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidName, err)
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path, err := s.target(dir, name)
	if err != nil {
		return "", err
	}
	if err := fileutil.WriteFileAtomic(path, doc.Data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *DirSaver) target(dir, name string) (string, error) {
	if s.Overwrite {
		return filepath.Join(dir, name), nil
	}
	return fileutil.UniquePath(dir, name)
}

var _ Saver = (*DirSaver)(nil)
