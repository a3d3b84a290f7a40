package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrEmptyFilename is returned when an upload has no usable file name.
var ErrEmptyFilename = errors.New("no selected file")

// Uploads stores uploaded files in a single directory.
type Uploads struct {
	dir string
}

// NewUploads returns an Uploads rooted at dir. The directory is created on
// first Save.
func NewUploads(dir string) *Uploads {
	return &Uploads{dir: dir}
}

// Dir returns the upload directory.
func (u *Uploads) Dir() string {
	return u.dir
}

// Save validates the extension of filename and writes r to the upload
// directory under the base name of filename, replacing any earlier upload
// with the same name. Nothing is written for rejected files.
func (u *Uploads) Save(filename string, r io.Reader) (string, error) {
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		return "", ErrEmptyFilename
	}
	if !IsUploadable(name) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, name)
	}

	if err := os.MkdirAll(u.dir, 0755); err != nil {
		return "", fmt.Errorf("ingest: create upload dir: %w", err)
	}

	dest := filepath.Join(u.dir, name)
	tmp, err := os.CreateTemp(u.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("ingest: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("ingest: write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ingest: close upload: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ingest: move upload: %w", err)
	}
	return dest, nil
}
