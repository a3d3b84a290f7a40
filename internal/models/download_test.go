package models

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		wantFile string
		wantOK   bool
	}{
		{"base", "ggml-base.bin", true},
		{"ggml-base.en.bin", "ggml-base.en.bin", true},
		{"large-v9", "", false},
	}
	for _, tt := range tests {
		m, ok := Lookup(tt.name)
		if ok != tt.wantOK || m.File != tt.wantFile {
			t.Errorf("Lookup(%q) = %q, %v; want %q, %v", tt.name, m.File, ok, tt.wantFile, tt.wantOK)
		}
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != len(Catalog) || names[0] != "tiny" {
		t.Errorf("Names() = %v", names)
	}
}

func TestDownload(t *testing.T) {
	payload := strings.Repeat("x", 4096)
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/ggml-tiny.bin" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	var out bytes.Buffer
	d := NewDownloader(srv.URL+"/", &out)
	m, _ := Lookup("tiny")
	dir := filepath.Join(t.TempDir(), "models")

	path, err := d.Download(context.Background(), m, dir)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if path != filepath.Join(dir, "ggml-tiny.bin") {
		t.Errorf("Download() path = %q", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != payload {
		t.Errorf("downloaded %d bytes, want %d", len(got), len(payload))
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}

	// Second call keeps the existing file.
	if _, err := d.Download(context.Background(), m, dir); err != nil {
		t.Fatalf("second Download() error = %v", err)
	}
	if hits != 1 {
		t.Errorf("server hit %d times, want 1", hits)
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Errorf("output = %q, want 'already exists' notice", out.String())
	}
}

func TestDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	d := NewDownloader(srv.URL, nil)
	dir := t.TempDir()
	m, _ := Lookup("base")

	if _, err := d.Download(context.Background(), m, dir); err == nil {
		t.Fatal("Download() should fail on HTTP 404")
	}
	if _, err := os.Stat(filepath.Join(dir, m.File)); !os.IsNotExist(err) {
		t.Error("model file should not exist after a failed download")
	}
}

func TestProgressWriter(t *testing.T) {
	var sink, out bytes.Buffer
	pw := &progressWriter{
		writer: &sink,
		out:    &out,
		total:  100,
		label:  "test",
	}

	n, err := pw.Write(make([]byte, 50))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != 50 {
		t.Errorf("Write() n = %d, want 50", n)
	}
	if pw.written != 50 {
		t.Errorf("written = %d, want 50", pw.written)
	}
	if !strings.Contains(out.String(), "50%") {
		t.Errorf("progress output = %q, want percentage", out.String())
	}
}

// failingClose writes through to a real file but reports an error on Close,
// like a flush that fails on a full disk.
type failingClose struct{ *os.File }

func (f failingClose) Close() error {
	f.File.Close()
	return errors.New("no space left on device")
}

func TestDownloadCloseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1024)))
	}))
	defer srv.Close()

	d := NewDownloader(srv.URL, nil)
	d.create = func(name string) (io.WriteCloser, error) {
		f, err := os.Create(name)
		if err != nil {
			return nil, err
		}
		return failingClose{f}, nil
	}
	m, _ := Lookup("tiny")
	dir := t.TempDir()

	_, err := d.Download(context.Background(), m, dir)
	if err == nil || !strings.Contains(err.Error(), "no space left") {
		t.Fatalf("Download() error = %v, want close error", err)
	}
	if _, err := os.Stat(filepath.Join(dir, m.File)); !os.IsNotExist(err) {
		t.Error("model file should not exist when closing the temp file failed")
	}
	if _, err := os.Stat(filepath.Join(dir, m.File+".tmp")); !os.IsNotExist(err) {
		t.Error("temp file should be removed when closing it failed")
	}
}
