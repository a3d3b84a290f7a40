// Package models fetches ggml whisper models from HuggingFace.
package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const defaultBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// Model describes a downloadable whisper model.
type Model struct {
	Name   string // e.g. "base"
	File   string // e.g. "ggml-base.bin"
	SizeMB int
	Note   string
}

// Catalog lists the models offered by the download command.
var Catalog = []Model{
	{Name: "tiny", File: "ggml-tiny.bin", SizeMB: 75, Note: "fastest, rough transcripts"},
	{Name: "base", File: "ggml-base.bin", SizeMB: 142, Note: "multilingual, default"},
	{Name: "base.en", File: "ggml-base.en.bin", SizeMB: 142, Note: "English only"},
	{Name: "small", File: "ggml-small.bin", SizeMB: 466, Note: "better accuracy, slower"},
}

// Lookup finds a catalog entry by name or file name.
func Lookup(name string) (Model, bool) {
	i := slices.IndexFunc(Catalog, func(m Model) bool {
		return m.Name == name || m.File == name
	})
	if i < 0 {
		return Model{}, false
	}
	return Catalog[i], true
}

// Names returns the catalog model names.
func Names() []string {
	names := make([]string, len(Catalog))
	for i, m := range Catalog {
		names[i] = m.Name
	}
	return names
}

// Downloader fetches model files over HTTP.
type Downloader struct {
	baseURL string
	client  *http.Client
	out     io.Writer
	create  func(name string) (io.WriteCloser, error)
}

func createFile(name string) (io.WriteCloser, error) { return os.Create(name) }

// NewDownloader returns a Downloader that prints progress to out.
// An empty baseURL uses HuggingFace.
func NewDownloader(baseURL string, out io.Writer) *Downloader {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if out == nil {
		out = io.Discard
	}
	return &Downloader{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
		out:     out,
		create:  createFile,
	}
}

// Download stores model m in destDir and returns its path. An existing
// non-empty file is kept.
func (d *Downloader) Download(ctx context.Context, m Model, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("models: create models dir: %w", err)
	}

	destPath := filepath.Join(destDir, m.File)
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		fmt.Fprintf(d.out, "  Whisper model already exists: %s (%.0f MB)\n", destPath, float64(info.Size())/(1024*1024))
		return destPath, nil
	}

	url := d.baseURL + "/" + m.File
	fmt.Fprintf(d.out, "  Downloading %s from %s\n", m.File, url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("models: build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("models: download %s: %w", m.File, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("models: download %s: HTTP %d", m.File, resp.StatusCode)
	}

	// Write to a temp file first so a partial download never looks complete.
	tmpPath := destPath + ".tmp"
	f, err := d.create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("models: create temp file: %w", err)
	}

	pw := &progressWriter{writer: f, out: d.out, total: resp.ContentLength, label: m.File}
	written, err := io.Copy(pw, resp.Body)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("models: write model file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("models: write model file: %w", err)
	}
	fmt.Fprintf(d.out, "\n  Downloaded %.1f MB\n", float64(written)/(1024*1024))

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("models: move model file: %w", err)
	}
	return destPath, nil
}

// progressWriter wraps an io.Writer and prints download progress.
type progressWriter struct {
	writer  io.Writer
	out     io.Writer
	total   int64
	written int64
	label   string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	pw.written += int64(n)
	if pw.total > 0 {
		pct := float64(pw.written) / float64(pw.total) * 100
		fmt.Fprintf(pw.out, "\r  %s: %.1f MB / %.1f MB (%.0f%%)",
			pw.label,
			float64(pw.written)/(1024*1024),
			float64(pw.total)/(1024*1024),
			pct)
	} else {
		fmt.Fprintf(pw.out, "\r  %s: %.1f MB downloaded",
			pw.label,
			float64(pw.written)/(1024*1024))
	}
	return n, err
}
