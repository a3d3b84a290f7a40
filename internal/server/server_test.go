package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaz8081/gostt-summarizer/internal/ingest"
	"github.com/chaz8081/gostt-summarizer/internal/pipeline"
	"github.com/chaz8081/gostt-summarizer/internal/record"
	"github.com/chaz8081/gostt-summarizer/internal/summarize"
	"github.com/chaz8081/gostt-summarizer/internal/transcribe"
)

type fakeSTT struct{ text string }

func (f *fakeSTT) Process([]float32) (string, error) { return f.text, nil }
func (f *fakeSTT) Close() error                      { return nil }

type fakeSummarizer struct {
	calls int
	err   error
}

func (f *fakeSummarizer) Summarize(_ context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", summarize.ErrEmptyTranscript
	}
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "Summary: " + transcript, nil
}

type fixture struct {
	srv        *Server
	summarizer *fakeSummarizer
	uploadDir  string
	summaryDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := record.NewStore(filepath.Join(root, "summaries"))
	require.NoError(t, err)

	sum := &fakeSummarizer{}
	ft := transcribe.NewFileTranscriber(&fakeSTT{text: "spoken words"}, nil, root, logger)
	p := pipeline.New(ft, sum, store, logger)
	uploads := ingest.NewUploads(filepath.Join(root, "uploads"))

	return &fixture{
		srv:        New(p, uploads, logger, Options{Version: "test"}),
		summarizer: sum,
		uploadDir:  uploads.Dir(),
		summaryDir: store.Dir(),
	}
}

func (f *fixture) do(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := f.srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func multipartRequest(t *testing.T, target string, fields map[string]string, fileField, fileName, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, target string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestUploadTextFile(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, multipartRequest(t, "/upload", nil, "file", "notes.txt", "Hello world"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hello world", body["content"])
	assert.Equal(t, msgTxtUploaded, body["message"])
	assert.Equal(t, filepath.Join(f.uploadDir, "notes.txt"), body["filepath"])

	data, err := os.ReadFile(filepath.Join(f.uploadDir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Hello world", string(data))
}

func TestUploadMP3(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, multipartRequest(t, "/upload", nil, "file", "meeting.mp3", "ID3"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, msgFileUploaded, body["message"])
	assert.NotContains(t, body, "content")
}

func TestUploadStripsDirectories(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, multipartRequest(t, "/upload", nil, "file", "../../etc/notes.txt", "x"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, filepath.Join(f.uploadDir, "notes.txt"), body["filepath"])
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, multipartRequest(t, "/upload", nil, "file", "slides.pdf", "%PDF"))
	assert.Equal(t, http.StatusUnsupportedMediaType, status)
	assert.Equal(t, msgUnsupported, body["error"])

	entries, _ := os.ReadDir(f.uploadDir)
	assert.Empty(t, entries, "rejected upload must not be persisted")
}

func TestUploadMissingFilePart(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, multipartRequest(t, "/upload", map[string]string{"other": "x"}, "", "", ""))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, msgNoFilePart, body["error"])
}

func TestUploadNoSelectedFile(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, multipartRequest(t, "/upload", map[string]string{"file": ""}, "", "", ""))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, msgNoSelectedFile, body["error"])
}

func TestUploadPastedText(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, formRequest("/upload", url.Values{"pasted_text": {"typed notes"}}))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "typed notes", body["pasted_text"])
	assert.Equal(t, 0, f.summarizer.calls)
}

func TestTranscribeUploadedText(t *testing.T) {
	f := newFixture(t)

	_, up := f.do(t, multipartRequest(t, "/upload", nil, "file", "notes.txt", "Hello world"))
	status, body := f.do(t, jsonRequest(t, "/transcribe", map[string]string{"filepath": up["filepath"].(string)}))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"transcription": "Hello world"}, body)
}

func TestTranscribeInvalidPath(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, jsonRequest(t, "/transcribe", map[string]string{"filepath": filepath.Join(f.uploadDir, "nope.mp3")}))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, map[string]any{"error": msgInvalidPath}, body)

	status, body = f.do(t, jsonRequest(t, "/transcribe", map[string]string{}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, msgInvalidPath, body["error"])
}

func TestTranscribeUnsupportedType(t *testing.T) {
	f := newFixture(t)

	path := filepath.Join(t.TempDir(), "talk.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0644))

	status, body := f.do(t, jsonRequest(t, "/transcribe", map[string]string{"filepath": path}))
	assert.Equal(t, http.StatusUnsupportedMediaType, status)
	assert.Equal(t, msgUnsupported, body["error"])
}

func TestSummarizeTranscript(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, jsonRequest(t, "/summarize", map[string]string{"transcript": "Hello world"}))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Summary: Hello world", body["summary"])

	recPath, _ := body["record"].(string)
	require.NotEmpty(t, recPath)
	assert.Equal(t, f.summaryDir, filepath.Dir(recPath))

	rec, err := record.Load(recPath)
	require.NoError(t, err)
	assert.Equal(t, "Summary: Hello world", rec.Summary)
}

func TestSummarizeFilepath(t *testing.T) {
	f := newFixture(t)

	_, up := f.do(t, multipartRequest(t, "/upload", nil, "file", "notes.txt", "from file"))
	status, body := f.do(t, jsonRequest(t, "/summarize", map[string]string{"filepath": up["filepath"].(string)}))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Summary: from file", body["summary"])
}

func TestSummarizeNothingProvided(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, jsonRequest(t, "/summarize", map[string]string{}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, msgNothingToDo, body["error"])
	assert.Equal(t, 0, f.summarizer.calls)
}

func TestSummarizeBlankTranscript(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, jsonRequest(t, "/summarize", map[string]string{"transcript": "   "}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["error"])
	assert.Equal(t, 0, f.summarizer.calls)
}

func TestSummarizeBackendFailure(t *testing.T) {
	f := newFixture(t)
	f.summarizer.err = summarize.ErrBackend

	status, body := f.do(t, jsonRequest(t, "/summarize", map[string]string{"transcript": "Hello"}))
	assert.Equal(t, http.StatusBadGateway, status)
	assert.NotEmpty(t, body["error"])

	entries, _ := os.ReadDir(f.summaryDir)
	assert.Empty(t, entries, "no record for a failed summary")
}

func TestSummarizeTwiceCallsModelTwice(t *testing.T) {
	f := newFixture(t)

	for range 2 {
		status, _ := f.do(t, jsonRequest(t, "/summarize", map[string]string{"transcript": "same"}))
		require.Equal(t, http.StatusOK, status)
	}
	assert.Equal(t, 2, f.summarizer.calls)
}

func TestPasteText(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, formRequest("/paste_text", url.Values{"pasted_text": {"agenda items"}}))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "agenda items", body["pasted_text"])
	assert.Equal(t, "Summary: agenda items", body["summary"])

	status, body = f.do(t, formRequest("/paste_text", url.Values{}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, msgNoPastedText, body["error"])
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"status": "ok", "version": "test"}, body)
}

func TestIndexAndUnknownRoute(t *testing.T) {
	f := newFixture(t)

	resp, err := f.srv.App().Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	status, body := f.do(t, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, body["error"])
}
