package summarize

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/chaz8081/gostt-summarizer/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeOllama serves the subset of the OpenAI API the summarizer uses.
type fakeOllama struct {
	chats    atomic.Int32
	prompts  []string
	reply    string
	status   int
	models   []string
	lastBody map[string]any
}

func (f *fakeOllama) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		f.chats.Add(1)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.lastBody = body
		if msgs, ok := body["messages"].([]any); ok && len(msgs) > 0 {
			m := msgs[0].(map[string]any)
			f.prompts = append(f.prompts, m["content"].(string))
		}

		if f.status != 0 {
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(`{"error":{"message":"model failed","type":"server_error"}}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   body["model"],
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": f.reply},
				"finish_reason": "stop",
			}},
		})
	})
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		data := make([]map[string]any, 0, len(f.models))
		for _, id := range f.models {
			data = append(data, map[string]any{"id": id, "object": "model", "owned_by": "library"})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})
	})
	return mux
}

func newOllama(t *testing.T, f *fakeOllama) *OllamaSummarizer {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewOllamaSummarizer(srv.URL+"/v1", "tinyllama", config.DefaultPrompt, quietLogger())
}

func TestOllamaSummarize(t *testing.T) {
	f := &fakeOllama{reply: "  - decided to ship\n"}
	s := newOllama(t, f)

	got, err := s.Summarize(context.Background(), "We talked and decided to ship.")
	require.NoError(t, err)

	assert.Equal(t, "  - decided to ship\n", got, "reply must be returned verbatim")
	assert.Equal(t, int32(1), f.chats.Load())
	require.Len(t, f.prompts, 1)
	assert.Equal(t, "Summarize this text:\n\nWe talked and decided to ship.", f.prompts[0])
	assert.Equal(t, "tinyllama", f.lastBody["model"])
}

func TestOllamaSummarizeIsNotCached(t *testing.T) {
	f := &fakeOllama{reply: "summary"}
	s := newOllama(t, f)

	for range 2 {
		_, err := s.Summarize(context.Background(), "same transcript")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), f.chats.Load())
}

func TestOllamaSummarizeEmptyTranscript(t *testing.T) {
	f := &fakeOllama{reply: "should not be used"}
	s := newOllama(t, f)

	for _, in := range []string{"", "   ", "\n\t\n"} {
		_, err := s.Summarize(context.Background(), in)
		assert.ErrorIs(t, err, ErrEmptyTranscript, "input %q", in)
	}
	assert.Equal(t, int32(0), f.chats.Load(), "no request for empty transcripts")
}

func TestOllamaSummarizeBackendError(t *testing.T) {
	f := &fakeOllama{status: http.StatusInternalServerError}
	s := newOllama(t, f)

	_, err := s.Summarize(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrBackend)
}

func TestOllamaSummarizeEmptyReply(t *testing.T) {
	f := &fakeOllama{reply: ""}
	s := newOllama(t, f)

	_, err := s.Summarize(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOllamaSummarizeUnreachable(t *testing.T) {
	s := NewOllamaSummarizer("http://127.0.0.1:1/v1", "tinyllama", config.DefaultPrompt, quietLogger())
	_, err := s.Summarize(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrBackend)
}

func TestOllamaPing(t *testing.T) {
	f := &fakeOllama{models: []string{"tinyllama:latest", "llama3:8b"}}
	s := newOllama(t, f)
	assert.NoError(t, s.Ping(context.Background()))

	// A missing model only warns.
	f.models = nil
	assert.NoError(t, s.Ping(context.Background()))

	down := NewOllamaSummarizer("http://127.0.0.1:1/v1", "tinyllama", config.DefaultPrompt, quietLogger())
	assert.ErrorIs(t, down.Ping(context.Background()), ErrBackend)
}

func TestGeminiSummarize(t *testing.T) {
	var calls atomic.Int32
	var gotPath string
	var gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotPath = r.URL.Path
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Contents) > 0 && len(body.Contents[0].Parts) > 0 {
			gotText = body.Contents[0].Parts[0].Text
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Key points: "},{"text":"ship it."}]}}]}`))
	}))
	defer srv.Close()

	s, err := NewGeminiSummarizer(context.Background(), "test-key", "gemini-2.5-flash", config.DefaultPrompt, quietLogger(),
		genai.HTTPOptions{BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	got, err := s.Summarize(context.Background(), "We will ship.")
	require.NoError(t, err)
	assert.Equal(t, "Key points: ship it.", got)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, strings.HasSuffix(gotPath, "gemini-2.5-flash:generateContent"), "path %q", gotPath)
	assert.Equal(t, "Summarize this text:\n\nWe will ship.", gotText)

	_, err = s.Summarize(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyTranscript)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiRequiresKey(t *testing.T) {
	_, err := NewGeminiSummarizer(context.Background(), "", "gemini-2.5-flash", config.DefaultPrompt, quietLogger())
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, &config.SummarizeConfig{Backend: "ollama", Model: "tinyllama", BaseURL: "http://localhost:11434/v1"}, "", nil)
	require.NoError(t, err)
	_, ok := s.(*OllamaSummarizer)
	assert.True(t, ok, "ollama backend should build an OllamaSummarizer")
	_, ok = s.(Pinger)
	assert.True(t, ok, "ollama summarizer should support Ping")

	_, err = New(ctx, &config.SummarizeConfig{Backend: "gemini", Model: "gemini-2.5-flash"}, "", nil)
	assert.Error(t, err, "gemini without key")

	_, err = New(ctx, &config.SummarizeConfig{Backend: "bard"}, "", nil)
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 10))
	assert.Equal(t, "héllo...", preview("héllo world", 5))
}
