// Package summarize sends transcripts to a chat model and returns the
// model's summary.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chaz8081/gostt-summarizer/internal/config"
)

var (
	// ErrEmptyTranscript is returned before any model call when there is
	// nothing to summarize.
	ErrEmptyTranscript = errors.New("transcript is empty")
	// ErrEmptyResponse is returned when the model replies without text.
	ErrEmptyResponse = errors.New("model returned an empty response")
	// ErrBackend wraps failures of the chat model service.
	ErrBackend = errors.New("summarization backend failed")
)

// Summarizer turns transcript text into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Pinger is implemented by backends that can verify they are reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New creates a Summarizer for the configured backend.
func New(ctx context.Context, cfg *config.SummarizeConfig, apiKey string, logger *slog.Logger) (Summarizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = config.DefaultPrompt
	}

	switch cfg.Backend {
	case "ollama", "":
		return NewOllamaSummarizer(cfg.BaseURL, cfg.Model, prompt, logger), nil
	case "gemini":
		return NewGeminiSummarizer(ctx, apiKey, cfg.Model, prompt, logger)
	default:
		return nil, fmt.Errorf("summarize: unknown backend %q (supported: ollama, gemini)", cfg.Backend)
	}
}

// buildPrompt wraps transcript in the instruction template.
func buildPrompt(template, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", ErrEmptyTranscript
	}
	return fmt.Sprintf(template, transcript), nil
}

// preview shortens s for debug logs.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
