package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// GeminiSummarizer uses the Gemini API.
type GeminiSummarizer struct {
	client *genai.Client
	model  string
	prompt string
	logger *slog.Logger
}

// NewGeminiSummarizer creates a Gemini client for apiKey.
func NewGeminiSummarizer(ctx context.Context, apiKey, model, prompt string, logger *slog.Logger, opts ...genai.HTTPOptions) (*GeminiSummarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("summarize: gemini backend requires an API key")
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if len(opts) > 0 {
		cc.HTTPOptions = opts[0]
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("summarize: create gemini client: %w", err)
	}

	return &GeminiSummarizer{client: client, model: model, prompt: prompt, logger: logger}, nil
}

// Summarize sends one GenerateContent request and returns the text of the
// first candidate.
func (s *GeminiSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	prompt, err := buildPrompt(s.prompt, transcript)
	if err != nil {
		return "", err
	}

	s.logger.Debug("generating summary", "model", s.model, "text", preview(transcript, 100))

	result, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: gemini generate (model %s): %w", ErrBackend, s.model, err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}
