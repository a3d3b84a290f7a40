package summarize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

// OllamaSummarizer talks to a local Ollama runtime through its
// OpenAI-compatible /v1 API.
type OllamaSummarizer struct {
	client *openai.Client
	model  string
	prompt string
	logger *slog.Logger
}

// NewOllamaSummarizer creates a summarizer for the Ollama server at baseURL
// (e.g. http://localhost:11434/v1).
func NewOllamaSummarizer(baseURL, model, prompt string, logger *slog.Logger) *OllamaSummarizer {
	// Ollama ignores the key but the client requires one.
	cfg := openai.DefaultConfig("ollama")
	cfg.BaseURL = baseURL
	return &OllamaSummarizer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		prompt: prompt,
		logger: logger,
	}
}

// Summarize sends one chat request and returns the first reply verbatim.
func (s *OllamaSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	prompt, err := buildPrompt(s.prompt, transcript)
	if err != nil {
		return "", err
	}

	s.logger.Debug("generating summary", "model", s.model, "text", preview(transcript, 100))

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: ollama chat (model %s): %w", ErrBackend, s.model, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	summary := resp.Choices[0].Message.Content
	s.logger.Debug("summary generated", "model", s.model, "summary", preview(summary, 100))
	return summary, nil
}

// Ping lists the installed models to check the runtime is up, and warns
// when the configured model is not among them.
func (s *OllamaSummarizer) Ping(ctx context.Context) error {
	list, err := s.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("%w: ollama not reachable: %w", ErrBackend, err)
	}

	for _, m := range list.Models {
		if m.ID == s.model || m.ID == s.model+":latest" {
			return nil
		}
	}
	s.logger.Warn("model not installed in ollama, first request may fail", "model", s.model, "installed", len(list.Models))
	return nil
}
