// Package pipeline runs the linear ingest -> transcribe -> summarize ->
// persist workflow shared by every front-end.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chaz8081/gostt-summarizer/internal/ingest"
	"github.com/chaz8081/gostt-summarizer/internal/summarize"
)

// SourceTranscriber turns a Source into transcript text.
type SourceTranscriber interface {
	TranscribeSource(ctx context.Context, src ingest.Source) (string, error)
}

// Store persists a finished summary and returns where it was written.
type Store interface {
	Save(summary, transcript string) (string, error)
}

// Result is the outcome of one run.
type Result struct {
	Transcript string
	Summary    string
	RecordPath string // empty when no store is configured
}

// Pipeline wires the stages together. It holds no per-request state.
type Pipeline struct {
	transcriber SourceTranscriber
	summarizer  summarize.Summarizer
	store       Store
	logger      *slog.Logger
}

// New creates a Pipeline. store may be nil to skip persistence.
func New(t SourceTranscriber, s summarize.Summarizer, store Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{transcriber: t, summarizer: s, store: store, logger: logger}
}

// Transcribe runs only the transcription stage.
func (p *Pipeline) Transcribe(ctx context.Context, src ingest.Source) (string, error) {
	start := time.Now()
	text, err := p.transcriber.TranscribeSource(ctx, src)
	if err != nil {
		return "", err
	}
	p.logger.Debug("transcribed", "kind", src.Kind, "path", src.Path, "chars", len(text), "elapsed", time.Since(start).Round(time.Millisecond))
	return text, nil
}

// Summarize summarizes transcript and persists the record.
// On a persistence failure the summary is still returned with the error.
func (p *Pipeline) Summarize(ctx context.Context, transcript string) (Result, error) {
	res := Result{Transcript: transcript}

	start := time.Now()
	summary, err := p.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return res, err
	}
	res.Summary = summary
	p.logger.Debug("summarized", "chars", len(summary), "elapsed", time.Since(start).Round(time.Millisecond))

	if p.store == nil {
		return res, nil
	}
	path, err := p.store.Save(summary, transcript)
	if err != nil {
		return res, fmt.Errorf("pipeline: save summary: %w", err)
	}
	res.RecordPath = path
	p.logger.Info("summary saved", "path", path)
	return res, nil
}

// Run executes the full workflow for src.
func (p *Pipeline) Run(ctx context.Context, src ingest.Source) (Result, error) {
	transcript, err := p.Transcribe(ctx, src)
	if err != nil {
		return Result{}, err
	}
	return p.Summarize(ctx, transcript)
}
