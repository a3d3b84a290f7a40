package main

import (
	"context"
	"fmt"
	"time"

	"github.com/chaz8081/gostt-summarizer/internal/media"
	"github.com/chaz8081/gostt-summarizer/internal/pipeline"
	"github.com/chaz8081/gostt-summarizer/internal/record"
	"github.com/chaz8081/gostt-summarizer/internal/summarize"
	"github.com/chaz8081/gostt-summarizer/internal/transcribe"
)

// buildPipeline runs the startup checks (ffmpeg, speech model, chat model)
// and wires the pipeline. The returned func releases the speech model.
func buildPipeline(ctx context.Context, a *app) (*pipeline.Pipeline, func(), error) {
	cfg, logger := a.cfg, a.logger

	conv := media.NewConverter(cfg.FFmpeg.Path, media.NewExecutor())
	if err := conv.Check(ctx); err != nil {
		return nil, nil, fmt.Errorf("ffmpeg is required (install it or set ffmpeg.path): %w", err)
	}

	logger.Info("loading speech model", "path", cfg.Transcribe.ModelPath)
	start := time.Now()
	stt, err := transcribe.New(&cfg.Transcribe)
	if err != nil {
		return nil, nil, fmt.Errorf("%w\n\nRun 'gostt-summarizer models download' to fetch a model", err)
	}
	logger.Info("speech model loaded", "elapsed", time.Since(start).Round(time.Millisecond))
	release := func() { _ = stt.Close() }

	sum, err := summarize.New(ctx, &cfg.Summarize, cfg.APIKey(), logger)
	if err != nil {
		release()
		return nil, nil, err
	}
	if p, ok := sum.(summarize.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			release()
			return nil, nil, fmt.Errorf("%s not running at %s: %w", cfg.Summarize.Backend, cfg.Summarize.BaseURL, err)
		}
	}
	logger.Info("summarizer ready", "backend", cfg.Summarize.Backend, "model", cfg.Summarize.Model)

	store, err := record.NewStore(cfg.Storage.SummaryDir,
		record.WithTranscript(cfg.Storage.IncludeTranscript),
		record.WithDocx(cfg.Storage.Docx),
	)
	if err != nil {
		release()
		return nil, nil, err
	}

	ft := transcribe.NewFileTranscriber(stt, conv, "", logger)
	return pipeline.New(ft, sum, store, logger), release, nil
}
