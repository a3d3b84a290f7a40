package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chaz8081/gostt-summarizer/internal/ingest"
	"github.com/chaz8081/gostt-summarizer/internal/watch"
)

func newWatchCommand(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Summarize every audio or text file dropped into an inbox directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.cfg.Watch.Dir
			}
			return watchInbox(cmd.Context(), a, dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "inbox directory (default from config, ./inbox)")
	return cmd
}

func watchInbox(ctx context.Context, a *app, dir string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, release, err := buildPipeline(ctx, a)
	if err != nil {
		return err
	}
	defer release()

	w, err := watch.New(dir, func(ctx context.Context, src ingest.Source) error {
		res, err := p.Run(ctx, src)
		if err != nil {
			return err
		}
		a.logger.Info("summary ready", "source", src.Path, "record", res.RecordPath)
		return nil
	}, a.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
