package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chaz8081/gostt-summarizer/internal/ingest"
	"github.com/chaz8081/gostt-summarizer/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload, transcribe and summarize HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return serve(cmd.Context(), a, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:5000)")
	return cmd
}

func serve(ctx context.Context, a *app, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, release, err := buildPipeline(ctx, a)
	if err != nil {
		return err
	}
	defer release()

	srv := server.New(p, ingest.NewUploads(a.cfg.Storage.UploadDir), a.logger, server.Options{
		BodyLimitMB: a.cfg.Server.BodyLimitMB,
		Version:     version,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
