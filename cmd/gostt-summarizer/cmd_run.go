package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chaz8081/gostt-summarizer/internal/audio"
	"github.com/chaz8081/gostt-summarizer/internal/deliver"
	"github.com/chaz8081/gostt-summarizer/internal/hotkey"
	"github.com/chaz8081/gostt-summarizer/internal/interactive"
)

type runFlags struct {
	mode     string
	file     string
	duration int
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringVar(&f.mode, "mode", "", "input mode: audio or text (asks when empty)")
	cmd.Flags().StringVar(&f.file, "file", "", "summarize this audio or .txt file without prompting")
	cmd.Flags().IntVar(&f.duration, "duration", 0, "record from the microphone for this many seconds without prompting")
}

func newRunCommand(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Interactively record, paste or pick a file and summarize it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), a, f)
		},
	}
	addRunFlags(cmd, &f)
	return cmd
}

func runInteractive(ctx context.Context, a *app, f runFlags) error {
	opts := interactive.Options{Mode: f.mode, File: f.file}
	if f.duration != 0 {
		d, err := interactive.ParseDuration(strconv.Itoa(f.duration))
		if err != nil {
			return fmt.Errorf("--duration: %w", err)
		}
		opts.Mode = interactive.ModeAudio
		opts.Duration = d
	}

	p, release, err := buildPipeline(ctx, a)
	if err != nil {
		return err
	}
	defer release()

	deliverer, err := deliver.New(a.cfg.Deliver.Method)
	if err != nil {
		return err
	}

	var stop interactive.StopWaiter
	if len(a.cfg.Audio.StopKeys) > 0 {
		t, err := hotkey.NewTrigger(a.cfg.Audio.StopKeys)
		if err != nil {
			return err
		}
		stop = t
	}

	// Ctrl+C is routed through the session so it can end a manual
	// recording without aborting the run.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	rate, channels := a.cfg.Audio.SampleRate, a.cfg.Audio.Channels
	sess := interactive.NewSession(interactive.Deps{
		Runner: p,
		NewCapturer: func() (interactive.Capturer, error) {
			rec, err := audio.NewRecorder(rate, channels)
			if err != nil {
				return nil, err
			}
			return rec, nil
		},
		Stop:          stop,
		Deliverer:     deliverer,
		Interrupts:    sigs,
		In:            os.Stdin,
		Out:           os.Stdout,
		RecordingsDir: a.cfg.Audio.RecordingsDir,
		Logger:        a.logger,
	})

	_, err = sess.Run(ctx, opts)
	return err
}
