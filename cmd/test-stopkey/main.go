// Command test-stopkey is a manual test for the recording stop hotkey.
// It records from the microphone until the combo is pressed (or Ctrl+C)
// and reports how much audio was captured.
//
// Usage:
//
//	go run ./cmd/test-stopkey [--keys ctrl,shift,s]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chaz8081/gostt-summarizer/internal/audio"
	"github.com/chaz8081/gostt-summarizer/internal/hotkey"
)

func main() {
	keys := flag.String("keys", "ctrl,shift,s", "comma separated key combo")
	flag.Parse()

	trigger, err := hotkey.NewTrigger(strings.Split(*keys, ","))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	rec, err := audio.NewRecorder(16000, 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "microphone: %v\n", err)
		os.Exit(1)
	}
	defer rec.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recCtx, endRecording := context.WithCancel(ctx)
	go func() {
		if err := trigger.Wait(recCtx); err == nil {
			fmt.Println(">>> stop key pressed")
		}
		endRecording()
	}()

	fmt.Printf("Recording... press %s (or Ctrl+C) to stop.\n", trigger)
	samples, err := rec.Record(recCtx, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Captured %.1fs of audio.\n", float64(len(samples))/16000)
}
