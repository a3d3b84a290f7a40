// Package media wraps the ffmpeg binary used to normalise audio before
// transcription.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Executor runs an external command and returns its stdout.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
}

type execExecutor struct{}

// NewExecutor returns an Executor backed by os/exec.
func NewExecutor() Executor {
	return execExecutor{}
}

// Execute runs name with args. On failure the trimmed stderr is appended
// to the returned error.
func (execExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return "", fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, lastLines(stderrStr, 5))
		}
		return "", fmt.Errorf("command '%s' failed: %w", name, err)
	}

	return stdout.String(), nil
}

// Converter converts audio files with ffmpeg.
type Converter struct {
	bin  string
	exec Executor
}

// NewConverter returns a Converter that invokes the ffmpeg binary at bin.
func NewConverter(bin string, exec Executor) *Converter {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Converter{bin: bin, exec: exec}
}

// Check verifies that ffmpeg can be executed.
func (c *Converter) Check(ctx context.Context) error {
	if _, err := c.exec.Execute(ctx, c.bin, "-version"); err != nil {
		return fmt.Errorf("media: ffmpeg not available at %q: %w", c.bin, err)
	}
	return nil
}

// ToWAV converts src into a 16-bit PCM WAV at dst with the given sample
// rate and channel count, overwriting dst.
func (c *Converter) ToWAV(ctx context.Context, src, dst string, sampleRate, channels uint32) error {
	// -vn drops any video stream (e.g. .webm screen recordings).
	args := []string{
		"-nostdin",
		"-y",
		"-i", src,
		"-vn",
		"-ar", fmt.Sprint(sampleRate),
		"-ac", fmt.Sprint(channels),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		dst,
	}

	if _, err := c.exec.Execute(ctx, c.bin, args...); err != nil {
		return fmt.Errorf("media: convert %s to wav: %w", filepath.Base(src), err)
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
