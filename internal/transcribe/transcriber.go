// Package transcribe provides speech-to-text backends and the file-level
// adapter that turns a source file into a transcript.
//
// Supported backends:
//   - whisper: whisper.cpp via Go bindings (default)
package transcribe

import (
	"fmt"

	"github.com/chaz8081/gostt-summarizer/internal/config"
)

// Transcriber converts audio samples to text.
type Transcriber interface {
	// Process transcribes mono 16kHz float32 audio samples to text.
	Process(samples []float32) (string, error)
	// Close releases backend resources.
	Close() error
}

// New creates a Transcriber based on the config backend setting.
// The returned model is meant to be loaded once and shared for the
// lifetime of the process.
func New(cfg *config.TranscribeConfig) (Transcriber, error) {
	switch cfg.Backend {
	case "whisper", "":
		return NewWhisperTranscriber(cfg.ModelPath,
			WithLanguage(cfg.Language),
			WithThreads(cfg.Threads),
		)
	default:
		return nil, fmt.Errorf("transcribe: unknown backend %q (supported: whisper)", cfg.Backend)
	}
}
