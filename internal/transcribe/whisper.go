package transcribe

import (
	"fmt"
	"io"
	"strings"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperTranscriber wraps a whisper.cpp model for speech-to-text.
// The model is read-only after loading; every Process call creates its
// own context, so one instance can serve concurrent requests.
type WhisperTranscriber struct {
	model    whisper.Model
	language string
	threads  uint
}

// WhisperOption configures a WhisperTranscriber.
type WhisperOption func(*WhisperTranscriber)

// WithLanguage sets the spoken language ("auto" to detect). Ignored for
// English-only models.
func WithLanguage(lang string) WhisperOption {
	return func(t *WhisperTranscriber) { t.language = lang }
}

// WithThreads sets the number of inference threads; 0 keeps the default.
func WithThreads(n uint) WhisperOption {
	return func(t *WhisperTranscriber) { t.threads = n }
}

// NewWhisperTranscriber loads a whisper model from the given path.
// The caller must call Close() when done.
func NewWhisperTranscriber(modelPath string, opts ...WhisperOption) (*WhisperTranscriber, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: load whisper model %q: %w", modelPath, err)
	}
	t := &WhisperTranscriber{model: model}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Close releases the whisper model resources.
func (t *WhisperTranscriber) Close() error {
	if t.model != nil {
		return t.model.Close()
	}
	return nil
}

// Process transcribes mono 16kHz float32 audio samples to text.
func (t *WhisperTranscriber) Process(samples []float32) (string, error) {
	ctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("transcribe: create context: %w", err)
	}

	if t.language != "" && t.model.IsMultilingual() {
		if err := ctx.SetLanguage(t.language); err != nil {
			return "", fmt.Errorf("transcribe: set language %q: %w", t.language, err)
		}
	}
	if t.threads > 0 {
		ctx.SetThreads(t.threads)
	}

	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("transcribe: process: %w", err)
	}

	var segments []string
	for {
		seg, err := ctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("transcribe: next segment: %w", err)
		}
		segments = append(segments, strings.TrimSpace(seg.Text))
	}

	return strings.TrimSpace(strings.Join(segments, " ")), nil
}
