package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chaz8081/gostt-summarizer/internal/audio"
	"github.com/chaz8081/gostt-summarizer/internal/ingest"
)

// Model input format: whisper.cpp expects 16kHz mono.
const (
	modelSampleRate = 16000
	modelChannels   = 1
)

var (
	// ErrFileNotFound is returned when the source path does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrInvalidAudio is returned when a file cannot be decoded as audio.
	ErrInvalidAudio = errors.New("unreadable or invalid audio")
)

// Converter rewrites an audio file as PCM WAV.
type Converter interface {
	ToWAV(ctx context.Context, src, dst string, sampleRate, channels uint32) error
}

// FileTranscriber turns a Source into a transcript. Text sources pass
// through unchanged; audio sources are normalised with the Converter and
// run through the speech model.
type FileTranscriber struct {
	stt    Transcriber
	conv   Converter
	tmpDir string
	logger *slog.Logger
}

// NewFileTranscriber returns a FileTranscriber. tmpDir may be empty to use
// the system temp dir.
func NewFileTranscriber(stt Transcriber, conv Converter, tmpDir string, logger *slog.Logger) *FileTranscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileTranscriber{stt: stt, conv: conv, tmpDir: tmpDir, logger: logger}
}

// TranscribeFile classifies path by extension and transcribes it.
func (f *FileTranscriber) TranscribeFile(ctx context.Context, path string) (string, error) {
	src, err := ingest.SourceFromPath(path)
	if err != nil {
		return "", err
	}
	return f.TranscribeSource(ctx, src)
}

// TranscribeSource returns the transcript for src.
func (f *FileTranscriber) TranscribeSource(ctx context.Context, src ingest.Source) (string, error) {
	if src.Kind == ingest.KindText {
		return src.Text, nil
	}

	if _, err := os.Stat(src.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, src.Path)
		}
		return "", fmt.Errorf("transcribe: stat %s: %w", src.Path, err)
	}

	switch src.Kind {
	case ingest.KindTextFile:
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return "", fmt.Errorf("transcribe: read %s: %w", src.Path, err)
		}
		return string(data), nil
	case ingest.KindAudioFile, ingest.KindRecording:
		return f.transcribeAudio(ctx, src.Path)
	default:
		return "", fmt.Errorf("transcribe: unknown source kind %v", src.Kind)
	}
}

func (f *FileTranscriber) transcribeAudio(ctx context.Context, path string) (string, error) {
	pcm, err := f.loadPCM(ctx, path)
	if err != nil {
		return "", err
	}
	if len(pcm.Samples) == 0 {
		return "", fmt.Errorf("%w: %s contains no samples", ErrInvalidAudio, filepath.Base(path))
	}

	f.logger.Info("transcribing audio", "file", path, "seconds", fmt.Sprintf("%.1f", pcm.Duration()))
	text, err := f.stt.Process(pcm.Samples)
	if err != nil {
		return "", err
	}
	f.logger.Debug("transcription complete", "file", path, "chars", len(text))
	return text, nil
}

// loadPCM decodes path directly when it is already a 16kHz mono WAV and
// otherwise converts it with ffmpeg first.
func (f *FileTranscriber) loadPCM(ctx context.Context, path string) (audio.PCM, error) {
	if ingest.Ext(path) == ".wav" {
		pcm, err := audio.ReadWAV(path)
		if err == nil && pcm.SampleRate == modelSampleRate && pcm.Channels == modelChannels {
			return pcm, nil
		}
	}

	if f.conv == nil {
		return audio.PCM{}, fmt.Errorf("%w: %s needs conversion but no converter is configured", ErrInvalidAudio, filepath.Base(path))
	}

	dir, err := os.MkdirTemp(f.tmpDir, "gostt-*")
	if err != nil {
		return audio.PCM{}, fmt.Errorf("transcribe: create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	wavPath := filepath.Join(dir, "audio_16k.wav")
	if err := f.conv.ToWAV(ctx, path, wavPath, modelSampleRate, modelChannels); err != nil {
		return audio.PCM{}, fmt.Errorf("%w: %w", ErrInvalidAudio, err)
	}

	pcm, err := audio.ReadWAV(wavPath)
	if err != nil {
		return audio.PCM{}, fmt.Errorf("%w: %w", ErrInvalidAudio, err)
	}
	return pcm, nil
}
