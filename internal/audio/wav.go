// Package audio captures microphone input and reads/writes the PCM WAV
// files exchanged with the speech model.
package audio

import (
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned when a file cannot be decoded as PCM WAV.
var ErrInvalidWAV = errors.New("not a valid PCM WAV file")

const bitDepth = 16

// PCM is decoded audio: mono float32 samples in [-1, 1].
type PCM struct {
	Samples    []float32
	SampleRate uint32
	Channels   uint32 // channel count of the source file before downmixing
}

// Duration returns the length of the audio in seconds.
func (p PCM) Duration() float64 {
	if p.SampleRate == 0 {
		return 0
	}
	return float64(len(p.Samples)) / float64(p.SampleRate)
}

// WriteWAV encodes interleaved float32 samples as 16-bit PCM WAV at path.
func WriteWAV(path string, samples []float32, sampleRate, channels uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create %s: %w", path, err)
	}

	enc := wav.NewEncoder(f, int(sampleRate), bitDepth, int(channels), 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: int(channels),
			SampleRate:  int(sampleRate),
		},
		Data:           floatToInt16(samples),
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("audio: encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("audio: finalize wav: %w", err)
	}
	return f.Close()
}

// ReadWAV decodes a PCM WAV file, downmixing to mono and normalising
// samples to [-1.0, 1.0].
func ReadWAV(path string) (PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return PCM{}, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return PCM{}, fmt.Errorf("audio: %s: %w", path, ErrInvalidWAV)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("audio: decode %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return PCM{}, fmt.Errorf("audio: %s: %w", path, ErrInvalidWAV)
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	if depth <= 0 || depth > 32 {
		return PCM{}, fmt.Errorf("audio: %s: unsupported bit depth %d", path, depth)
	}

	channels := buf.Format.NumChannels
	scale := float32(int64(1) << (depth - 1))

	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += float32(buf.Data[i*channels+c]) / scale
		}
		samples[i] = sum / float32(channels)
	}

	return PCM{
		Samples:    samples,
		SampleRate: uint32(buf.Format.SampleRate),
		Channels:   uint32(channels),
	}, nil
}

// floatToInt16 converts float32 samples to 16-bit integer range, clipping
// out-of-range values.
func floatToInt16(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		out[i] = int(s * 32767)
	}
	return out
}
