package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// ErrAlreadyRecording is returned by Start while a capture is running.
var ErrAlreadyRecording = errors.New("audio: already recording")

// Recorder captures the default microphone as interleaved float32 PCM.
// One Recorder owns one malgo context; captures run one at a time.
type Recorder struct {
	mctx       *malgo.AllocatedContext
	sampleRate uint32
	channels   uint32

	mu      sync.Mutex
	device  *malgo.Device
	samples []float32
	started time.Time
}

// NewRecorder opens an audio context for capturing at the given format.
// Call Close when done.
func NewRecorder(sampleRate, channels uint32) (*Recorder, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: init context: %w", err)
	}
	return &Recorder{mctx: mctx, sampleRate: sampleRate, channels: channels}, nil
}

// SampleRate returns the capture sample rate in Hz.
func (r *Recorder) SampleRate() uint32 { return r.sampleRate }

// Channels returns the capture channel count.
func (r *Recorder) Channels() uint32 { return r.channels }

// Record captures until maxDuration elapses or ctx is done. A zero
// maxDuration records until ctx is done. Cancelling ctx is how a manual
// recording ends, so it is not reported as an error.
func (r *Recorder) Record(ctx context.Context, maxDuration time.Duration) ([]float32, error) {
	r.reserve(maxDuration)
	if err := r.Start(); err != nil {
		return nil, err
	}

	var deadline <-chan time.Time
	if maxDuration > 0 {
		timer := time.NewTimer(maxDuration)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case <-ctx.Done():
	case <-deadline:
	}
	return r.Stop(), nil
}

// Start opens the capture device and begins buffering samples.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.device != nil {
		return ErrAlreadyRecording
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = r.channels
	cfg.SampleRate = r.sampleRate

	device, err := malgo.InitDevice(r.mctx.Context, cfg, malgo.DeviceCallbacks{Data: r.onData})
	if err != nil {
		return fmt.Errorf("audio: open capture device: %w", err)
	}

	r.samples = r.samples[:0]
	r.device = device
	r.started = time.Now()

	// The data callback takes r.mu, so the device must start unlocked.
	r.mu.Unlock()
	err = device.Start()
	r.mu.Lock()
	if err != nil {
		device.Uninit()
		r.device = nil
		return fmt.Errorf("audio: start capture: %w", err)
	}
	return nil
}

// Stop closes the capture device and returns a copy of what was captured.
// It returns nil when no capture is running.
func (r *Recorder) Stop() []float32 {
	r.mu.Lock()
	device := r.device
	r.device = nil
	r.mu.Unlock()
	if device == nil {
		return nil
	}
	// Uninit waits for in-flight callbacks, which need r.mu.
	device.Uninit()

	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float32(nil), r.samples...)
}

// IsRecording reports whether a capture is running.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.device != nil
}

// Elapsed returns how long the current capture has been running.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.device == nil {
		return 0
	}
	return time.Since(r.started)
}

// Close stops any running capture and releases the audio context.
func (r *Recorder) Close() error {
	r.Stop()
	if r.mctx == nil {
		return nil
	}
	err := r.mctx.Uninit()
	r.mctx.Free()
	r.mctx = nil
	if err != nil {
		return fmt.Errorf("audio: release context: %w", err)
	}
	return nil
}

// maxReserve bounds the up-front allocation for long timed recordings.
const maxReserve = 10 * time.Minute

// reserve grows the sample buffer up front for timed recordings so the
// device callback rarely reallocates.
func (r *Recorder) reserve(d time.Duration) {
	if d <= 0 {
		return
	}
	d = min(d, maxReserve)
	n := int(d.Seconds()) * int(r.sampleRate) * int(r.channels)
	r.mu.Lock()
	if cap(r.samples) < n {
		r.samples = make([]float32, 0, n)
	}
	r.mu.Unlock()
}

func (r *Recorder) onData(_, input []byte, frames uint32) {
	decoded := decodeF32LE(input, int(frames*r.channels))
	r.mu.Lock()
	r.samples = append(r.samples, decoded...)
	r.mu.Unlock()
}

// decodeF32LE reads up to n little-endian float32 values from data,
// ignoring a trailing partial value.
func decodeF32LE(data []byte, n int) []float32 {
	n = min(n, len(data)/4)
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}
