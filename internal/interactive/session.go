package interactive

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chaz8081/gostt-summarizer/internal/audio"
	"github.com/chaz8081/gostt-summarizer/internal/deliver"
	"github.com/chaz8081/gostt-summarizer/internal/ingest"
	"github.com/chaz8081/gostt-summarizer/internal/pipeline"
)

// DefaultDuration is the suggested length of a timed recording.
const DefaultDuration = 300 * time.Second

const maxDuration = 4 * time.Hour

// Input modes and their sub-choices.
const (
	ModeAudio  = "audio"
	ModeText   = "text"
	audioRec   = "record"
	audioFile  = "upload"
	recTimed   = "timed"
	recManual  = "manual"
	textPaste  = "paste"
	textFile   = "file"
	recordName = "meeting_audio_"
)

// Runner is the pipeline as seen by the console flow.
type Runner interface {
	Transcribe(ctx context.Context, src ingest.Source) (string, error)
	Summarize(ctx context.Context, transcript string) (pipeline.Result, error)
}

// Capturer records microphone audio.
type Capturer interface {
	Record(ctx context.Context, maxDuration time.Duration) ([]float32, error)
	SampleRate() uint32
	Channels() uint32
	Close() error
}

// StopWaiter blocks until an out-of-band stop request (a global hotkey).
type StopWaiter interface {
	Wait(ctx context.Context) error
	String() string
}

// Deps are the collaborators of a Session.
type Deps struct {
	Runner        Runner
	Prompter      Prompter
	NewCapturer   func() (Capturer, error)
	Stop          StopWaiter        // optional
	Deliverer     deliver.Deliverer // optional
	Interrupts    <-chan os.Signal  // Ctrl+C; optional
	In            io.Reader
	Out           io.Writer
	RecordingsDir string
	Logger        *slog.Logger
	Now           func() time.Time
}

// Options preselect answers so the flow can be scripted.
type Options struct {
	Mode     string        // "audio", "text" or "" to ask
	File     string        // a file to summarize; skips all prompts
	Duration time.Duration // >0 records for this long without asking
}

// Session runs one pass of the console flow.
type Session struct {
	Deps
	con   *console
	lines *bufio.Reader

	mu         sync.Mutex
	stopRecord context.CancelFunc
}

// NewSession fills in defaults for unset dependencies.
func NewSession(d Deps) *Session {
	if d.In == nil {
		d.In = os.Stdin
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	lines := bufio.NewReader(d.In)
	if d.Prompter == nil {
		d.Prompter = NewPrompter(d.In, lines, d.Out)
	}
	return &Session{Deps: d, con: newConsole(d.Out), lines: lines}
}

// Run executes the flow and returns the pipeline result.
// Ctrl+C aborts the session, except during a manual recording where it
// only ends the recording.
func (s *Session) Run(ctx context.Context, opts Options) (pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.Interrupts != nil {
		go s.routeInterrupts(ctx, cancel)
	}

	// Errors are returned unprinted; the command reports them once.
	res, err := s.run(ctx, opts)
	if err != nil && ctx.Err() != nil && !errors.Is(err, ErrAborted) {
		err = fmt.Errorf("%w: %w", ErrAborted, err)
	}
	return res, err
}

func (s *Session) routeInterrupts(ctx context.Context, cancel context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.Interrupts:
			s.mu.Lock()
			stop := s.stopRecord
			s.mu.Unlock()
			if stop != nil {
				stop()
				continue
			}
			cancel()
			return
		}
	}
}

func (s *Session) run(ctx context.Context, opts Options) (pipeline.Result, error) {
	src, err := s.chooseSource(ctx, opts)
	if err != nil {
		return pipeline.Result{}, err
	}

	transcript := src.Text
	if src.Kind != ingest.KindText {
		if src.NeedsTranscription() {
			s.con.Info("Transcribing %s...", filepath.Base(src.Path))
		}
		transcript, err = s.Runner.Transcribe(ctx, src)
		if err != nil {
			return pipeline.Result{}, err
		}
		s.con.OK("Transcription complete (%d characters)", len(transcript))
	}

	s.con.Info("Summarizing...")
	res, err := s.Runner.Summarize(ctx, transcript)
	if err != nil {
		return res, err
	}

	s.con.Summary(res.Summary)
	if res.RecordPath != "" {
		s.con.OK("Summary saved to %s", res.RecordPath)
	}

	if err := s.deliver(res.Summary); err != nil {
		// The summary is already saved; a failed hand-off is not fatal.
		s.con.Warn("Could not deliver summary: %v", err)
	}
	return res, nil
}

func (s *Session) chooseSource(ctx context.Context, opts Options) (ingest.Source, error) {
	if opts.File != "" {
		return sourceFromExistingPath(opts.File)
	}

	mode := opts.Mode
	if mode == "" {
		var err error
		mode, err = s.Prompter.Select("What would you like to summarize?", []Choice{
			{"Audio (record or file)", ModeAudio},
			{"Text (paste or file)", ModeText},
		})
		if err != nil {
			return ingest.Source{}, err
		}
	}

	switch mode {
	case ModeAudio:
		if opts.Duration > 0 {
			return s.record(ctx, opts.Duration)
		}
		return s.chooseAudio(ctx)
	case ModeText:
		return s.chooseText()
	default:
		return ingest.Source{}, fmt.Errorf("unknown mode %q (expected audio or text)", mode)
	}
}

func (s *Session) chooseAudio(ctx context.Context) (ingest.Source, error) {
	how, err := s.Prompter.Select("Audio source", []Choice{
		{"Record from microphone", audioRec},
		{"Use an existing audio file", audioFile},
	})
	if err != nil {
		return ingest.Source{}, err
	}

	if how == audioFile {
		path, err := s.Prompter.Input("Path to the audio file (.mp3, .wav, .m4a, ...)", "", validateFile(false))
		if err != nil {
			return ingest.Source{}, err
		}
		return sourceFromExistingPath(path)
	}

	kind, err := s.Prompter.Select("Recording mode", []Choice{
		{"Timed (stop after a fixed duration)", recTimed},
		{"Manual (stop with Enter or Ctrl+C)", recManual},
	})
	if err != nil {
		return ingest.Source{}, err
	}

	if kind == recManual {
		return s.record(ctx, 0)
	}

	secs, err := s.Prompter.Input("Recording duration in seconds", strconv.Itoa(int(DefaultDuration.Seconds())), func(v string) error {
		_, err := ParseDuration(v)
		return err
	})
	if err != nil {
		return ingest.Source{}, err
	}
	d, _ := ParseDuration(secs)
	return s.record(ctx, d)
}

func (s *Session) chooseText() (ingest.Source, error) {
	how, err := s.Prompter.Select("Text source", []Choice{
		{"Type or paste the transcript", textPaste},
		{"Read a .txt file", textFile},
	})
	if err != nil {
		return ingest.Source{}, err
	}

	if how == textFile {
		path, err := s.Prompter.Input("Path to the .txt file", "", validateFile(true))
		if err != nil {
			return ingest.Source{}, err
		}
		return sourceFromExistingPath(path)
	}

	s.con.Info("Paste or type the transcript, then press Ctrl+D (Ctrl+Z then Enter on Windows):")
	text, ok, err := ingest.ReadTranscript(s.lines)
	if err != nil {
		return ingest.Source{}, fmt.Errorf("read transcript: %w", err)
	}
	if !ok {
		return ingest.Source{}, errors.New("no text entered")
	}
	return ingest.TextSource(text), nil
}

// record captures audio for d, or until stopped when d is 0, and writes it
// to the recordings directory.
func (s *Session) record(ctx context.Context, d time.Duration) (ingest.Source, error) {
	if s.NewCapturer == nil {
		return ingest.Source{}, errors.New("audio capture is not available")
	}
	capt, err := s.NewCapturer()
	if err != nil {
		return ingest.Source{}, fmt.Errorf("open microphone: %w", err)
	}
	defer capt.Close()

	var samples []float32
	if d > 0 {
		s.con.Info("Recording for %s...", d)
		samples, err = capt.Record(ctx, d)
	} else {
		samples, err = s.recordManual(ctx, capt)
	}
	if err != nil {
		return ingest.Source{}, err
	}
	if ctx.Err() != nil {
		return ingest.Source{}, ctx.Err()
	}
	if len(samples) == 0 {
		return ingest.Source{}, errors.New("no audio captured")
	}

	if err := os.MkdirAll(s.RecordingsDir, 0755); err != nil {
		return ingest.Source{}, fmt.Errorf("create recordings dir: %w", err)
	}
	path := filepath.Join(s.RecordingsDir, recordName+s.Now().Format("20060102_150405")+".wav")
	if err := audio.WriteWAV(path, samples, capt.SampleRate(), capt.Channels()); err != nil {
		return ingest.Source{}, err
	}

	secs := float64(len(samples)) / float64(capt.SampleRate()*capt.Channels())
	s.con.OK("Recording saved to %s (%.1fs)", path, secs)
	return ingest.RecordingSource(path), nil
}

func (s *Session) recordManual(ctx context.Context, capt Capturer) ([]float32, error) {
	recCtx, stop := context.WithCancel(ctx)
	defer stop()

	s.mu.Lock()
	s.stopRecord = stop
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.stopRecord = nil
		s.mu.Unlock()
	}()

	hint := "Recording... press Enter or Ctrl+C to stop"
	if s.Stop != nil {
		hint += " (or " + s.Stop.String() + ")"
	}
	s.con.Info("%s", hint)

	enter := make(chan struct{})
	go func() {
		_, _ = s.lines.ReadString('\n')
		close(enter)
	}()
	go func() {
		select {
		case <-enter:
			stop()
		case <-recCtx.Done():
		}
	}()
	if s.Stop != nil {
		go func() {
			if err := s.Stop.Wait(recCtx); err == nil {
				stop()
			}
		}()
	}

	samples, err := capt.Record(recCtx, 0)
	if err != nil {
		return nil, err
	}

	// Consume the pending line so it is not taken as the answer to a later prompt.
	select {
	case <-enter:
	default:
		if ctx.Err() == nil {
			s.con.Info("Recording stopped. Press Enter to continue.")
			select {
			case <-enter:
			case <-ctx.Done():
			}
		}
	}
	return samples, nil
}

func (s *Session) deliver(summary string) error {
	if s.Deliverer == nil {
		return nil
	}
	if _, ok := s.Deliverer.(deliver.Nop); ok {
		return nil
	}
	yes, err := s.Prompter.Confirm("Send the summary to the desktop?")
	if err != nil || !yes {
		return nil
	}
	if err := s.Deliverer.Deliver(summary); err != nil {
		return err
	}
	s.con.OK("Summary delivered")
	return nil
}

// ParseDuration parses a positive whole number of seconds.
func ParseDuration(v string) (time.Duration, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number of seconds", v)
	}
	d := time.Duration(n) * time.Second
	if d <= 0 || d > maxDuration {
		return 0, fmt.Errorf("duration must be between 1 and %d seconds", int(maxDuration.Seconds()))
	}
	return d, nil
}

// validateFile checks that a path exists and has a supported extension.
func validateFile(textOnly bool) func(string) error {
	return func(v string) error {
		v = strings.TrimSpace(v)
		if v == "" {
			return errors.New("a path is required")
		}
		if textOnly && ingest.Ext(v) != ".txt" {
			return errors.New("only .txt files are accepted here")
		}
		if !ingest.IsSupported(v) {
			return fmt.Errorf("unsupported file type %q", ingest.Ext(v))
		}
		if _, err := os.Stat(v); err != nil {
			return fmt.Errorf("file not found: %s", v)
		}
		return nil
	}
}

func sourceFromExistingPath(path string) (ingest.Source, error) {
	path = strings.TrimSpace(path)
	if _, err := os.Stat(path); err != nil {
		return ingest.Source{}, fmt.Errorf("file not found: %s", path)
	}
	return ingest.SourceFromPath(path)
}
