package hotkey

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	hook "github.com/robotn/gohook"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		want    []string
		wantErr bool
	}{
		{"combo", []string{"Ctrl", " shift ", "S"}, []string{"ctrl", "shift", "s"}, false},
		{"single key", []string{"f9"}, []string{"f9"}, false},
		{"blanks dropped", []string{"", "ctrl", " ", "q"}, []string{"ctrl", "q"}, false},
		{"empty", nil, nil, true},
		{"only modifiers", []string{"ctrl", "shift"}, nil, true},
		{"two keys", []string{"ctrl", "a", "b"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.keys)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Normalize(%v) error = %v, wantErr %v", tt.keys, err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%v) = %v, want %v", tt.keys, got, tt.want)
			}
		})
	}
}

func TestNewTrigger(t *testing.T) {
	tr, err := NewTrigger([]string{"ctrl", "shift", "s"})
	if err != nil {
		t.Fatalf("NewTrigger() error = %v", err)
	}
	if got := tr.String(); got != "ctrl+shift+s" {
		t.Errorf("String() = %q, want %q", got, "ctrl+shift+s")
	}

	if _, err := NewTrigger(nil); !errors.Is(err, ErrNoKeys) {
		t.Errorf("NewTrigger(nil) error = %v, want ErrNoKeys", err)
	}
}

// fakeEvents mimics gohook: Process drains the event stream in a goroutine
// and sends on its result channel once End closes the stream.
type fakeEvents struct {
	registered chan func(hook.Event)
	ev         chan hook.Event
	exited     chan struct{}
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{
		registered: make(chan func(hook.Event), 1),
		exited:     make(chan struct{}),
	}
}

func (f *fakeEvents) Register(_ uint8, _ []string, cb func(hook.Event)) { f.registered <- cb }

func (f *fakeEvents) Start() chan hook.Event {
	f.ev = make(chan hook.Event)
	return f.ev
}

func (f *fakeEvents) Process(ev <-chan hook.Event) chan bool {
	out := make(chan bool)
	go func() {
		for range ev {
		}
		out <- true
		close(f.exited)
	}()
	return out
}

func (f *fakeEvents) End() { close(f.ev) }

func assertProcessExited(t *testing.T, f *fakeEvents) {
	t.Helper()
	select {
	case <-f.exited:
	case <-time.After(time.Second):
		t.Error("event processing goroutine still running after Wait returned")
	}
}

func TestWaitFires(t *testing.T) {
	f := newFakeEvents()
	tr := &Trigger{keys: []string{"ctrl", "s"}, hook: f}

	go func() {
		cb := <-f.registered
		cb(hook.Event{})
	}()

	if err := tr.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v, want nil", err)
	}
	assertProcessExited(t, f)
}

func TestWaitCancelled(t *testing.T) {
	f := newFakeEvents()
	tr := &Trigger{keys: []string{"ctrl", "s"}, hook: f}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := tr.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait() error = %v, want context.Canceled", err)
	}
	assertProcessExited(t, f)

	// A second Wait must be able to start a fresh listener.
	f2 := newFakeEvents()
	tr.hook = f2
	if err := tr.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("second Wait() error = %v, want context.Canceled", err)
	}
	assertProcessExited(t, f2)
}
