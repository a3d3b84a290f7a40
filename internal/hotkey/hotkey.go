// Package hotkey waits for a global key combo using gohook. It is used to
// end a manual recording from any window.
package hotkey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
)

// ErrNoKeys is returned when a trigger is built from an empty combo.
var ErrNoKeys = errors.New("hotkey: no keys configured")

// modifiers are accepted in any position of a combo.
var modifiers = map[string]bool{
	"ctrl": true, "shift": true, "alt": true, "cmd": true, "command": true, "option": true,
}

// gohook holds process-global state, so only one trigger may listen at a time.
var hookMu sync.Mutex

// events is the slice of gohook a Trigger uses.
type events interface {
	Register(when uint8, keys []string, cb func(hook.Event))
	Start() chan hook.Event
	Process(ev <-chan hook.Event) chan bool
	End()
}

type gohookEvents struct{}

func (gohookEvents) Register(when uint8, keys []string, cb func(hook.Event)) {
	hook.Register(when, keys, cb)
}
func (gohookEvents) Start() chan hook.Event                 { return hook.Start() }
func (gohookEvents) Process(ev <-chan hook.Event) chan bool { return hook.Process(ev) }
func (gohookEvents) End()                                   { hook.End() }

// Trigger fires once when its key combo is pressed.
type Trigger struct {
	keys []string
	hook events
}

// NewTrigger validates keys (e.g. ["ctrl", "shift", "s"]) and returns a Trigger.
func NewTrigger(keys []string) (*Trigger, error) {
	norm, err := Normalize(keys)
	if err != nil {
		return nil, err
	}
	return &Trigger{keys: norm, hook: gohookEvents{}}, nil
}

// Normalize lowercases and trims keys and checks the combo has exactly one
// non-modifier key.
func Normalize(keys []string) ([]string, error) {
	out := make([]string, 0, len(keys))
	plain := 0
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if !modifiers[k] {
			plain++
		}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil, ErrNoKeys
	}
	if plain != 1 {
		return nil, fmt.Errorf("hotkey: combo %q needs exactly one non-modifier key", strings.Join(out, "+"))
	}
	return out, nil
}

// String renders the combo as "ctrl+shift+s".
func (t *Trigger) String() string {
	return strings.Join(t.keys, "+")
}

// Wait blocks until the combo is pressed (returns nil) or ctx is done
// (returns ctx.Err()).
func (t *Trigger) Wait(ctx context.Context) error {
	hookMu.Lock()
	defer hookMu.Unlock()

	fired := make(chan struct{}, 1)
	t.hook.Register(hook.KeyDown, t.keys, func(hook.Event) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	processed := t.hook.Process(t.hook.Start())
	defer func() {
		// End closes the event stream; Process then reports on its
		// channel and exits.
		t.hook.End()
		<-processed
	}()

	select {
	case <-fired:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
