// Package deliver hands a finished summary to the desktop, either on the
// clipboard or as keystrokes into the focused application, using robotgo.
package deliver

import (
	"fmt"
	"runtime"

	"github.com/go-vgo/robotgo"
)

// Method names accepted by New.
const (
	MethodNone      = "none"
	MethodClipboard = "clipboard"
	MethodType      = "type"
	MethodPaste     = "paste"
)

// Deliverer sends text somewhere outside the process.
type Deliverer interface {
	Deliver(text string) error
}

// desktop is the slice of robotgo used here.
type desktop interface {
	ReadAll() (string, error)
	WriteAll(text string) error
	Type(text string)
	KeyTap(key string, mods ...any) error
}

type robotgoDesktop struct{}

func (robotgoDesktop) ReadAll() (string, error)  { return robotgo.ReadAll() }
func (robotgoDesktop) WriteAll(text string) error { return robotgo.WriteAll(text) }
func (robotgoDesktop) Type(text string)           { robotgo.Type(text) }
func (robotgoDesktop) KeyTap(key string, mods ...any) error {
	return robotgo.KeyTap(key, mods...)
}

// Desktop delivers text through the OS clipboard and keyboard.
type Desktop struct {
	method string
	d      desktop
}

// Nop discards the text.
type Nop struct{}

// Deliver does nothing.
func (Nop) Deliver(string) error { return nil }

// New returns the Deliverer for method. "none" and "" yield a Nop.
func New(method string) (Deliverer, error) {
	switch method {
	case MethodNone, "":
		return Nop{}, nil
	case MethodClipboard, MethodType, MethodPaste:
		return &Desktop{method: method, d: robotgoDesktop{}}, nil
	default:
		return nil, fmt.Errorf("deliver: unknown method %q (supported: none, clipboard, type, paste)", method)
	}
}

// Deliver sends text using the configured method. Empty text is ignored.
func (dd *Desktop) Deliver(text string) error {
	if text == "" {
		return nil
	}

	switch dd.method {
	case MethodClipboard:
		if err := dd.d.WriteAll(text); err != nil {
			return fmt.Errorf("deliver: write to clipboard: %w", err)
		}
		return nil
	case MethodPaste:
		return dd.paste(text)
	default:
		// Keystrokes are slow for long text but leave the clipboard alone.
		dd.d.Type(text)
		return nil
	}
}

// paste puts text on the clipboard, pastes it into the focused window and
// restores the previous clipboard content.
func (dd *Desktop) paste(text string) error {
	prev, _ := dd.d.ReadAll()

	if err := dd.d.WriteAll(text); err != nil {
		return fmt.Errorf("deliver: write to clipboard: %w", err)
	}
	if err := dd.d.KeyTap("v", pasteModifier()); err != nil {
		return fmt.Errorf("deliver: key tap paste: %w", err)
	}

	// Best effort.
	_ = dd.d.WriteAll(prev)
	return nil
}

func pasteModifier() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}
