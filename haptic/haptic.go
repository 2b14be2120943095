// Package haptic delivers one short physical pulse per beat on whatever the
// host offers: a force-feedback rumble device, the terminal bell, or nothing.
package haptic

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

var ErrUnsupported = errors.New("haptic output unsupported")

type Output interface {
	Pulse() error
	Name() string
	Close() error
}

// Backends accepted by New.
var Backends = []string{"auto", "rumble", "bell", "none"}

func ValidBackend(kind string) bool {
	kind = strings.ToLower(kind)
	for _, b := range Backends {
		if b == kind {
			return true
		}
	}
	return kind == "" || kind == "off"
}

// New opens the named backend. auto tries rumble, then the bell when w is
// a terminal, and settles for None.
func New(kind string, w io.Writer) (Output, error) {
	switch strings.ToLower(kind) {
	case "", "none", "off":
		return None(), nil
	case "bell":
		return Bell(w), nil
	case "rumble":
		out, err := openRumble()
		if err != nil {
			return nil, fmt.Errorf("rumble: %w", err)
		}
		return out, nil
	case "auto":
		if out, err := openRumble(); err == nil {
			return out, nil
		}
		if isTerminal(w) {
			return Bell(w), nil
		}
		return None(), nil
	}
	return nil, fmt.Errorf("unknown haptic backend %q (want one of %s)", kind, strings.Join(Backends, ", "))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type none struct{}

func None() Output { return none{} }

func (none) Pulse() error { return ErrUnsupported }
func (none) Name() string { return "none" }
func (none) Close() error { return nil }

type bell struct {
	mu sync.Mutex
	w  io.Writer
}

// Bell pulses by ringing the terminal bell on w. Many terminals map the
// bell to a visual flash or a vibration instead of a sound.
func Bell(w io.Writer) Output {
	return &bell{w: w}
}

func (b *bell) Pulse() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := io.WriteString(b.w, "\a")
	return err
}

func (b *bell) Name() string { return "bell" }
func (b *bell) Close() error { return nil }
