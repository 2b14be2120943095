// Package hotkey watches for the global Ctrl+Shift+Space combination.
package hotkey

import (
	"context"
	"time"
)

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// Combo is the human-readable binding, for help text and diagnostics.
const Combo = "Ctrl+Shift+Space"

// Presses calls fn once per key-down until ctx is canceled. Presses closer
// together than debounce count as one; key repeat and bouncing switches
// would otherwise toggle twice.
func Presses(ctx context.Context, hk Hotkey, debounce time.Duration, fn func()) {
	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-hk.Keydown():
			now := time.Now()
			if !last.IsZero() && now.Sub(last) < debounce {
				continue
			}
			last = now
			fn()
		case <-hk.Keyup():
		}
	}
}
