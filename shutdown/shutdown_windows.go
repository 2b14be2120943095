//go:build windows

package shutdown

import (
	"os"
	"os/signal"
)

func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt)
}

// NotifySuspend is a no-op: Windows consoles have no job control.
func NotifySuspend(ch chan os.Signal) {}

func IsSuspend(os.Signal) bool { return false }

func IsResume(os.Signal) bool { return false }

func Suspend() error { return nil }
