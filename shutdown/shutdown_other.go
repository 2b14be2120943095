//go:build !windows

package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
}

// NotifySuspend delivers job-control stop and continue signals. Once
// registered, SIGTSTP no longer stops the process; call Suspend after
// handling it.
func NotifySuspend(ch chan os.Signal) {
	signal.Notify(ch, syscall.SIGTSTP, syscall.SIGCONT)
}

func IsSuspend(sig os.Signal) bool { return sig == syscall.SIGTSTP }

func IsResume(sig os.Signal) bool { return sig == syscall.SIGCONT }

// Suspend stops the process the way an unhandled SIGTSTP would.
func Suspend() error {
	return syscall.Kill(os.Getpid(), syscall.SIGSTOP)
}
