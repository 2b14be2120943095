//go:build linux && (amd64 || arm64)

package haptic

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	eviocsff  = 0x40304580 // _IOW('E', 0x80, struct ff_effect)
	eviocrmff = 0x40044581 // _IOW('E', 0x81, int)
)

type rumble struct {
	f    *os.File
	id   int16
	name string

	kick chan struct{}
	done chan struct{}
	once sync.Once
}

func openRumble() (Output, error) {
	devices, err := findRumbleDevices()
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no force-feedback device: %w", ErrUnsupported)
	}

	var lastErr error
	for _, path := range devices {
		r, err := openRumbleDevice(path)
		if err == nil {
			return r, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("could not open any force-feedback device (is user in 'input' group?): %w", lastErr)
}

func openRumbleDevice(path string) (*rumble, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	effect := rumbleEffect()
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), eviocsff, uintptr(unsafe.Pointer(&effect[0])))
	if errno != 0 {
		f.Close()
		return nil, fmt.Errorf("upload effect to %s: %w", path, errno)
	}

	r := &rumble{
		f:    f,
		id:   effectID(effect),
		name: "rumble " + filepath.Base(path),
		kick: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go r.loop()
	return r, nil
}

func (r *rumble) loop() {
	ev := playEvent(r.id)
	for {
		select {
		case <-r.done:
			return
		case <-r.kick:
			r.f.Write(ev)
		}
	}
}

// Pulse hands the write to the device goroutine. A pulse requested while the
// previous one is still being written is dropped.
func (r *rumble) Pulse() error {
	select {
	case <-r.done:
		return os.ErrClosed
	default:
	}
	select {
	case r.kick <- struct{}{}:
	default:
	}
	return nil
}

func (r *rumble) Name() string { return r.name }

func (r *rumble) Close() error {
	var err error
	r.once.Do(func() {
		close(r.done)
		unix.Syscall(unix.SYS_IOCTL, r.f.Fd(), eviocrmff, uintptr(r.id))
		err = r.f.Close()
	})
	return err
}

func findRumbleDevices() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var devices []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		capsPath := filepath.Join("/sys/class/input", e.Name(), "device", "capabilities", "ff")
		data, err := os.ReadFile(capsPath)
		if err != nil {
			continue
		}
		if hasBit(strings.TrimSpace(string(data)), ffRumble) {
			devices = append(devices, filepath.Join("/dev/input", e.Name()))
		}
	}
	return devices, nil
}

// Diagnose describes what the rumble backend would use.
func Diagnose() (string, error) {
	devices, err := findRumbleDevices()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(devices) == 0 {
		return "", fmt.Errorf("no force-feedback device found: %w", ErrUnsupported)
	}
	return fmt.Sprintf("%d force-feedback device(s), first %s", len(devices), devices[0]), nil
}
