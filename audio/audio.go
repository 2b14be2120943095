package audio

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoDevice = errors.New("no output devices found")

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", "bluez", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses from the device name whether output goes over
// Bluetooth, where clicks arrive noticeably late.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type PlaybackConfig struct {
	SampleRate uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewPlayback(device *DeviceInfo, config PlaybackConfig) (PlaybackDevice, error)
	Close()
}

// PlaybackDevice is a mono float32 output stream. Enqueue appends to the
// pending samples and never blocks on the device.
type PlaybackDevice interface {
	Enqueue(samples []float32)
	IsPlaying() bool
	Play() error
	Stop()
	Close()
	DeviceName() string
}

// FindDevice returns the device whose ID equals name, or failing that the
// first one whose name contains it (case-insensitive).
func FindDevice(ctx Context, name string) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	for i := range devices {
		if devices[i].ID == name {
			return &devices[i], nil
		}
	}
	want := strings.ToLower(name)
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), want) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("%w matching %q", ErrNoDevice, name)
}
