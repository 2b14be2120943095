package doctor

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"zmet/audio"
	"zmet/hotkey"
)

func newTestDoctor(t *testing.T, answers string, ctx *audio.FakeContext, hk *hotkey.FakeHotkey) (*doctor, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &doctor{
		opts:           Options{HapticBackend: "none", SampleRate: 44100},
		in:             bufio.NewReader(strings.NewReader(answers)),
		out:            &out,
		newAudio:       func() (audio.Context, error) { return ctx, nil },
		newHotkey:      func() hotkey.Hotkey { return hk },
		diagnoseHotkey: func() (string, error) { return "fake keyboard", nil },
		beat:           time.Millisecond,
		wait:           time.Second,
	}, &out
}

func TestRunAllPass(t *testing.T) {
	ctx := audio.NewFakeContext()
	ctx.DeviceList = []audio.DeviceInfo{{ID: "bt", Name: "AirPods"}}
	hk := hotkey.NewFake()
	d, out := newTestDoctor(t, "y\n", ctx, hk)

	go hk.SimTap()
	assert.True(t, d.run(), out.String())

	assert.Equal(t, 4, ctx.Playbacks()[0].Enqueues())
	assert.True(t, ctx.Playbacks()[0].Closed())
	assert.Contains(t, out.String(), "[bluetooth: clicks will lag]")
	assert.Contains(t, out.String(), "SKIP: no haptic output")
	assert.Contains(t, out.String(), "PASS: hotkey detected")
}

func TestAudioNotConfirmed(t *testing.T) {
	d, out := newTestDoctor(t, "n\n", audio.NewFakeContext(), hotkey.NewFake())
	assert.False(t, d.checkAudio())
	assert.Contains(t, out.String(), "FAIL: click not confirmed")
}

func TestAudioInitFailure(t *testing.T) {
	ctx := audio.NewFakeContext()
	ctx.Err = errors.New("no server")
	d, out := newTestDoctor(t, "", ctx, hotkey.NewFake())
	assert.False(t, d.checkAudio())
	assert.Contains(t, out.String(), "audio output unavailable")
}

func TestAudioUnknownDevice(t *testing.T) {
	d, out := newTestDoctor(t, "", audio.NewFakeContext(), hotkey.NewFake())
	d.opts.Device = "hdmi"
	assert.False(t, d.checkAudio())
	assert.Contains(t, out.String(), "FAIL")
}

func TestHapticBell(t *testing.T) {
	d, out := newTestDoctor(t, "yes\n", audio.NewFakeContext(), hotkey.NewFake())
	d.opts.HapticBackend = "bell"
	assert.True(t, d.checkHaptic())
	assert.Equal(t, 3, strings.Count(out.String(), "\a"))
}

func TestHotkeyTimeout(t *testing.T) {
	d, out := newTestDoctor(t, "", audio.NewFakeContext(), hotkey.NewFake())
	d.wait = 10 * time.Millisecond
	assert.False(t, d.checkHotkey())
	assert.Contains(t, out.String(), "timeout")
}

func TestHotkeyRegisterFailure(t *testing.T) {
	hk := hotkey.NewFake()
	hk.RegisterErr = errors.New("grabbed")
	d, out := newTestDoctor(t, "", audio.NewFakeContext(), hk)
	assert.False(t, d.checkHotkey())
	assert.Contains(t, out.String(), "could not register hotkey")
}
