// Package doctor walks the user through the outputs zmet depends on and
// asks them to confirm what they heard and felt.
package doctor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"zmet/audio"
	"zmet/haptic"
	"zmet/hotkey"
	"zmet/metronome"
	"zmet/shutdown"
	"zmet/tone"
)

type Options struct {
	Device        string
	HapticBackend string
	SampleRate    uint32
}

type doctor struct {
	opts Options
	in   *bufio.Reader
	out  io.Writer

	newAudio  func() (audio.Context, error)
	newHotkey func() hotkey.Hotkey
	// diagnoseHotkey reports whether the hotkey backend can see a keyboard.
	diagnoseHotkey func() (string, error)
	beat      time.Duration
	wait      time.Duration
}

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(opts Options) int {
	resetTerminal()
	setupInterruptHandler()

	d := &doctor{
		opts:           opts,
		in:             bufio.NewReader(os.Stdin),
		out:            os.Stdout,
		newAudio:       audio.NewContext,
		newHotkey:      hotkey.New,
		diagnoseHotkey: hotkey.Diagnose,
		beat:           metronome.Interval(metronome.DefaultTempo),
		wait:           10 * time.Second,
	}
	if d.run() {
		return 0
	}
	return 1
}

func setupInterruptHandler() {
	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		println("\nInterrupted")
		os.Exit(1)
	}()
}

func (d *doctor) run() bool {
	d.println("zmet doctor - interactive output diagnostics")
	d.println("============================================")

	checks := []func() bool{d.checkAudio, d.checkHaptic, d.checkHotkey}
	allPass := true
	for _, check := range checks {
		if !check() {
			allPass = false
		}
	}

	d.println()
	if allPass {
		d.println("All checks passed!")
	} else {
		d.println("Some checks failed. See details above.")
	}
	return allPass
}

func (d *doctor) println(a ...any) { fmt.Fprintln(d.out, a...) }

func (d *doctor) printf(format string, a ...any) { fmt.Fprintf(d.out, format, a...) }

func (d *doctor) confirm(question string) bool {
	d.printf("%s [y/n]: ", question)
	answer, _ := d.in.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func (d *doctor) checkAudio() bool {
	d.println()
	d.println("[1/3] Audio output and click")

	ctx, err := d.newAudio()
	if err != nil {
		d.printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		d.printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	for _, dev := range devices {
		tag := ""
		if audio.IsBluetooth(dev.Name) {
			tag = "  [bluetooth: clicks will lag]"
		}
		d.printf("  - %s%s\n", dev.Name, tag)
	}

	var device *audio.DeviceInfo
	if d.opts.Device != "" {
		device, err = audio.FindDevice(ctx, d.opts.Device)
		if err != nil {
			d.printf("  FAIL: %v\n", err)
			return false
		}
	}

	p, err := tone.NewProvider(ctx, device, d.opts.SampleRate)
	if err != nil {
		d.printf("  FAIL: %v\n", err)
		return false
	}
	defer p.Close()

	const clicks = 4
	out := p.Output()
	d.printf("  Playing %d clicks on %s", clicks, out.DeviceName())
	click := p.Buffer().Samples()
	for i := 0; i < clicks; i++ {
		out.Enqueue(click)
		if !out.IsPlaying() {
			if err := out.Play(); err != nil {
				d.printf("\n  FAIL: playback: %v\n", err)
				return false
			}
		}
		d.printf(".")
		time.Sleep(d.beat)
	}
	d.println(" done")
	out.Stop()

	if d.confirm(fmt.Sprintf("Did you hear %d short high clicks?", clicks)) {
		d.println("  PASS: click verified by user")
		return true
	}
	d.println("  FAIL: click not confirmed (check volume, output device, or try -device)")
	return false
}

func (d *doctor) checkHaptic() bool {
	d.println()
	d.println("[2/3] Haptic output")

	backend := d.opts.HapticBackend
	if backend == "" {
		backend = "auto"
	}
	if info, err := haptic.Diagnose(); err == nil {
		d.printf("  %s\n", info)
	}

	h, err := haptic.New(backend, d.out)
	if err != nil {
		d.printf("  FAIL: %v\n", err)
		return false
	}
	defer h.Close()

	if h.Name() == "none" {
		d.println("  SKIP: no haptic output on this host (haptic beats will be ignored)")
		return true
	}

	d.printf("  Pulsing %s three times\n", h.Name())
	for i := 0; i < 3; i++ {
		if err := h.Pulse(); err != nil {
			if errors.Is(err, haptic.ErrUnsupported) {
				d.println("  SKIP: backend cannot pulse")
				return true
			}
			d.printf("  FAIL: pulse: %v\n", err)
			return false
		}
		time.Sleep(d.beat)
	}

	if d.confirm("Did you feel (or see) three pulses?") {
		d.println("  PASS: haptic verified by user")
		return true
	}
	d.println("  FAIL: haptic not confirmed")
	return false
}

func (d *doctor) checkHotkey() bool {
	d.println()
	d.println("[3/3] Hotkey detection")
	info, err := d.diagnoseHotkey()
	if err != nil {
		d.printf("  FAIL: %v\n", err)
		return false
	}
	d.printf("  %s\n", info)
	d.printf("Press %s...\n", hotkey.Combo)

	hk := d.newHotkey()
	if err := hk.Register(); err != nil {
		d.printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		d.println("  PASS: hotkey detected")
		select {
		case <-hk.Keyup():
		case <-time.After(d.wait / 2):
		}
		resetTerminal()
		return true
	case <-time.After(d.wait):
		d.println("  FAIL: timeout waiting for hotkey")
		return false
	}
}
