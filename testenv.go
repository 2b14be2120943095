package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"zmet/audio"
	"zmet/config"
	"zmet/haptic"
	"zmet/log"
	"zmet/metronome"
)

// waitSlack is added on top of the expected time for WAIT before giving up.
const waitSlack = 2 * time.Second

// runTestMode drives a real scheduler from line commands on in, with a fake
// audio context and a recording haptic output. Every enqueued click is
// logged to the diagnostics log. Returns the process exit code.
func runTestMode(cfg config.Config, in io.Reader, out io.Writer) int {
	fakeCtx := audio.NewFakeContext()
	fakeCtx.OnEnqueue = log.Click
	rec := &haptic.Recorder{}

	eng := newEngine(cfg, fakeCtx, rec)
	log.SessionStart(eng.session)
	defer eng.close()

	if cfg.Autostart {
		eng.sched.Start()
	}

	failed := false
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		quit, err := execTestCommand(eng.sched, rec, line, out)
		if err != nil {
			failed = true
			fmt.Fprintf(out, "error: %s: %v\n", line, err)
			log.Errorf("test command %q: %v", line, err)
		}
		if quit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(out, "error: read: %v\n", err)
		failed = true
	}
	if failed {
		return 1
	}
	return 0
}

func execTestCommand(sched *metronome.Scheduler, rec *haptic.Recorder, line string, out io.Writer) (quit bool, err error) {
	fields := strings.Fields(line)
	cmd, args := strings.ToUpper(fields[0]), fields[1:]

	switch cmd {
	case "START":
		sched.Start()
	case "STOP":
		sched.Stop()
	case "TOGGLE":
		sched.ToggleRunning()
	case "BPM":
		if len(args) != 1 {
			return false, errors.New("usage: BPM <n>")
		}
		bpm, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "tempo=%d\n", sched.SetTempo(bpm))
	case "SOUND", "VISUAL", "HAPTIC":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: %s on|off", cmd)
		}
		kind, err := metronome.ParseKind(cmd)
		if err != nil {
			return false, err
		}
		on, err := parseOnOff(args[0])
		if err != nil {
			return false, err
		}
		sched.SetModality(kind, on)
	case "LIFECYCLE":
		if len(args) != 1 {
			return false, errors.New("usage: LIFECYCLE foreground|inactive|background")
		}
		phase, err := metronome.ParsePhase(args[0])
		if err != nil {
			return false, err
		}
		sched.HandleLifecycle(phase)
	case "WAIT":
		n := 1
		if len(args) == 1 {
			if n, err = strconv.Atoi(args[0]); err != nil || n < 1 {
				return false, fmt.Errorf("bad beat count %q", args[0])
			}
		}
		return false, waitBeats(sched, n)
	case "SLEEP":
		if len(args) != 1 {
			return false, errors.New("usage: SLEEP <ms>")
		}
		ms, err := strconv.Atoi(args[0])
		if err != nil {
			return false, err
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)
	case "STATE":
		st := sched.State()
		fmt.Fprintf(out, "tempo=%d running=%t lit=%t sound=%t visual=%t haptic=%t beats=%d pulses=%d\n",
			st.Tempo, st.Running, st.Lit, st.Sound, st.Visual, st.Haptic, st.Beats, rec.Pulses())
	case "QUIT":
		return true, nil
	default:
		return false, errors.New("unknown command")
	}
	return false, nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("want on or off, got %q", s)
}

// waitBeats blocks until n more beats have been emitted.
func waitBeats(sched *metronome.Scheduler, n int) error {
	updates, cancel := sched.Subscribe(1)
	defer cancel()

	start := sched.State()
	if !start.Running {
		return errors.New("not running")
	}
	target := start.Beats + uint64(n)
	timeout := time.NewTimer(time.Duration(n)*metronome.Interval(start.Tempo) + waitSlack)
	defer timeout.Stop()

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return errors.New("scheduler closed")
			}
			if st.Beats >= target {
				return nil
			}
			if !st.Running && !st.Adjusting {
				return errors.New("stopped while waiting")
			}
		case <-timeout.C:
			return fmt.Errorf("timed out after %d of %d beats", sched.Beats()-start.Beats, n)
		}
	}
}
