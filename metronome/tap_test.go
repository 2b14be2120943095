package metronome

import (
	"testing"
	"time"
)

func tapAt(tt *TapTempo, start time.Time, offsets ...time.Duration) (int, bool) {
	var bpm int
	var ok bool
	for _, off := range offsets {
		bpm, ok = tt.Tap(start.Add(off))
	}
	return bpm, ok
}

func TestTapTempoSteady(t *testing.T) {
	var tt TapTempo
	start := time.Now()
	bpm, ok := tapAt(&tt, start, 0, 500*time.Millisecond, time.Second, 1500*time.Millisecond)
	if !ok || bpm != 120 {
		t.Fatalf("got %d, %v; want 120, true", bpm, ok)
	}
}

func TestTapTempoSingleTap(t *testing.T) {
	var tt TapTempo
	if _, ok := tt.Tap(time.Now()); ok {
		t.Fatal("single tap produced a tempo")
	}
}

func TestTapTempoResetsAfterGap(t *testing.T) {
	var tt TapTempo
	start := time.Now()
	tapAt(&tt, start, 0, time.Second)
	if _, ok := tt.Tap(start.Add(4 * time.Second)); ok {
		t.Fatal("tap after a long gap should start over")
	}
	bpm, ok := tt.Tap(start.Add(4*time.Second + 400*time.Millisecond))
	if !ok || bpm != 150 {
		t.Fatalf("got %d, %v; want 150, true", bpm, ok)
	}
}

func TestTapTempoClamps(t *testing.T) {
	var tt TapTempo
	start := time.Now()
	bpm, _ := tapAt(&tt, start, 0, 100*time.Millisecond)
	if bpm != MaxTempo {
		t.Errorf("fast taps: got %d, want %d", bpm, MaxTempo)
	}
	tt.Reset()
	bpm, _ = tapAt(&tt, start, 0, 1900*time.Millisecond)
	if bpm != MinTempo {
		t.Errorf("slow taps: got %d, want %d", bpm, MinTempo)
	}
}

func TestTapTempoWindow(t *testing.T) {
	var tt TapTempo
	start := time.Now()
	// Slow taps age out of the window once enough fast ones arrive.
	offsets := []time.Duration{0, time.Second, 2 * time.Second}
	for i := 1; i <= tapWindow; i++ {
		offsets = append(offsets, 2*time.Second+time.Duration(i)*500*time.Millisecond)
	}
	bpm, _ := tapAt(&tt, start, offsets...)
	if bpm != 120 {
		t.Errorf("got %d, want 120", bpm)
	}
}
