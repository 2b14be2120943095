package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zmet/audio"
	"zmet/metronome"
)

var _ metronome.SoundOutput = audio.PlaybackDevice(nil)

type recordingSink struct {
	mu      sync.Mutex
	states  []metronome.State
	devices []string
}

func (r *recordingSink) StateChanged(st metronome.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, st)
}

func (r *recordingSink) DeviceLine(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = append(r.devices, text)
}

func (r *recordingSink) snapshot() ([]metronome.State, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]metronome.State(nil), r.states...), append([]string(nil), r.devices...)
}

func TestPumpEventsSendsDeviceLineAndState(t *testing.T) {
	sched := metronome.New(metronome.WithClock(metronome.NewFakeClock()))
	defer sched.Close()
	rec := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pumpEvents(ctx, sched, rec, "out: Headphones")
		close(done)
	}()

	require.Eventually(t, func() bool {
		states, _ := rec.snapshot()
		return len(states) >= 1
	}, time.Second, time.Millisecond)

	sched.SetTempo(90)
	require.Eventually(t, func() bool {
		states, _ := rec.snapshot()
		return len(states) > 0 && states[len(states)-1].Tempo == 90
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pumpEvents did not return after cancel")
	}

	states, devices := rec.snapshot()
	assert.Equal(t, []string{"out: Headphones"}, devices)
	assert.Equal(t, metronome.DefaultTempo, states[0].Tempo)
}

func TestPumpEventsStopsOnClose(t *testing.T) {
	sched := metronome.New(metronome.WithClock(metronome.NewFakeClock()))
	rec := &recordingSink{}
	done := make(chan struct{})
	go func() {
		pumpEvents(context.Background(), sched, rec, "")
		close(done)
	}()

	require.Eventually(t, func() bool {
		states, _ := rec.snapshot()
		return len(states) >= 1
	}, time.Second, time.Millisecond)
	sched.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pumpEvents did not return after Close")
	}
	_, devices := rec.snapshot()
	assert.Empty(t, devices)
}
