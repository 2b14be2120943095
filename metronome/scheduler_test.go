package metronome

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSound struct {
	mu       sync.Mutex
	enqueued int
	plays    int
	playing  bool
	closed   bool
	panics   bool
}

func (f *fakeSound) Enqueue(samples []float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics {
		panic("device gone")
	}
	f.enqueued++
}

func (f *fakeSound) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *fakeSound) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	f.playing = true
	return nil
}

func (f *fakeSound) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSound) counts() (enqueued, plays int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enqueued, f.plays
}

type fakePulser struct {
	mu     sync.Mutex
	pulses int
	err    error
}

func (f *fakePulser) Pulse() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulses++
	return f.err
}

func (f *fakePulser) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pulses
}

var (
	_ SoundOutput = (*fakeSound)(nil)
	_ Pulser      = (*fakePulser)(nil)
)

var click = []float32{0, 0.5, 1, 0.5, 0}

func newTestScheduler(t *testing.T, opts ...Option) (*Scheduler, *FakeClock) {
	t.Helper()
	clock := NewFakeClock()
	s := New(append([]Option{WithClock(clock)}, opts...)...)
	t.Cleanup(s.Close)
	return s, clock
}

func liveSource(s *Scheduler) *tickSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src
}

// tick runs the dispatch for the live source synchronously.
func tick(t *testing.T, s *Scheduler) {
	t.Helper()
	src := liveSource(s)
	require.NotNil(t, src, "no live tick source")
	s.onTick(src)
}

func requireInvariant(t *testing.T, s *Scheduler) {
	t.Helper()
	st := s.State()
	if st.Lit {
		require.True(t, st.Running, "lit while stopped")
		require.True(t, st.Visual, "lit while visual disabled")
	}
}

func TestNewDefaults(t *testing.T) {
	s, _ := newTestScheduler(t)
	st := s.State()
	assert.Equal(t, DefaultTempo, st.Tempo)
	assert.False(t, st.Running)
	assert.False(t, st.SoundAvailable)
	for _, k := range Kinds {
		assert.False(t, st.Enabled(k), k.String())
	}

	s2, _ := newTestScheduler(t, WithSound(&fakeSound{}, click), WithModalities(true, true, false))
	assert.True(t, s2.SoundAvailable())
	assert.True(t, s2.Enabled(Sound))
	assert.True(t, s2.Enabled(Visual))
	assert.False(t, s2.Enabled(Haptic))
}

func TestSetTempoInRange(t *testing.T) {
	s, _ := newTestScheduler(t)
	for bpm := MinTempo; bpm <= MaxTempo; bpm++ {
		got := s.SetTempo(float64(bpm))
		require.Equal(t, bpm, got)
		require.Equal(t, bpm, s.Tempo())
	}
}

func TestSetTempoClamps(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, MinTempo},
		{39, MinTempo},
		{-120, MinTempo},
		{201, MaxTempo},
		{1000, MaxTempo},
		{math.Inf(1), MaxTempo},
		{119.6, 120},
		{40.4, 40},
		{math.NaN(), DefaultTempo},
	}
	for _, tt := range tests {
		s, _ := newTestScheduler(t, WithTempo(90))
		assert.Equal(t, tt.want, s.SetTempo(tt.in), "SetTempo(%v)", tt.in)
		assert.Equal(t, tt.want, s.Tempo(), "Tempo after SetTempo(%v)", tt.in)
	}
}

func TestInterval(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, Interval(120))
	assert.Equal(t, 1500*time.Millisecond, Interval(40))
	assert.Equal(t, 300*time.Millisecond, Interval(200))
	assert.Equal(t, time.Second, Interval(60))
}

func TestSetTempoWhileStoppedOnlyStores(t *testing.T) {
	s, clock := newTestScheduler(t)
	s.SetTempo(80)
	assert.Empty(t, clock.Tickers())
	assert.False(t, s.Running())
}

func TestStartTwiceKeepsOneTickSource(t *testing.T) {
	s, clock := newTestScheduler(t)
	s.Start()
	s.Start()

	require.Len(t, clock.Tickers(), 2)
	require.Len(t, clock.Live(), 1)
	assert.True(t, clock.Tickers()[0].Stopped())
	assert.Equal(t, Interval(DefaultTempo), clock.Live()[0].Period())
	assert.True(t, s.Running())
}

func TestTempoChangeWhileRunningRebuildsSource(t *testing.T) {
	s, clock := newTestScheduler(t)
	s.Start()
	old := clock.Last()

	s.SetTempo(60)

	require.Len(t, clock.Live(), 1)
	assert.True(t, old.Stopped())
	assert.False(t, old.Fire(), "stale ticker still delivering")
	assert.Equal(t, time.Second, clock.Last().Period())
	assert.True(t, s.Running())
	assert.Zero(t, s.Beats(), "tempo change emitted a tick")
}

func TestSameTempoDoesNotRebuild(t *testing.T) {
	s, clock := newTestScheduler(t)
	s.Start()
	s.SetTempo(float64(DefaultTempo))
	assert.Len(t, clock.Tickers(), 1)
}

func TestTicksFromClock(t *testing.T) {
	snd := &fakeSound{}
	s, clock := newTestScheduler(t, WithSound(snd, click), WithModalities(true, false, false))
	s.Start()

	for i := 0; i < 3; i++ {
		require.True(t, clock.Last().Fire())
	}
	require.Eventually(t, func() bool { return s.Beats() == 3 }, time.Second, time.Millisecond)
	enq, _ := snd.counts()
	assert.Equal(t, 3, enq)
}

func TestSoundOnlyTick(t *testing.T) {
	snd := &fakeSound{}
	s, _ := newTestScheduler(t, WithSound(snd, click), WithModalities(true, false, false))
	s.Start()

	for i := 1; i <= 5; i++ {
		tick(t, s)
		enq, _ := snd.counts()
		require.Equal(t, i, enq)
		require.False(t, s.Lit())
	}
	_, plays := snd.counts()
	assert.Equal(t, 1, plays, "Play should only be called while idle")
}

func TestSoundAppendsWhilePlaying(t *testing.T) {
	snd := &fakeSound{playing: true}
	s, _ := newTestScheduler(t, WithSound(snd, click), WithModalities(true, false, false))
	s.Start()
	tick(t, s)
	tick(t, s)

	enq, plays := snd.counts()
	assert.Equal(t, 2, enq)
	assert.Zero(t, plays)
}

func TestSoundUnavailable(t *testing.T) {
	s, _ := newTestScheduler(t, WithModalities(true, true, false))
	assert.False(t, s.SoundAvailable())
	s.Start()
	tick(t, s)
	assert.True(t, s.Lit())
	assert.True(t, s.Enabled(Sound))
}

func TestVisualTogglesLit(t *testing.T) {
	s, _ := newTestScheduler(t, WithModalities(false, true, false))
	s.Start()

	tick(t, s)
	assert.True(t, s.Lit())
	tick(t, s)
	assert.False(t, s.Lit())
	tick(t, s)
	assert.True(t, s.Lit())
}

func TestDisableVisualClearsLitImmediately(t *testing.T) {
	s, _ := newTestScheduler(t, WithModalities(false, true, false))
	s.Start()
	tick(t, s)
	require.True(t, s.Lit())

	s.SetModality(Visual, false)
	assert.False(t, s.Lit())
	assert.True(t, s.Running())
}

func TestModalityToggleKeepsTickSource(t *testing.T) {
	s, clock := newTestScheduler(t)
	s.Start()
	for _, k := range Kinds {
		s.ToggleModality(k)
		s.ToggleModality(k)
	}
	assert.Len(t, clock.Tickers(), 1)
	assert.True(t, s.Running())
}

func TestHapticFailureDoesNotBlockOthers(t *testing.T) {
	snd := &fakeSound{panics: true}
	hp := &fakePulser{err: errors.New("unsupported")}
	s, _ := newTestScheduler(t, WithSound(snd, click), WithHaptic(hp), WithModalities(true, true, true))
	s.Start()

	tick(t, s)
	assert.True(t, s.Lit())
	assert.Equal(t, 1, hp.count())
	tick(t, s)
	assert.False(t, s.Lit())
	assert.Equal(t, 2, hp.count())
}

func TestStopClearsLitAndRejectsGhostTick(t *testing.T) {
	s, clock := newTestScheduler(t, WithModalities(false, true, false))
	s.Start()
	tick(t, s)
	require.True(t, s.Lit())
	src := liveSource(s)

	s.Stop()
	assert.False(t, s.Running())
	assert.False(t, s.Lit())
	assert.True(t, clock.Last().Stopped())

	s.onTick(src)
	assert.Equal(t, uint64(1), s.Beats())
	assert.False(t, s.Lit())
}

func TestToggleRunning(t *testing.T) {
	s, clock := newTestScheduler(t)
	assert.True(t, s.ToggleRunning())
	assert.Len(t, clock.Live(), 1)
	assert.False(t, s.ToggleRunning())
	assert.Empty(t, clock.Live())
}

func TestLifecycle(t *testing.T) {
	for _, phase := range []Phase{Inactive, Background, Phase(42)} {
		s, clock := newTestScheduler(t)
		s.Start()
		ticker := clock.Last()

		s.HandleLifecycle(phase)
		assert.False(t, s.Running(), phase.String())
		assert.False(t, ticker.Fire(), "%s: ticker still live", phase)
		assert.Zero(t, s.Beats())
	}

	s, clock := newTestScheduler(t)
	s.Start()
	s.HandleLifecycle(Foreground)
	assert.True(t, s.Running())
	assert.Len(t, clock.Live(), 1)
}

func TestLitInvariant(t *testing.T) {
	s, _ := newTestScheduler(t, WithModalities(false, true, false))
	ops := []func(){
		s.Start,
		func() { tick(t, s) },
		func() { s.SetTempo(150) },
		func() { tick(t, s) },
		s.Stop,
		s.Start,
		func() { tick(t, s) },
		func() { s.SetModality(Visual, false) },
		func() { tick(t, s) },
		func() { s.SetModality(Visual, true) },
		func() { tick(t, s) },
		func() { s.HandleLifecycle(Background) },
		s.Start,
		func() { tick(t, s) },
		s.BeginAdjust,
		s.EndAdjust,
		func() { tick(t, s) },
	}
	for _, op := range ops {
		op()
		requireInvariant(t, s)
	}
}

func TestAdjustSuspendsAndResumes(t *testing.T) {
	s, clock := newTestScheduler(t, WithModalities(false, true, false))
	s.Start()
	tick(t, s)
	first := clock.Last()

	s.BeginAdjust()
	assert.False(t, s.Running())
	assert.False(t, s.Lit())
	assert.True(t, s.State().Adjusting)
	assert.True(t, first.Stopped())

	s.SetTempo(90)
	assert.Len(t, clock.Tickers(), 1, "tempo change during adjust rebuilt the source")

	s.EndAdjust()
	assert.True(t, s.Running())
	require.Len(t, clock.Live(), 1)
	assert.Equal(t, Interval(90), clock.Last().Period())
}

func TestAdjustWhileStoppedStaysStopped(t *testing.T) {
	s, clock := newTestScheduler(t)
	s.BeginAdjust()
	s.SetTempo(70)
	s.EndAdjust()
	assert.False(t, s.Running())
	assert.Empty(t, clock.Tickers())
	assert.Equal(t, 70, s.Tempo())
}

func TestSubscribe(t *testing.T) {
	s, _ := newTestScheduler(t)
	ch, cancel := s.Subscribe(4)
	defer cancel()

	s.SetTempo(100)
	select {
	case st := <-ch:
		assert.Equal(t, 100, st.Tempo)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
}

func TestSubscribeSlowReaderGetsLatest(t *testing.T) {
	s, _ := newTestScheduler(t)
	ch, cancel := s.Subscribe(1)
	defer cancel()

	for bpm := 41; bpm <= 60; bpm++ {
		s.SetTempo(float64(bpm))
	}
	st := <-ch
	assert.Equal(t, 60, st.Tempo)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	s, _ := newTestScheduler(t)
	ch, cancel := s.Subscribe(1)
	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestClose(t *testing.T) {
	snd := &fakeSound{}
	s, clock := newTestScheduler(t, WithSound(snd, click))
	ch, _ := s.Subscribe(1)
	s.Start()

	s.Close()
	assert.False(t, s.Running())
	assert.True(t, snd.closed)
	assert.Empty(t, clock.Live())

	s.Start()
	assert.False(t, s.Running(), "Start after Close")

	for range ch {
	}
}
