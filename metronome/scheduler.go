package metronome

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Tempo bounds and the tempo a new Scheduler starts at, in BPM.
const (
	MinTempo     = 40
	MaxTempo     = 200
	DefaultTempo = 120
)

// SoundOutput is the audio output a click is queued on.
type SoundOutput interface {
	Enqueue(samples []float32)
	IsPlaying() bool
	Play() error
}

// Pulser emits one discrete haptic pulse.
type Pulser interface {
	Pulse() error
}

// State is a snapshot of the scheduler.
type State struct {
	Tempo          int
	Running        bool
	Lit            bool
	Sound          bool
	Visual         bool
	Haptic         bool
	SoundAvailable bool
	Adjusting      bool
	Beats          uint64
}

// Enabled reports whether kind was switched on in the snapshot.
func (s State) Enabled(k Kind) bool {
	switch k {
	case Sound:
		return s.Sound
	case Visual:
		return s.Visual
	case Haptic:
		return s.Haptic
	}
	return false
}

// Interval is the wall-clock period between beats at bpm.
func Interval(bpm int) time.Duration {
	return time.Duration(60 * float64(time.Second) / float64(ClampTempo(float64(bpm))))
}

// ClampTempo rounds bpm to a whole beat and clamps it to [MinTempo, MaxTempo].
// NaN maps to DefaultTempo.
func ClampTempo(bpm float64) int {
	if math.IsNaN(bpm) {
		return DefaultTempo
	}
	bpm = math.Round(bpm)
	if bpm < MinTempo {
		return MinTempo
	}
	if bpm > MaxTempo {
		return MaxTempo
	}
	return int(bpm)
}

// Option configures a Scheduler in New.
type Option func(*Scheduler)

// WithClock replaces the system clock, for tests.
func WithClock(c Clock) Option { return func(s *Scheduler) { s.clock = c } }

// WithLogger sets the logger for tempo, start/stop and lifecycle events.
func WithLogger(l zerolog.Logger) Option { return func(s *Scheduler) { s.log = l } }

// WithSound wires the audio output and the click queued on every sound beat.
// A nil out leaves sound unavailable for the scheduler's lifetime.
func WithSound(out SoundOutput, click []float32) Option {
	return func(s *Scheduler) {
		s.sound = out
		s.click = click
	}
}

// WithHaptic wires the pulser fired on every haptic beat.
func WithHaptic(p Pulser) Option { return func(s *Scheduler) { s.haptic = p } }

// WithTempo sets the starting tempo, clamped like SetTempo.
func WithTempo(bpm int) Option {
	return func(s *Scheduler) { s.tempo = ClampTempo(float64(bpm)) }
}

// WithModalities sets which outputs start enabled. Without it all three
// start disabled.
func WithModalities(sound, visual, haptic bool) Option {
	return func(s *Scheduler) {
		s.enabled[Sound] = sound
		s.enabled[Visual] = visual
		s.enabled[Haptic] = haptic
	}
}

// tickSource is one live ticker plus the goroutine forwarding its ticks.
type tickSource struct {
	ticker   Ticker
	interval time.Duration
	done     chan struct{}
}

// Scheduler owns the tempo, running state, modality flags and the tick
// source. Every mutation and every tick runs under mu, so ticks never
// overlap each other or a concurrent control call.
type Scheduler struct {
	mu     sync.Mutex
	clock  Clock
	log    zerolog.Logger
	sound  SoundOutput
	click  []float32
	haptic Pulser

	tempo     int
	running   bool
	enabled   [kindCount]bool
	lit       bool
	beats     uint64
	adjusting bool
	resume    bool
	closed    bool

	src *tickSource

	subs    map[int]chan State
	nextSub int
}

// New returns a stopped Scheduler at DefaultTempo with every modality off.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock: SystemClock,
		log:   zerolog.Nop(),
		tempo: DefaultTempo,
		subs:  make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetTempo stores bpm after rounding and clamping and returns the stored
// value. While running, the tick source is replaced so the next beat already
// uses the new interval.
func (s *Scheduler) SetTempo(bpm float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	tempo := ClampTempo(bpm)
	if float64(tempo) != bpm {
		s.log.Debug().Float64("requested", bpm).Int("bpm", tempo).Msg("tempo_clamped")
	}
	if tempo == s.tempo {
		return tempo
	}
	s.tempo = tempo
	s.log.Info().Int("bpm", tempo).Msg("tempo_change")

	if s.running && !s.adjusting {
		s.installLocked()
	}
	s.publishLocked()
	return tempo
}

// SetModality toggles one modality without touching the tick source.
func (s *Scheduler) SetModality(kind Kind, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setModalityLocked(kind, enabled)
}

// ToggleModality flips kind and returns its new value.
func (s *Scheduler) ToggleModality(kind Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !kind.valid() {
		return false
	}
	s.setModalityLocked(kind, !s.enabled[kind])
	return s.enabled[kind]
}

func (s *Scheduler) setModalityLocked(kind Kind, enabled bool) {
	if !kind.valid() || s.enabled[kind] == enabled {
		return
	}
	s.enabled[kind] = enabled
	if kind == Visual && !enabled {
		s.lit = false
	}
	s.log.Info().Str("modality", kind.String()).Bool("enabled", enabled).Msg("modality_change")
	s.publishLocked()
}

// Start installs a fresh tick source at the current tempo. Starting while
// already running tears the old source down first.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked()
}

func (s *Scheduler) startLocked() {
	if s.closed {
		return
	}
	s.adjusting = false
	s.resume = false
	s.installLocked()
	if !s.running {
		s.running = true
		s.log.Info().Int("bpm", s.tempo).Msg("start")
	}
	s.publishLocked()
}

// Stop tears down the tick source and clears the lit phase.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	s.cancelLocked()
	s.adjusting = false
	s.resume = false
	wasRunning := s.running
	s.running = false
	s.lit = false
	if wasRunning {
		s.log.Info().Uint64("beats", s.beats).Msg("stop")
	}
	s.publishLocked()
}

// ToggleRunning starts a stopped scheduler and stops a running one. It
// reports whether the scheduler is running afterwards.
func (s *Scheduler) ToggleRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.adjusting && s.resume {
		s.stopLocked()
	} else {
		s.startLocked()
	}
	return s.running
}

// BeginAdjust suspends ticking while the tempo control is being dragged.
func (s *Scheduler) BeginAdjust() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adjusting || s.closed {
		return
	}
	s.adjusting = true
	s.resume = s.running
	s.cancelLocked()
	s.running = false
	s.lit = false
	s.publishLocked()
}

// EndAdjust resumes ticking at the adjusted tempo if the scheduler was
// running when BeginAdjust was called.
func (s *Scheduler) EndAdjust() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.adjusting {
		return
	}
	resume := s.resume
	s.adjusting = false
	s.resume = false
	if resume {
		s.startLocked()
		return
	}
	s.publishLocked()
}

// HandleLifecycle forces a stop for every phase except Foreground.
func (s *Scheduler) HandleLifecycle(phase Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Info().Str("phase", phase.String()).Bool("running", s.running).Msg("lifecycle")
	if phase == Foreground {
		return
	}
	s.stopLocked()
}

// Close stops the scheduler for good and releases the outputs.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopLocked()
	s.closed = true
	if c, ok := s.sound.(interface{ Close() }); ok {
		c.Close()
	}
	if c, ok := s.haptic.(interface{ Close() error }); ok {
		c.Close()
	}
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

// State returns a snapshot of everything below.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Tempo returns the stored tempo in BPM.
func (s *Scheduler) Tempo() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tempo
}

// Running reports whether a tick source is live.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Lit reports the visual flash phase. It is only true while running with
// visual enabled.
func (s *Scheduler) Lit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lit
}

// Enabled reports whether kind is switched on.
func (s *Scheduler) Enabled(kind Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return kind.valid() && s.enabled[kind]
}

// SoundAvailable reports whether an audio output was wired with WithSound.
func (s *Scheduler) SoundAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sound != nil
}

// Beats counts dispatched ticks since New.
func (s *Scheduler) Beats() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beats
}

// Subscribe returns a channel receiving a snapshot after every change. When
// the buffer is full the oldest pending snapshot is dropped, so the latest
// state is always delivered and publishing never blocks. The returned func
// unsubscribes and closes the channel.
func (s *Scheduler) Subscribe(buffer int) (<-chan State, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan State, buffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Scheduler) stateLocked() State {
	return State{
		Tempo:          s.tempo,
		Running:        s.running,
		Lit:            s.lit,
		Sound:          s.enabled[Sound],
		Visual:         s.enabled[Visual],
		Haptic:         s.enabled[Haptic],
		SoundAvailable: s.sound != nil,
		Adjusting:      s.adjusting,
		Beats:          s.beats,
	}
}

func (s *Scheduler) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	st := s.stateLocked()
	for _, ch := range s.subs {
		select {
		case ch <- st:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

// installLocked replaces the current tick source with a new one at the
// current tempo.
func (s *Scheduler) installLocked() {
	s.cancelLocked()
	interval := Interval(s.tempo)
	src := &tickSource{
		ticker:   s.clock.NewTicker(interval),
		interval: interval,
		done:     make(chan struct{}),
	}
	s.src = src
	go s.run(src)
}

// cancelLocked retires the live tick source. A tick it already delivered
// is discarded by onTick because src no longer matches.
func (s *Scheduler) cancelLocked() {
	if s.src == nil {
		return
	}
	s.src.ticker.Stop()
	close(s.src.done)
	s.src = nil
}

func (s *Scheduler) run(src *tickSource) {
	for {
		select {
		case <-src.done:
			return
		case <-src.ticker.C():
			s.onTick(src)
		}
	}
}

func (s *Scheduler) onTick(src *tickSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.src != src {
		return
	}
	s.beats++

	if s.enabled[Sound] && s.sound != nil {
		s.safely(Sound, s.playClick)
	}
	if s.enabled[Visual] {
		s.lit = !s.lit
	} else {
		s.lit = false
	}
	if s.enabled[Haptic] && s.haptic != nil {
		s.safely(Haptic, s.pulseHaptic)
	}
	s.publishLocked()
}

func (s *Scheduler) playClick() error {
	s.sound.Enqueue(s.click)
	if !s.sound.IsPlaying() {
		return s.sound.Play()
	}
	return nil
}

func (s *Scheduler) pulseHaptic() error {
	return s.haptic.Pulse()
}

// safely runs one modality's effect so a failure or panic in it cannot keep
// the other modalities from firing.
func (s *Scheduler) safely(kind Kind, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("modality", kind.String()).Str("panic", fmt.Sprint(r)).Msg("beat_output_panic")
		}
	}()
	if err := fn(); err != nil {
		s.log.Debug().Str("modality", kind.String()).Err(err).Msg("beat_output_failed")
	}
}
