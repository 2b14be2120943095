package audio

import "sync"

// FakeContext is an in-memory Context. Err, when set, fails NewPlayback.
type FakeContext struct {
	DeviceList []DeviceInfo
	Err        error

	// OnEnqueue, when set, is passed to every playback the context creates.
	OnEnqueue func(samples int)

	mu        sync.Mutex
	playbacks []*FakePlayback
}

func NewFakeContext() *FakeContext {
	return &FakeContext{}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return f.DeviceList, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewPlayback(device *DeviceInfo, config PlaybackConfig) (PlaybackDevice, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	name := "fake"
	if device != nil {
		name = device.Name
	}
	p := &FakePlayback{name: name, config: config, onEnqueue: f.OnEnqueue}
	f.mu.Lock()
	f.playbacks = append(f.playbacks, p)
	f.mu.Unlock()
	return p, nil
}

// Playbacks returns every playback opened so far.
func (f *FakeContext) Playbacks() []*FakePlayback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakePlayback(nil), f.playbacks...)
}

// FakePlayback records what would have been played. Playing stays true
// from Play until Stop, like a real stream that pads with silence.
type FakePlayback struct {
	name      string
	config    PlaybackConfig
	onEnqueue func(samples int)
	queue     Queue

	mu       sync.Mutex
	enqueues int
	plays    int
	playing  bool
	closed   bool
}

func (p *FakePlayback) Enqueue(samples []float32) {
	p.queue.Enqueue(samples)
	p.mu.Lock()
	p.enqueues++
	cb := p.onEnqueue
	p.mu.Unlock()
	if cb != nil {
		cb(len(samples))
	}
}

func (p *FakePlayback) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *FakePlayback) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays++
	p.playing = true
	return nil
}

func (p *FakePlayback) Stop() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
	p.queue.Reset()
}

func (p *FakePlayback) Close() {
	p.Stop()
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *FakePlayback) DeviceName() string { return p.name }

func (p *FakePlayback) Enqueues() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enqueues
}

func (p *FakePlayback) Plays() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays
}

func (p *FakePlayback) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Drain reads n samples the way a device callback would.
func (p *FakePlayback) Drain(n int) []float32 {
	buf := make([]float32, n)
	p.queue.Fill(buf)
	return buf
}
