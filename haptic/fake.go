package haptic

import "sync"

// Recorder is an Output that counts pulses. Err, when set, is returned from
// every Pulse.
type Recorder struct {
	Err error

	mu     sync.Mutex
	pulses int
	closed bool
}

func (r *Recorder) Pulse() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pulses++
	return r.Err
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *Recorder) Pulses() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pulses
}

func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
