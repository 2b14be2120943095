package audio

import "sync"

// Queue is the sample FIFO between Enqueue callers and a backend's audio
// callback. Enqueued buffers play back to back in order.
type Queue struct {
	mu      sync.Mutex
	samples []float32
	pos     int
}

func (q *Queue) Enqueue(samples []float32) {
	if len(samples) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pos > 0 && q.pos >= len(q.samples)/2 {
		n := copy(q.samples, q.samples[q.pos:])
		q.samples = q.samples[:n]
		q.pos = 0
	}
	q.samples = append(q.samples, samples...)
}

// Fill copies pending samples into dst and pads the remainder with silence.
// It returns how many pending samples were copied.
func (q *Queue) Fill(dst []float32) int {
	q.mu.Lock()
	n := copy(dst, q.samples[q.pos:])
	q.pos += n
	if q.pos == len(q.samples) {
		q.samples = q.samples[:0]
		q.pos = 0
	}
	q.mu.Unlock()

	clear(dst[n:])
	return n
}

// Pending is the number of samples not yet handed to the device.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.samples) - q.pos
}

func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.samples = q.samples[:0]
	q.pos = 0
}
