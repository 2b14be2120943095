// Package tone builds the metronome click: a short high sine burst that is
// generated once per sample rate and replayed on every beat.
package tone

import (
	"math"
	"time"
)

const (
	Frequency         = 15400
	Duration          = 50 * time.Millisecond
	DefaultSampleRate = 44100

	gain = 1.0
)

// Buffer is an immutable mono float32 click.
type Buffer struct {
	samples    []float32
	sampleRate uint32
}

// New renders the click at sampleRate. A zero rate yields an empty buffer.
func New(sampleRate uint32) Buffer {
	n := int(uint64(sampleRate) * uint64(Duration) / uint64(time.Second))
	samples := make([]float32, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		samples[i] = float32(math.Sin(2*math.Pi*Frequency*t) * gain)
	}
	return Buffer{samples: samples, sampleRate: sampleRate}
}

func (b Buffer) Len() int { return len(b.samples) }

func (b Buffer) At(i int) float32 { return b.samples[i] }

func (b Buffer) SampleRate() uint32 { return b.sampleRate }

// Duration is the playback length implied by Len and SampleRate.
func (b Buffer) Duration() time.Duration {
	if b.sampleRate == 0 {
		return 0
	}
	return time.Duration(len(b.samples)) * time.Second / time.Duration(b.sampleRate)
}

func (b Buffer) CopyTo(dst []float32) int {
	return copy(dst, b.samples)
}

// Samples returns a copy of the click.
func (b Buffer) Samples() []float32 {
	out := make([]float32, len(b.samples))
	copy(out, b.samples)
	return out
}
