package metronome

import "time"

const (
	tapResetGap = 2 * time.Second
	tapWindow   = 4 // intervals averaged
)

// TapTempo estimates a tempo from a series of taps.
type TapTempo struct {
	taps []time.Time
}

// Tap records a tap at t. Once two or more taps fall within tapResetGap of
// each other it returns the clamped tempo of their average interval.
func (tt *TapTempo) Tap(t time.Time) (int, bool) {
	if n := len(tt.taps); n > 0 {
		gap := t.Sub(tt.taps[n-1])
		if gap <= 0 || gap > tapResetGap {
			tt.taps = tt.taps[:0]
		}
	}
	tt.taps = append(tt.taps, t)
	if len(tt.taps) > tapWindow+1 {
		tt.taps = tt.taps[len(tt.taps)-tapWindow-1:]
	}
	if len(tt.taps) < 2 {
		return 0, false
	}
	span := tt.taps[len(tt.taps)-1].Sub(tt.taps[0])
	avg := span / time.Duration(len(tt.taps)-1)
	return ClampTempo(float64(time.Minute) / float64(avg)), true
}

func (tt *TapTempo) Reset() {
	tt.taps = tt.taps[:0]
}
