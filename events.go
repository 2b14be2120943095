package main

import (
	"context"

	"zmet/metronome"
)

// EventSink abstracts the display layer so both the Bubble Tea TUI
// and the fyne GUI can receive the same scheduler updates.
type EventSink interface {
	StateChanged(st metronome.State)
	DeviceLine(text string)
}

// pumpEvents forwards every scheduler snapshot to sink until ctx is done or
// the scheduler closes. The output device line and the current state are
// sent first.
func pumpEvents(ctx context.Context, sched *metronome.Scheduler, sink EventSink, deviceLine string) {
	if sink == nil {
		return
	}
	ch, cancel := sched.Subscribe(8)
	defer cancel()

	if deviceLine != "" {
		sink.DeviceLine(deviceLine)
	}
	sink.StateChanged(sched.State())
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-ch:
			if !ok {
				return
			}
			sink.StateChanged(st)
		}
	}
}
