package hotkey

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestComboState(t *testing.T) {
	var st comboState
	steps := []struct {
		code  uint16
		value int32
		want  edge
	}{
		{keySpace, keyPress, edgeNone}, // no modifiers
		{keySpace, keyRelease, edgeNone},
		{keyLCtrl, keyPress, edgeNone},
		{keySpace, keyPress, edgeNone}, // ctrl only
		{keySpace, keyRelease, edgeNone},
		{keyRShift, keyPress, edgeNone},
		{keySpace, keyPress, edgeDown},
		{keySpace, 2, edgeNone}, // autorepeat
		{keyLCtrl, keyRelease, edgeNone},
		{keySpace, keyRelease, edgeUp}, // release after modifier still ends the press
		{keySpace, keyPress, edgeNone}, // ctrl gone
	}
	for i, s := range steps {
		if got := st.feed(s.code, s.value); got != s.want {
			t.Fatalf("step %d: got edge %d, want %d", i, got, s.want)
		}
	}
}

func TestPresses(t *testing.T) {
	hk := NewFake()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var n atomic.Int32
	done := make(chan struct{})
	go func() {
		Presses(ctx, hk, 0, func() { n.Add(1) })
		close(done)
	}()

	hk.SimTap()
	hk.SimTap()
	hk.SimKeydown()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Presses did not return after cancel")
	}
	if got := n.Load(); got != 3 {
		t.Errorf("got %d presses, want 3", got)
	}
}

func TestPressesDebounce(t *testing.T) {
	hk := NewFake()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var n atomic.Int32
	go Presses(ctx, hk, time.Hour, func() { n.Add(1) })

	hk.SimKeydown()
	hk.SimKeydown()
	hk.SimKeydown()
	// One more send makes sure the third press was handled.
	hk.SimKeyup()

	if got := n.Load(); got != 1 {
		t.Errorf("got %d presses, want 1", got)
	}
}
