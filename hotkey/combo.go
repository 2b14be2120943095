package hotkey

// Key codes from linux/input-event-codes.h.
const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
	keyLCtrl   = 29
	keyRCtrl   = 97
	keyLShift  = 42
	keyRShift  = 54
	keySpace   = 57
)

type edge int

const (
	edgeNone edge = iota
	edgeDown
	edgeUp
)

// comboState follows modifier and trigger keys across evdev key events and
// reports when the full combination goes down and when it is released.
type comboState struct {
	ctrl, shift, active bool
}

func (s *comboState) feed(code uint16, value int32) edge {
	pressed := value == keyPress
	released := value == keyRelease
	switch code {
	case keyLCtrl, keyRCtrl:
		s.ctrl = pressed || (!released && s.ctrl)
	case keyLShift, keyRShift:
		s.shift = pressed || (!released && s.shift)
	case keySpace:
		if pressed && !s.active && s.ctrl && s.shift {
			s.active = true
			return edgeDown
		}
		if released && s.active {
			s.active = false
			return edgeUp
		}
	}
	return edgeNone
}
