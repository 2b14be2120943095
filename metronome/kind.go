package metronome

import (
	"fmt"
	"strings"
)

// Kind identifies one output modality.
type Kind int

const (
	Sound Kind = iota
	Visual
	Haptic

	kindCount
)

// Kinds lists every modality in display order.
var Kinds = []Kind{Sound, Visual, Haptic}

func (k Kind) String() string {
	switch k {
	case Sound:
		return "sound"
	case Visual:
		return "visual"
	case Haptic:
		return "haptic"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) valid() bool { return k >= 0 && k < kindCount }

// ParseKind accepts the String form plus the sound/sight/feel labels
// shown in the UI.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sound", "click":
		return Sound, nil
	case "visual", "sight", "flash":
		return Visual, nil
	case "haptic", "feel", "tap":
		return Haptic, nil
	}
	return 0, fmt.Errorf("unknown modality %q", s)
}

// Phase is the hosting application's lifecycle state.
type Phase int

const (
	Foreground Phase = iota
	Inactive
	Background
)

func (p Phase) String() string {
	switch p {
	case Foreground:
		return "foreground"
	case Inactive:
		return "inactive"
	case Background:
		return "background"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "foreground", "active":
		return Foreground, nil
	case "inactive":
		return Inactive, nil
	case "background":
		return Background, nil
	}
	return 0, fmt.Errorf("unknown lifecycle phase %q", s)
}
