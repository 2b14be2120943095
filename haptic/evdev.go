package haptic

import (
	"encoding/binary"
	"math/bits"
	"strconv"
	"strings"
	"time"
)

// Linux input constants from linux/input.h and linux/input-event-codes.h.
const (
	evFF     = 0x15
	ffRumble = 0x50

	ffEffectSize   = 48 // struct ff_effect on 64-bit
	inputEventSize = 24

	rumbleLength = 60 * time.Millisecond
	rumbleStrong = 0xc000
	rumbleWeak   = 0x8000
)

// hasBit reports whether bit is set in a sysfs capability bitmap: hex words
// of the native long size, most significant word first.
func hasBit(caps string, bit int) bool {
	words := strings.Fields(caps)
	idx := len(words) - 1 - bit/bits.UintSize
	if idx < 0 || idx >= len(words) {
		return false
	}
	w, err := strconv.ParseUint(words[idx], 16, bits.UintSize)
	if err != nil {
		return false
	}
	return w&(1<<(uint(bit)%bits.UintSize)) != 0
}

// rumbleEffect encodes a struct ff_effect for an FF_RUMBLE upload. The id
// is -1 so the kernel allocates one.
func rumbleEffect() []byte {
	buf := make([]byte, ffEffectSize)
	le := binary.LittleEndian
	le.PutUint16(buf[0:], ffRumble)
	le.PutUint16(buf[2:], 0xffff) // id = -1
	le.PutUint16(buf[10:], uint16(rumbleLength/time.Millisecond))
	le.PutUint16(buf[16:], rumbleStrong)
	le.PutUint16(buf[18:], rumbleWeak)
	return buf
}

func effectID(effect []byte) int16 {
	return int16(binary.LittleEndian.Uint16(effect[2:]))
}

// playEvent encodes the input_event that starts effect id once.
func playEvent(id int16) []byte {
	buf := make([]byte, inputEventSize)
	le := binary.LittleEndian
	le.PutUint16(buf[16:], evFF)
	le.PutUint16(buf[18:], uint16(id))
	le.PutUint32(buf[20:], 1)
	return buf
}
