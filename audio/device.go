package audio

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

var ErrCanceled = errors.New("device selection canceled")

// SelectDevice lets the user pick an output device in a raw-mode terminal
// list. With a single device there is nothing to ask.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, ErrNoDevice
	}

	if len(devices) == 1 {
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}

	defer term.Restore(fd, oldState)

	cursor := 0
	renderList := func() {
		fmt.Print("\r\x1b[J")
		fmt.Print("Select output device (↑/↓, Enter to confirm, q to cancel):\r\n\r\n")
		for i, d := range devices {
			btTag := ""
			if IsBluetooth(d.Name) {
				btTag = " \x1b[33m[⚠ Higher latency, clicks will lag]\x1b[0m"
			}
			if i == cursor {
				fmt.Printf("  \x1b[1;36m▶ %s%s\x1b[0m\r\n", d.Name, btTag)
			} else {
				fmt.Printf("    %s%s\r\n", d.Name, btTag)
			}
		}
	}

	renderList()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}

		var act pickAction
		cursor, act = pickKey(buf[:n], cursor, len(devices))
		switch act {
		case pickConfirm:
			fmt.Print("\r\n")
			return &devices[cursor], nil
		case pickCancel:
			fmt.Print("\r\n")
			return nil, ErrCanceled
		}

		fmt.Printf("\x1b[%dA", len(devices)+2)
		renderList()
	}
}

type pickAction int

const (
	pickMove pickAction = iota
	pickConfirm
	pickCancel
)

// pickKey maps one raw terminal read onto the picker.
func pickKey(key []byte, cursor, count int) (int, pickAction) {
	switch {
	case len(key) == 1 && (key[0] == '\r' || key[0] == '\n'):
		return cursor, pickConfirm
	case len(key) == 1 && (key[0] == 3 || key[0] == 'q' || key[0] == 0x1b):
		return cursor, pickCancel
	case len(key) == 1 && key[0] == 'j',
		len(key) == 3 && key[0] == 0x1b && key[1] == '[' && key[2] == 'B':
		if cursor < count-1 {
			cursor++
		}
	case len(key) == 1 && key[0] == 'k',
		len(key) == 3 && key[0] == 0x1b && key[1] == '[' && key[2] == 'A':
		if cursor > 0 {
			cursor--
		}
	}
	return cursor, pickMove
}
