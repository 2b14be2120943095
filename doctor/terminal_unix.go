//go:build !windows

package doctor

import "os/exec"

// resetTerminal undoes raw mode left behind by the device picker or by a
// keyboard grab during the hotkey check.
func resetTerminal() {
	exec.Command("stty", "sane").Run()
}
