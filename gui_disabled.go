//go:build !gui

package main

// Stubs for non-GUI builds (never reached since guiMode stays false)
type noGUI struct{}

func (*noGUI) Quit() {}

var guiApp *noGUI

func initGUI() {
	panic("zmet: built without GUI support (rebuild with -tags gui)")
}

func attachGUI(eng *engine, quit func()) {}
