//go:build gui

package main

import (
	"runtime"

	"zmet/gui"
)

var guiApp *gui.App

func initGUI() {
	guiMode = true

	// Fyne/GLFW need this goroutine on the main OS thread.
	runtime.LockOSThread()

	guiApp = gui.NewApp(func() {
		run()
	})
	sink = guiApp
	if err := gui.Run(guiApp); err != nil {
		panic(err)
	}
}

// attachGUI hands the scheduler to the window once the engine exists.
func attachGUI(eng *engine, quit func()) {
	guiApp.Attach(eng.sched, quit)
}
