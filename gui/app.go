//go:build gui

package gui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/go-gl/glfw/v3.3/glfw"

	"zmet/metronome"
)

// Controller is the part of the scheduler the window drives.
type Controller interface {
	State() metronome.State
	SetTempo(bpm float64) int
	ToggleRunning() bool
	SetModality(kind metronome.Kind, enabled bool)
	BeginAdjust()
	EndAdjust()
	HandleLifecycle(phase metronome.Phase)
}

type App struct {
	fyneApp fyne.App
	window  fyne.Window
	onReady func()

	ctrl Controller
	quit func()

	flash    *canvas.Rectangle
	tempo    *canvas.Text
	status   *widget.Label
	device   *widget.Label
	slider   *widget.Slider
	startBtn *widget.Button
	checks   map[metronome.Kind]*widget.Check
	trayRun  *fyne.MenuItem
	trayMenu *fyne.Menu

	tap       metronome.TapTempo
	adjusting bool
	syncing   bool
	onTop     bool
	lastLit   bool
}

func NewApp(onReady func()) *App {
	return &App{onReady: onReady}
}

func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.zmet.gui")
	a.fyneApp.Settings().SetTheme(&flashTheme{})

	a.window = a.fyneApp.NewWindow("zmet")
	a.window.SetContent(a.build())
	a.window.Resize(fyne.NewSize(360, 300))
	a.window.SetCloseIntercept(a.requestQuit)
	a.window.Canvas().SetOnTypedKey(a.typedKey)

	if desk, ok := a.fyneApp.(desktop.App); ok {
		a.trayRun = fyne.NewMenuItem("Start", func() { a.toggle() })
		top := fyne.NewMenuItem("Keep on top", nil)
		top.Action = func() {
			a.setOnTop(!a.onTop)
			top.Checked = a.onTop
			a.trayMenu.Refresh()
		}
		a.trayMenu = fyne.NewMenu("zmet",
			a.trayRun,
			top,
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Show", func() { a.window.Show() }),
		)
		desk.SetSystemTrayMenu(a.trayMenu)
		desk.SetSystemTrayIcon(fyne.NewStaticResource("tray.png", TrayIcon(false)))
	}

	life := a.fyneApp.Lifecycle()
	life.SetOnEnteredForeground(func() { a.lifecycle(metronome.Foreground) })
	life.SetOnExitedForeground(func() { a.lifecycle(metronome.Inactive) })

	go a.onReady()

	a.window.ShowAndRun()
	return nil
}

func (a *App) build() fyne.CanvasObject {
	a.flash = canvas.NewRectangle(colorDark)

	a.tempo = canvas.NewText("120 BPM", colorText)
	a.tempo.TextSize = 42
	a.tempo.TextStyle = fyne.TextStyle{Bold: true}
	a.tempo.Alignment = fyne.TextAlignCenter

	a.status = widget.NewLabel("stopped")
	a.status.Alignment = fyne.TextAlignCenter
	a.device = widget.NewLabel("")
	a.device.Alignment = fyne.TextAlignCenter
	a.device.Truncation = fyne.TextTruncateEllipsis

	a.slider = widget.NewSlider(metronome.MinTempo, metronome.MaxTempo)
	a.slider.Step = 1
	a.slider.OnChanged = a.sliderChanged
	a.slider.OnChangeEnded = a.sliderEnded

	a.startBtn = widget.NewButton("Start", func() { a.toggle() })
	a.startBtn.Importance = widget.HighImportance
	tapBtn := widget.NewButton("Tap", a.tapTempo)

	a.checks = make(map[metronome.Kind]*widget.Check)
	labels := map[metronome.Kind]string{
		metronome.Sound:  "Sound",
		metronome.Visual: "Flash",
		metronome.Haptic: "Haptic",
	}
	var row []fyne.CanvasObject
	for _, k := range metronome.Kinds {
		kind := k
		c := widget.NewCheck(labels[kind], func(on bool) {
			if a.syncing || a.ctrl == nil {
				return
			}
			a.ctrl.SetModality(kind, on)
		})
		a.checks[kind] = c
		row = append(row, c)
	}

	body := container.NewVBox(
		a.tempo,
		a.status,
		a.slider,
		container.NewGridWithColumns(2, a.startBtn, tapBtn),
		container.NewCenter(container.NewHBox(row...)),
		a.device,
	)
	return container.NewStack(a.flash, container.NewPadded(body))
}

// Attach connects the window to the scheduler once the engine is up.
func (a *App) Attach(ctrl Controller, quit func()) {
	a.ctrl = ctrl
	a.quit = quit
	st := ctrl.State()
	fyne.Do(func() { a.apply(st) })
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		fyne.Do(a.fyneApp.Quit)
	}
}

func (a *App) requestQuit() {
	if a.quit != nil {
		go a.quit()
		return
	}
	a.fyneApp.Quit()
}

// EventSink implementation. Widgets are only touched inside fyne.Do.
func (a *App) StateChanged(st metronome.State) {
	fyne.Do(func() { a.apply(st) })
}

func (a *App) DeviceLine(text string) {
	fyne.Do(func() { a.device.SetText(text) })
}

func (a *App) apply(st metronome.State) {
	if a.flash == nil {
		return
	}
	if st.Lit {
		a.flash.FillColor = colorFlash
	} else {
		a.flash.FillColor = colorDark
	}
	a.flash.Refresh()

	a.tempo.Text = fmt.Sprintf("%d BPM", st.Tempo)
	a.tempo.Refresh()

	switch {
	case st.Adjusting:
		a.status.SetText("adjusting")
	case st.Running:
		a.status.SetText(fmt.Sprintf("running, beat %d", st.Beats))
	default:
		a.status.SetText("stopped")
	}

	a.syncing = true
	if !a.adjusting {
		a.slider.SetValue(float64(st.Tempo))
	}
	for kind, c := range a.checks {
		c.SetChecked(st.Enabled(kind))
	}
	a.syncing = false

	if st.SoundAvailable {
		a.checks[metronome.Sound].Enable()
	} else {
		a.checks[metronome.Sound].Disable()
	}

	label := "Start"
	if st.Running || st.Adjusting {
		label = "Stop"
	}
	if a.startBtn.Text != label {
		a.startBtn.SetText(label)
		if a.trayRun != nil {
			a.trayRun.Label = label
			a.trayMenu.Refresh()
		}
	}

	if desk, ok := a.fyneApp.(desktop.App); ok && st.Lit != a.lastLit {
		desk.SetSystemTrayIcon(fyne.NewStaticResource("tray.png", TrayIcon(st.Lit)))
	}
	a.lastLit = st.Lit
}

func (a *App) toggle() {
	if a.ctrl == nil {
		return
	}
	a.ctrl.ToggleRunning()
}

func (a *App) lifecycle(phase metronome.Phase) {
	if a.ctrl != nil {
		a.ctrl.HandleLifecycle(phase)
	}
}

func (a *App) sliderChanged(v float64) {
	if a.syncing || a.ctrl == nil {
		return
	}
	if !a.adjusting {
		a.adjusting = true
		a.ctrl.BeginAdjust()
	}
	a.ctrl.SetTempo(v)
}

func (a *App) sliderEnded(v float64) {
	if a.ctrl == nil {
		return
	}
	if !a.adjusting {
		// A click without a drag still lands here.
		a.ctrl.SetTempo(v)
		return
	}
	a.adjusting = false
	a.ctrl.SetTempo(v)
	a.ctrl.EndAdjust()
}

func (a *App) tapTempo() {
	if a.ctrl == nil {
		return
	}
	if bpm, ok := a.tap.Tap(timeNow()); ok {
		a.ctrl.SetTempo(float64(bpm))
	}
}

func (a *App) typedKey(ev *fyne.KeyEvent) {
	if a.ctrl == nil {
		return
	}
	switch ev.Name {
	case fyne.KeySpace, fyne.KeyReturn:
		a.toggle()
	case fyne.KeyLeft:
		a.ctrl.SetTempo(float64(a.ctrl.State().Tempo - 1))
	case fyne.KeyRight:
		a.ctrl.SetTempo(float64(a.ctrl.State().Tempo + 1))
	case fyne.KeyDown:
		a.ctrl.SetTempo(float64(a.ctrl.State().Tempo - 10))
	case fyne.KeyUp:
		a.ctrl.SetTempo(float64(a.ctrl.State().Tempo + 10))
	case fyne.KeyT:
		a.tapTempo()
	}
}

// setOnTop pins the window above others. Fyne has no API for this, so it
// goes through GLFW on the main thread.
func (a *App) setOnTop(on bool) {
	a.onTop = on
	win := glfw.GetCurrentContext()
	if win == nil {
		return
	}
	v := glfw.False
	if on {
		v = glfw.True
	}
	win.SetAttrib(glfw.Floating, v)
}

var (
	colorDark  color.Color = color.RGBA{18, 18, 18, 255}
	colorFlash color.Color = color.RGBA{215, 0, 0, 255}
	colorText  color.Color = color.RGBA{230, 230, 230, 255}
)
