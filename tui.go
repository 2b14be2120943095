package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"zmet/hotkey"
	"zmet/log"
	"zmet/metronome"
)

// TUI message types
type StateMsg struct{ State metronome.State }
type DeviceLineMsg struct{ Text string }

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

// tuiSink forwards engine events into the running Bubble Tea program.
type tuiSink struct{}

func (tuiSink) StateChanged(st metronome.State) { tuiSend(StateMsg{State: st}) }
func (tuiSink) DeviceLine(text string)          { tuiSend(DeviceLineMsg{Text: text}) }

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

type keyMap struct {
	Toggle     key.Binding
	Sound      key.Binding
	Visual     key.Binding
	Haptic     key.Binding
	Slower     key.Binding
	Faster     key.Binding
	MuchSlower key.Binding
	MuchFaster key.Binding
	Tap        key.Binding
	Help       key.Binding
	Suspend    key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle:     key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space", "start/stop")),
		Sound:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sound")),
		Visual:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "flash")),
		Haptic:     key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "haptic")),
		Slower:     key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "-1 bpm")),
		Faster:     key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "+1 bpm")),
		MuchSlower: key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "-10 bpm")),
		MuchFaster: key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "+10 bpm")),
		Tap:        key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "tap tempo")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Suspend:    key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("ctrl+z", "suspend")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Faster, k.Slower, k.Tap, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Tap, k.Suspend},
		{k.Faster, k.Slower, k.MuchFaster, k.MuchSlower},
		{k.Sound, k.Visual, k.Haptic},
		{k.Help, k.Quit},
	}
}

type tuiModel struct {
	sched         *metronome.Scheduler
	state         metronome.State
	keys          keyMap
	help          help.Model
	tap           metronome.TapTempo
	now           func() time.Time
	deviceLine    string
	width, height int
}

var (
	flashStyle  = lipgloss.NewStyle().Background(lipgloss.Color("196")).Foreground(lipgloss.Color("231"))
	darkStyle   = lipgloss.NewStyle().Background(lipgloss.Color("233")).Foreground(lipgloss.Color("250"))
	tempoStyle  = lipgloss.NewStyle().Bold(true)
	onStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	offStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func newTUIModel(eng *engine) tuiModel {
	return tuiModel{
		sched:      eng.sched,
		state:      eng.sched.State(),
		keys:       defaultKeyMap(),
		help:       help.New(),
		now:        time.Now,
		deviceLine: eng.deviceLine(),
	}
}

func NewTUIProgram(eng *engine) *tea.Program {
	return tea.NewProgram(newTUIModel(eng), tea.WithAltScreen(), tea.WithReportFocus())
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.FocusMsg:
		m.sched.HandleLifecycle(metronome.Foreground)

	case tea.BlurMsg:
		m.sched.HandleLifecycle(metronome.Inactive)
		m.state = m.sched.State()

	case tea.ResumeMsg:
		m.sched.HandleLifecycle(metronome.Foreground)

	case StateMsg:
		m.state = msg.State

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Suspend):
		m.sched.HandleLifecycle(metronome.Background)
		m.state = m.sched.State()
		return m, tea.Suspend
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		m.sched.ToggleRunning()
	case key.Matches(msg, m.keys.Sound):
		m.sched.ToggleModality(metronome.Sound)
	case key.Matches(msg, m.keys.Visual):
		m.sched.ToggleModality(metronome.Visual)
	case key.Matches(msg, m.keys.Haptic):
		m.sched.ToggleModality(metronome.Haptic)
	case key.Matches(msg, m.keys.Slower):
		m.nudge(-1)
	case key.Matches(msg, m.keys.Faster):
		m.nudge(1)
	case key.Matches(msg, m.keys.MuchSlower):
		m.nudge(-10)
	case key.Matches(msg, m.keys.MuchFaster):
		m.nudge(10)
	case key.Matches(msg, m.keys.Tap):
		if bpm, ok := m.tap.Tap(m.now()); ok {
			m.sched.SetTempo(float64(bpm))
			log.Infof("tap_tempo bpm=%d", bpm)
		}
	default:
		return m, nil
	}
	m.state = m.sched.State()
	return m, nil
}

func (m *tuiModel) nudge(delta int) {
	m.sched.SetTempo(float64(m.sched.Tempo() + delta))
}

func indicator(label string, on bool) string {
	if on {
		return onStyle.Render("● " + label)
	}
	return offStyle.Render("○ " + label)
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	st := m.state

	var lines []string
	lines = append(lines, tempoStyle.Render(fmt.Sprintf("%d BPM", st.Tempo)))

	switch {
	case st.Adjusting:
		lines = append(lines, offStyle.Render("◌ ADJUSTING"))
	case st.Running:
		lines = append(lines, statusStyle.Render(fmt.Sprintf("▶ RUNNING  beat %d", st.Beats)))
	default:
		lines = append(lines, offStyle.Render("■ STOPPED"))
	}
	lines = append(lines, "")

	sound := indicator("sound", st.Sound)
	if !st.SoundAvailable {
		sound += warnStyle.Render(" (unavailable)")
	}
	lines = append(lines, strings.Join([]string{
		sound,
		indicator("flash", st.Visual),
		indicator("haptic", st.Haptic),
	}, "   "))

	if m.deviceLine != "" {
		style := offStyle
		if strings.Contains(m.deviceLine, "BT!") || !st.SoundAvailable {
			style = warnStyle
		}
		lines = append(lines, style.Render(m.deviceLine))
	}

	lines = append(lines, "", m.help.View(m.keys))
	lines = append(lines, offStyle.Render(hotkey.Combo+" toggles from anywhere · zmet "+version))

	panel := darkStyle
	if st.Lit {
		panel = flashStyle
	}
	return panel.
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(lines, "\n"))
}
