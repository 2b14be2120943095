package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"zmet/audio"
	"zmet/config"
	"zmet/doctor"
	"zmet/haptic"
	"zmet/hotkey"
	"zmet/log"
	"zmet/metronome"
	"zmet/shutdown"
	"zmet/tone"
)

var version = "dev"

var guiMode bool

// sink receives state snapshots for whichever front-end is running.
var sink EventSink

const hotkeyDebounce = 150 * time.Millisecond

type flags struct {
	setup      *bool
	configPath *string
	logPath    *string
	version    *bool
	doctor     *bool
	test       *bool
	tui        *bool
	hotkey     *bool
	crash      *bool
}

// parseFlags registers every flag. Settings flags are read back through
// flag.Visit in loadConfig so only the ones passed override the config.
func parseFlags() flags {
	def := config.Default()
	flag.Float64("bpm", float64(def.BPM), "Tempo in beats per minute (40-200)")
	flag.Bool("sound", def.Sound, "Audible click on every beat")
	flag.Bool("visual", def.Visual, "Flash on every beat")
	flag.Bool("haptic", def.Haptic, "Haptic pulse on every beat")
	flag.String("haptic-backend", def.HapticBackend, "Haptic output: auto, rumble, bell, or none")
	flag.String("device", "", "Use named output device")
	flag.Uint("sample-rate", uint(def.SampleRate), "Click sample rate in Hz")
	flag.Bool("autostart", def.Autostart, "Start ticking immediately")
	flag.Bool("gui", false, "Run the desktop GUI (requires a build with -tags gui)")

	f := flags{
		setup:      flag.Bool("setup", false, "Select output device (otherwise uses system default)"),
		configPath: flag.String("config", "", "Config file (default: $XDG_CONFIG_HOME/zmet/config.yaml)"),
		logPath:    flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)"),
		version:    flag.Bool("version", false, "Print version and exit"),
		doctor:     flag.Bool("doctor", false, "Run output diagnostics and exit"),
		test:       flag.Bool("test", false, "Test mode (headless, stdin-driven)"),
		tui:        flag.Bool("tui", true, "Run with terminal UI"),
		hotkey:     flag.Bool("hotkey", true, "Toggle start/stop with "+hotkey.Combo),
		crash:      flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging"),
	}
	flag.Parse()
	return f
}

// settingFlags are the flags that map onto config.Config.
var settingFlags = map[string]bool{
	"bpm": true, "sound": true, "visual": true, "haptic": true,
	"haptic-backend": true, "device": true, "sample-rate": true, "autostart": true,
}

// loadConfig layers defaults, the config file, the environment and the
// flags the user actually passed.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	var setErr error
	flag.Visit(func(f *flag.Flag) {
		if setErr == nil && settingFlags[f.Name] {
			setErr = cfg.Set(f.Name, f.Value.String())
		}
	})
	if setErr != nil {
		return cfg, setErr
	}
	return cfg, cfg.Validate()
}

// crashLogDir finds the log directory before flag parsing so the crash log
// is in place before any cgo audio code runs.
func crashLogDir() string {
	args := os.Args[1:]
	var flagPath string
	for i, a := range args {
		a = strings.TrimLeft(a, "-")
		if v, ok := strings.CutPrefix(a, "logpath="); ok {
			flagPath = v
		} else if a == "logpath" && i+1 < len(args) {
			flagPath = args[i+1]
		}
	}
	dir, err := log.ResolveDir(flagPath)
	if err != nil {
		return ""
	}
	return dir
}

func initCrashLog() {
	dir := crashLogDir()
	if dir == "" || os.MkdirAll(dir, 0755) != nil {
		return
	}
	crashFile, err := os.OpenFile(filepath.Join(dir, "crash_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

// engine is everything that outlives the front-end.
type engine struct {
	sched    *metronome.Scheduler
	audioCtx audio.Context
	provider *tone.Provider
	haptic   haptic.Output
	session  log.Session

	shutdownOnce sync.Once
}

// newEngine opens the outputs and builds the scheduler. Audio and haptic
// failures degrade the matching modality instead of aborting.
func newEngine(cfg config.Config, ctx audio.Context, hap haptic.Output) *engine {
	e := &engine{audioCtx: ctx, haptic: hap}

	opts := []metronome.Option{
		metronome.WithLogger(log.Logger()),
		metronome.WithTempo(cfg.BPM),
		metronome.WithModalities(cfg.Sound, cfg.Visual, cfg.Haptic),
	}

	deviceName := "unavailable"
	if ctx != nil {
		var device *audio.DeviceInfo
		if cfg.Device != "" {
			d, err := audio.FindDevice(ctx, cfg.Device)
			if err != nil {
				log.Warnf("output device %q: %v, using default", cfg.Device, err)
			} else {
				device = d
			}
		}
		p, err := tone.NewProvider(ctx, device, cfg.SampleRate)
		if err != nil {
			log.Warnf("sound disabled: %v", err)
		} else {
			e.provider = p
			deviceName = p.Output().DeviceName()
			log.Output(deviceName, p.Buffer().SampleRate(), audio.IsBluetooth(deviceName))
			opts = append(opts, metronome.WithSound(p.Output(), p.Buffer().Samples()))
		}
	}

	if hap != nil && hap.Name() != "none" {
		opts = append(opts, metronome.WithHaptic(hap))
	}

	e.sched = metronome.New(opts...)
	e.session = log.Session{
		Start:         time.Now(),
		Tempo:         cfg.BPM,
		Sound:         cfg.Sound,
		Visual:        cfg.Visual,
		Haptic:        cfg.Haptic,
		Device:        deviceName,
		HapticBackend: hapticName(hap),
	}
	return e
}

func hapticName(h haptic.Output) string {
	if h == nil {
		return "none"
	}
	return h.Name()
}

func (e *engine) deviceLine() string {
	if e.provider == nil {
		return "sound unavailable"
	}
	name := e.provider.Output().DeviceName()
	if audio.IsBluetooth(name) {
		return "out: " + name + " (BT! clicks lag)"
	}
	return "out: " + name
}

// close releases the scheduler and outputs and writes the session summary.
func (e *engine) close() {
	e.shutdownOnce.Do(func() {
		e.session.Tempo = e.sched.Tempo()
		e.session.Beats = e.sched.Beats()
		e.sched.Close()
		if e.audioCtx != nil {
			e.audioCtx.Close()
		}
		log.SessionEnd(e.session)
	})
}

func run() {
	f := parseFlags()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*f.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if *f.crash {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *f.version {
		fmt.Printf("zmet %s\n", version)
		os.Exit(0)
	}

	cfg, err := loadConfig(*f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if *f.doctor {
		os.Exit(doctor.Run(doctor.Options{
			Device:        cfg.Device,
			HapticBackend: cfg.HapticBackend,
			SampleRate:    cfg.SampleRate,
		}))
	}

	// Resolve -setup into -device early (before daemonization)
	if *f.setup && cfg.Device == "" && !*f.test {
		ctx, err := audio.NewContext()
		if err != nil {
			fmt.Printf("Error initializing audio: %v\n", err)
			os.Exit(1)
		}
		if dev, err := audio.SelectDevice(ctx); err == nil {
			cfg.Device = dev.ID
		} else {
			fmt.Printf("Warning: device selection failed: %v\nFalling back to default device\n", err)
		}
		ctx.Close()
	}

	useTUI := *f.tui && !*f.test && !guiMode && isatty.IsTerminal(os.Stdout.Fd())

	// Daemonize in non-TUI mode: re-exec in background, return shell prompt
	if !*f.tui && !*f.test && !guiMode && os.Getenv("_ZMET_BG") == "" {
		daemonize(cfg)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	if *f.test {
		code := runTestMode(cfg, os.Stdin, os.Stdout)
		log.Close()
		os.Exit(code)
	}

	var audioCtx audio.Context
	if ctx, err := audio.NewContext(); err != nil {
		log.Warnf("audio context init error: %v", err)
	} else {
		audioCtx = ctx
	}

	var hapticOut io.Writer = os.Stdout
	if !useTUI {
		// Bell characters would land in whatever stdout was redirected to.
		hapticOut = io.Discard
	}
	hap, err := haptic.New(cfg.HapticBackend, hapticOut)
	if err != nil {
		log.Warnf("haptic disabled: %v", err)
		hap = haptic.None()
	}

	eng := newEngine(cfg, audioCtx, hap)
	log.SessionStart(eng.session)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := func() {
		cancel()
		eng.close()
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		if guiApp != nil {
			guiApp.Quit()
		}
		os.Exit(0)
	}

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		quit()
	}()

	if *f.hotkey {
		hk := hotkey.New()
		if err := hk.Register(); err != nil {
			log.Warnf("hotkey register error: %v", err)
		} else {
			defer hk.Unregister()
			go hotkey.Presses(ctx, hk, hotkeyDebounce, func() {
				running := eng.sched.ToggleRunning()
				log.Infof("hotkey_toggle running=%t", running)
			})
		}
	}

	if cfg.Autostart {
		eng.sched.Start()
	}

	switch {
	case guiMode:
		attachGUI(eng, quit)
		pumpEvents(ctx, eng.sched, sink, eng.deviceLine())
	case useTUI:
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(eng)
		sink = tuiSink{}
		tuiMu.Unlock()

		go pumpEvents(ctx, eng.sched, sink, eng.deviceLine())
		if _, err := tuiProgram.Run(); err != nil {
			log.Errorf("TUI error: %v", err)
		}
		quit()
	default:
		log.Info("running headless, toggle with " + hotkey.Combo)
		go handleJobControl(ctx, eng.sched)
		<-ctx.Done()
	}
}

// handleJobControl stops the metronome when the shell suspends the process
// and leaves it stopped after resume.
func handleJobControl(ctx context.Context, sched *metronome.Scheduler) {
	sigs := make(chan os.Signal, 2)
	shutdown.NotifySuspend(sigs)
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			switch {
			case shutdown.IsSuspend(sig):
				sched.HandleLifecycle(metronome.Background)
				if err := shutdown.Suspend(); err != nil {
					log.Warnf("suspend: %v", err)
				}
			case shutdown.IsResume(sig):
				sched.HandleLifecycle(metronome.Foreground)
			}
		}
	}
}

func daemonize(cfg config.Config) {
	args := os.Args[1:]
	if cfg.Device != "" {
		args = append(args, "-device", cfg.Device)
	}
	exe, _ := os.Executable()
	cmd := exec.Command(exe, args...)
	cmd.Env = append(os.Environ(), "_ZMET_BG=1")
	devnull, _ := os.Open(os.DevNull)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = devnull, devnull, devnull
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("zmet running in background (pid %d), toggle with %s\n", cmd.Process.Pid, hotkey.Combo)
	os.Exit(0)
}
