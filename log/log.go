package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog     zerolog.Logger
	diagFile    *os.File
	sessionFile *os.File
	logMu       sync.Mutex
	logReady    bool
	pid         int
	dir         string
)

// Session describes one run of the metronome for the session log.
type Session struct {
	Start         time.Time
	Tempo         int
	Beats         uint64
	Sound         bool
	Visual        bool
	Haptic        bool
	Device        string
	HapticBackend string
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

// ResolveDir picks the log directory: the -logpath flag, then
// ZMET_LOG_PATH, then the OS default.
func ResolveDir(flagPath string) (string, error) {
	if flagPath != "" {
		return absolute(flagPath)
	}
	if envPath := os.Getenv("ZMET_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, "diagnostics_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	sessionFile, err = os.OpenFile(filepath.Join(dir, "sessions_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05.000",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if sessionFile != nil {
		sessionFile.Close()
		sessionFile = nil
	}
	logReady = false
}

// Logger returns the diagnostics logger for packages that log structured
// events themselves. Before Init it discards everything.
func Logger() zerolog.Logger {
	logMu.Lock()
	defer logMu.Unlock()
	if !logReady {
		return zerolog.Nop()
	}
	return diagLog
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Output(device string, sampleRate uint32, bluetooth bool) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("device", device).
		Uint32("sample_rate", sampleRate).
		Bool("bluetooth", bluetooth).
		Msg("audio_output")
}

// Click records one click handed to the audio output.
func Click(samples int) {
	if logReady {
		diagLog.Debug().Int("samples", samples).Msg("click")
	}
}

func SessionStart(s Session) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("bpm", s.Tempo).
		Bool("sound", s.Sound).
		Bool("visual", s.Visual).
		Bool("haptic", s.Haptic).
		Str("device", s.Device).
		Str("haptic_backend", s.HapticBackend).
		Msg("session_start")
}

// SessionEnd logs the end of a run and appends a one-line summary to
// sessions_log.txt.
func SessionEnd(s Session) {
	if !logReady {
		return
	}
	elapsed := time.Since(s.Start).Round(time.Second)
	diagLog.Info().
		Uint64("beats", s.Beats).
		Dur("elapsed", elapsed).
		Msg("session_end")

	logMu.Lock()
	defer logMu.Unlock()
	if sessionFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%d bpm\t%d beats\t%s\n",
		s.Start.Format("2006-01-02 15:04:05"), pid, s.Tempo, s.Beats, elapsed)
	sessionFile.WriteString(line)
}
