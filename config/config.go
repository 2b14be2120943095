// Package config assembles the startup settings. Sources apply in order
// defaults < YAML file < environment < explicit flags. Nothing is ever
// written back.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"zmet/haptic"
	"zmet/metronome"
	"zmet/tone"
)

const (
	AppSlug        = "zmet"
	configFileName = "config.yaml"
)

type Config struct {
	BPM           int    `yaml:"bpm"`
	Sound         bool   `yaml:"sound"`
	Visual        bool   `yaml:"visual"`
	Haptic        bool   `yaml:"haptic"`
	HapticBackend string `yaml:"haptic_backend"`
	Device        string `yaml:"device"`
	SampleRate    uint32 `yaml:"sample_rate"`
	Autostart     bool   `yaml:"autostart"`
}

// yamlConfig uses pointers so a key left out of the file keeps the default.
type yamlConfig struct {
	BPM           *float64 `yaml:"bpm"`
	Sound         *bool    `yaml:"sound"`
	Visual        *bool    `yaml:"visual"`
	Haptic        *bool    `yaml:"haptic"`
	HapticBackend *string  `yaml:"haptic_backend"`
	Device        *string  `yaml:"device"`
	SampleRate    *uint32  `yaml:"sample_rate"`
	Autostart     *bool    `yaml:"autostart"`
}

func Default() Config {
	return Config{
		BPM:           metronome.DefaultTempo,
		Sound:         true,
		Visual:        true,
		Haptic:        false,
		HapticBackend: "auto",
		SampleRate:    tone.DefaultSampleRate,
	}
}

// DefaultPath is $XDG_CONFIG_HOME/zmet/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppSlug, configFileName)
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path means DefaultPath, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var file yamlConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return cfg, fmt.Errorf("parse config yaml %s: %w", path, err)
	}
	cfg.applyFile(file)
	return cfg, nil
}

func (c *Config) applyFile(f yamlConfig) {
	if f.BPM != nil {
		c.BPM = metronome.ClampTempo(*f.BPM)
	}
	if f.Sound != nil {
		c.Sound = *f.Sound
	}
	if f.Visual != nil {
		c.Visual = *f.Visual
	}
	if f.Haptic != nil {
		c.Haptic = *f.Haptic
	}
	if f.HapticBackend != nil {
		c.HapticBackend = *f.HapticBackend
	}
	if f.Device != nil {
		c.Device = *f.Device
	}
	if f.SampleRate != nil {
		c.SampleRate = *f.SampleRate
	}
	if f.Autostart != nil {
		c.Autostart = *f.Autostart
	}
}

// envVars maps environment variables onto Set names.
var envVars = map[string]string{
	"ZMET_BPM":    "bpm",
	"ZMET_HAPTIC": "haptic-backend",
	"ZMET_DEVICE": "device",
}

// ApplyEnv overlays the ZMET_* environment variables that are set.
func (c *Config) ApplyEnv() error {
	for env, name := range envVars {
		v, ok := os.LookupEnv(env)
		if !ok || v == "" {
			continue
		}
		if err := c.Set(name, v); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}
	return nil
}

// Set assigns one setting by its flag name.
func (c *Config) Set(name, value string) error {
	switch name {
	case "bpm":
		bpm, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("invalid bpm %q", value)
		}
		c.BPM = metronome.ClampTempo(bpm)
	case "sound", "visual", "haptic", "autostart":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s value %q", name, value)
		}
		switch name {
		case "sound":
			c.Sound = b
		case "visual":
			c.Visual = b
		case "haptic":
			c.Haptic = b
		case "autostart":
			c.Autostart = b
		}
	case "haptic-backend":
		c.HapticBackend = strings.ToLower(strings.TrimSpace(value))
	case "device":
		c.Device = value
	case "sample-rate":
		rate, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid sample rate %q", value)
		}
		c.SampleRate = uint32(rate)
	default:
		return fmt.Errorf("unknown setting %q", name)
	}
	return nil
}

func (c Config) Validate() error {
	if !haptic.ValidBackend(c.HapticBackend) {
		return fmt.Errorf("unknown haptic backend %q (want one of %s)", c.HapticBackend, strings.Join(haptic.Backends, ", "))
	}
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("sample rate %d out of range [8000, 192000]", c.SampleRate)
	}
	return nil
}
