package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/james-see/smfplay/pkg/midifile"
)

// OutputConfig selects where notes are sent when playing
type OutputConfig struct {
	PortName   string `json:"portName,omitempty"`
	DevicePath string `json:"devicePath,omitempty"`
	Console    bool   `json:"console,omitempty"`
	Tone       string `json:"tone,omitempty"`
	ToneDevice string `json:"toneDevice,omitempty"`
}

// PlaybackConfig stores defaults for the run flags
type PlaybackConfig struct {
	DrumChannel int  `json:"drumChannel"`
	SpeedFactor int  `json:"speedFactor"`
	Debug       int  `json:"debug"`
	ChannelZero bool `json:"channelZero,omitempty"`
	Freeze      bool `json:"freeze,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Playback PlaybackConfig `json:"playback"`
	Output   OutputConfig   `json:"output,omitempty"`
	LogFile  string         `json:"logFile,omitempty"`
}

// DefaultConfig returns a config matching the built-in defaults
func DefaultConfig() *Config {
	rc := midifile.DefaultRunConfig()
	return &Config{
		Playback: PlaybackConfig{
			DrumChannel: rc.DrumChannel,
			SpeedFactor: rc.SpeedFactor,
			Debug:       int(rc.Debug),
		},
		Output: OutputConfig{
			Tone: "beeper",
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "smfplay"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	// Fields missing from the file keep their defaults
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// RunConfig returns a run configuration seeded with the saved playback
// defaults
func (c *Config) RunConfig() *midifile.RunConfig {
	rc := midifile.DefaultRunConfig()
	rc.DrumChannel = c.Playback.DrumChannel
	rc.SpeedFactor = c.Playback.SpeedFactor
	rc.Debug = midifile.DebugFlags(c.Playback.Debug)
	rc.ChannelZero = c.Playback.ChannelZero
	rc.FreezeChannel = c.Playback.Freeze
	return rc
}
