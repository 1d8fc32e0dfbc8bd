package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/james-see/smfplay/pkg/midifile"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Playback.SpeedFactor != 100 || cfg.Playback.DrumChannel != midifile.DefaultDrumChannel {
		t.Errorf("defaults = %+v", cfg.Playback)
	}
	if cfg.Output.Tone != "beeper" {
		t.Errorf("Tone = %q, want beeper", cfg.Output.Tone)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	cfg.Playback.SpeedFactor = 150
	cfg.Playback.Freeze = true
	cfg.Output.PortName = "FluidSynth"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".config", "smfplay", "config.json")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Playback.SpeedFactor != 150 || !got.Playback.Freeze || got.Output.PortName != "FluidSynth" {
		t.Errorf("loaded %+v", got)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "smfplay")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"output":{"console":true}}`), 0644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Output.Console || cfg.Playback.SpeedFactor != 100 || cfg.Output.Tone != "beeper" {
		t.Errorf("loaded %+v", cfg)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "smfplay")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{`), 0644)

	if _, err := Load(); err == nil {
		t.Error("Load() accepted invalid JSON")
	}
}

func TestRunConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Playback.DrumChannel = 15
	cfg.Playback.Debug = int(midifile.DumpNotes | midifile.DumpMetas)
	cfg.Playback.ChannelZero = true

	rc := cfg.RunConfig()
	if rc.DrumChannel != 15 || rc.Debug != midifile.DumpNotes|midifile.DumpMetas || !rc.ChannelZero {
		t.Errorf("RunConfig() = %+v", rc)
	}
	if rc.BeatsPerBar != 1 {
		t.Errorf("BeatsPerBar = %d, want 1", rc.BeatsPerBar)
	}
	if err := rc.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
