package midifile

import (
	"fmt"
	"regexp"
	"strconv"
)

// DefaultDrumChannel is the zero-based General MIDI percussion channel.
const DefaultDrumChannel = 9

// DebugFlags selects what the Dumper traces.
type DebugFlags int

const (
	DumpDeltas DebugFlags = 1 << iota
	DumpNotes
	DumpEvents // channel events other than notes, sysex, undefined
	DumpMetas
)

// DefaultDebugFlags traces meta-events only.
const DefaultDebugFlags = DumpMetas

// RunConfig holds the playback parameters for one run. It is built once
// before decoding and read, never written, by the decoder, the scheduler and
// the sinks.
type RunConfig struct {
	Transpose     int
	DrumChannel   int
	SpeedFactor   int // percent, bigger is slower
	ChannelZero   bool
	FreezeChannel bool
	ExtractTrack  *int // 1-based
	BeatsPerBar   int
	StartBar      *int // 0-based, included
	EndBar        *int // 0-based, excluded
	Debug         DebugFlags
}

// DefaultRunConfig returns the configuration used when no option is given.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		DrumChannel: DefaultDrumChannel,
		SpeedFactor: 100,
		BeatsPerBar: 1,
		Debug:       DefaultDebugFlags,
	}
}

// Validate checks value ranges.
func (c *RunConfig) Validate() error {
	if c.DrumChannel < 0 || c.DrumChannel > 15 {
		return fmt.Errorf("drum channel %d out of range 0-15", c.DrumChannel)
	}
	if c.SpeedFactor <= 0 {
		return fmt.Errorf("speed factor must be positive, got %d", c.SpeedFactor)
	}
	if c.BeatsPerBar <= 0 {
		return fmt.Errorf("beats per bar must be positive, got %d", c.BeatsPerBar)
	}
	if c.ExtractTrack != nil && *c.ExtractTrack < 1 {
		return fmt.Errorf("extract track must be 1 or more, got %d", *c.ExtractTrack)
	}
	if c.StartBar != nil && c.EndBar != nil && *c.EndBar < *c.StartBar {
		return fmt.Errorf("bar excerpt ends (%d) before it starts (%d)", *c.EndBar, *c.StartBar)
	}
	return nil
}

// Muted reports whether bar lies outside the [StartBar, EndBar) excerpt.
func (c *RunConfig) Muted(bar int) bool {
	return (c.StartBar != nil && bar < *c.StartBar) || (c.EndBar != nil && bar >= *c.EndBar)
}

var barsPattern = regexp.MustCompile(`^([0-9]+x)?([0-9]*-)?([0-9]+)?$`)

// ParseBars applies a bar excerpt of the form
// [FACTORx][[FIRST]-][LAST]. FIRST and LAST count from 1 and LAST is
// included. FACTOR sets beats per bar. A lone LAST selects only that bar.
func (c *RunConfig) ParseBars(expr string) error {
	m := barsPattern.FindStringSubmatch(expr)
	if m == nil || expr == "" {
		return fmt.Errorf("invalid bar excerpt %q", expr)
	}
	if m[1] != "" {
		n, _ := strconv.Atoi(m[1][:len(m[1])-1])
		if n == 0 {
			n = 1
		}
		c.BeatsPerBar = n
	}
	zeroBased := func(s string) int {
		n, _ := strconv.Atoi(s)
		if n > 0 {
			n--
		}
		return n
	}
	switch {
	case m[2] != "":
		if first := m[2][:len(m[2])-1]; first != "" {
			start := zeroBased(first)
			c.StartBar = &start
		}
		if m[3] != "" {
			end := zeroBased(m[3]) + 1
			c.EndBar = &end
		}
	case m[3] != "":
		start := zeroBased(m[3])
		end := start + 1
		c.StartBar = &start
		c.EndBar = &end
	}
	return nil
}

// PlaybackState is the scheduler's position in the music.
type PlaybackState struct {
	Bar   int
	Ticks int // ticks into the current bar
	Mute  bool
}

// Step is one scheduler delay as seen by a sink.
type Step struct {
	Ticks uint32
	Bar   int
	Mute  bool
}
