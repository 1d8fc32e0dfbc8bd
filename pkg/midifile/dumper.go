package midifile

import (
	"fmt"
	"io"
	"strings"
)

// Dumper writes a human readable trace of the events it receives. Flags
// select which categories are written.
type Dumper struct {
	w           io.Writer
	flags       DebugFlags
	beatsPerBar int
	bar         int
}

// NewDumper returns a dumper writing to w.
func NewDumper(w io.Writer, flags DebugFlags, cfg *RunConfig) *Dumper {
	beats := 1
	if cfg != nil {
		beats = cfg.BeatsPerBar
	}
	return &Dumper{w: w, flags: flags, beatsPerBar: beats}
}

func (d *Dumper) printf(want DebugFlags, format string, args ...any) error {
	if d.flags&want == 0 {
		return nil
	}
	_, err := fmt.Fprintf(d.w, format, args...)
	return err
}

func (d *Dumper) hex(want DebugFlags, prefix string, data []byte) error {
	if d.flags&want == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(prefix)
	for _, x := range data {
		fmt.Fprintf(&b, " %02x", x)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(d.w, b.String())
	return err
}

func (d *Dumper) Header(h Header) error {
	d.bar = 0
	_, err := fmt.Fprintf(d.w, "Format %d, division %d\n", h.Format, h.Division)
	return err
}

func (d *Dumper) Delay(s Step) error {
	if !s.Mute && s.Bar != d.bar {
		unit := "bar"
		if d.beatsPerBar == 1 {
			unit = "beat"
		}
		if _, err := fmt.Fprintf(d.w, "%% %s %d\n", unit, s.Bar+1); err != nil {
			return err
		}
		d.bar = s.Bar
	}
	return d.printf(DumpDeltas, "%4d  ", s.Ticks)
}

func (d *Dumper) NoteOff(track, channel, pitch, velocity int) error {
	return d.printf(DumpNotes, "trk%-2d ch%-2d off %d %d\n", track, channel, pitch, velocity)
}

func (d *Dumper) NoteOn(track, channel, pitch, velocity int) error {
	if velocity == 0 {
		return d.printf(DumpNotes, "trk%-2d ch%-2d off %d\n", track, channel, pitch)
	}
	return d.printf(DumpNotes, "trk%-2d ch%-2d on %d %d\n", track, channel, pitch, velocity)
}

func (d *Dumper) KeyPressure(track, channel, pitch, pressure int) error {
	return d.printf(DumpEvents, "trk%-2d ch%-2d key-pressure %d %d\n", track, channel, pitch, pressure)
}

func (d *Dumper) ControlChange(track, channel, controller, value int) error {
	return d.printf(DumpEvents, "trk%-2d ch%-2d control %d %d\n", track, channel, controller, value)
}

func (d *Dumper) ProgramChange(track, channel, program int) error {
	return d.printf(DumpEvents, "trk%-2d ch%-2d program %d\n", track, channel, program)
}

func (d *Dumper) ChannelPressure(track, channel, pressure int) error {
	return d.printf(DumpEvents, "trk%-2d ch%-2d channel-pressure %d\n", track, channel, pressure)
}

func (d *Dumper) PitchWheel(track, channel, value int) error {
	return d.printf(DumpEvents, "trk%-2d ch%-2d pitch-wheel %d\n", track, channel, value)
}

func (d *Dumper) Sysex(track int, data []byte, continuation bool) error {
	label := "sysex"
	if continuation {
		label = "sysex-cont"
	}
	return d.hex(DumpEvents, fmt.Sprintf("trk%-2d %s:", track, label), data)
}

func (d *Dumper) MetaText(track int, kind MetaKind, text string) error {
	return d.printf(DumpMetas, "trk%-2d %s: %s\n", track, kind, strings.TrimRight(text, " \t\r\n\x00"))
}

func (d *Dumper) MetaBinary(track int, kind MetaKind, data []byte) error {
	return d.hex(DumpMetas, fmt.Sprintf("trk%-2d %s:", track, kind), data)
}

func (d *Dumper) SetTempo(track, usPerQuarter int) error {
	return d.printf(DumpMetas, "trk%-2d Set Tempo %d\n", track, usPerQuarter)
}

func (d *Dumper) EndOfTrack(track int) error {
	return d.printf(DumpMetas, "trk%-2d End of Track\n", track)
}

func (d *Dumper) Undefined(track int, status byte, data []byte) error {
	return d.hex(DumpEvents, fmt.Sprintf("trk%-2d Undefined %02x:", track, status), data)
}
