package midifile

import (
	"errors"
	"fmt"
	"io"
)

// Processor receives decoded events. Event methods get the 1-based number
// of the track the event came from. Returning an error aborts the run.
type Processor interface {
	Header(h Header) error
	Delay(s Step) error
	NoteOff(track, channel, pitch, velocity int) error
	NoteOn(track, channel, pitch, velocity int) error
	KeyPressure(track, channel, pitch, pressure int) error
	ControlChange(track, channel, controller, value int) error
	ProgramChange(track, channel, program int) error
	ChannelPressure(track, channel, pressure int) error
	PitchWheel(track, channel, value int) error
	Sysex(track int, data []byte, continuation bool) error
	MetaText(track int, kind MetaKind, text string) error
	MetaBinary(track int, kind MetaKind, data []byte) error
	SetTempo(track, usPerQuarter int) error
	EndOfTrack(track int) error
	Undefined(track int, status byte, data []byte) error
}

// Opener is implemented by sinks that acquire a device before playback.
type Opener interface {
	Open() error
}

// Discard ignores every event. Embed it in sinks that only care about a
// few of them.
type Discard struct{}

func (Discard) Header(h Header) error                                     { return nil }
func (Discard) Delay(s Step) error                                        { return nil }
func (Discard) NoteOff(track, channel, pitch, velocity int) error         { return nil }
func (Discard) NoteOn(track, channel, pitch, velocity int) error          { return nil }
func (Discard) KeyPressure(track, channel, pitch, pressure int) error     { return nil }
func (Discard) ControlChange(track, channel, controller, value int) error { return nil }
func (Discard) ProgramChange(track, channel, program int) error           { return nil }
func (Discard) ChannelPressure(track, channel, pressure int) error        { return nil }
func (Discard) PitchWheel(track, channel, value int) error                { return nil }
func (Discard) Sysex(track int, data []byte, continuation bool) error     { return nil }
func (Discard) MetaText(track int, kind MetaKind, text string) error      { return nil }
func (Discard) MetaBinary(track int, kind MetaKind, data []byte) error    { return nil }
func (Discard) SetTempo(track, usPerQuarter int) error                    { return nil }
func (Discard) EndOfTrack(track int) error                                { return nil }
func (Discard) Undefined(track int, status byte, data []byte) error       { return nil }

// MetaKind is the type byte of a meta-event.
type MetaKind byte

const (
	MetaTextEvent      MetaKind = 0x01
	MetaCopyright      MetaKind = 0x02
	MetaTrackName      MetaKind = 0x03
	MetaInstrument     MetaKind = 0x04
	MetaLyric          MetaKind = 0x05
	MetaMarker         MetaKind = 0x06
	MetaCue            MetaKind = 0x07
	MetaEndOfTrack     MetaKind = 0x2F
	MetaSetTempo       MetaKind = 0x51
	MetaSMPTEOffset    MetaKind = 0x54
	MetaTimeSignature  MetaKind = 0x58
	MetaKeySignature   MetaKind = 0x59
	MetaSequencerEvent MetaKind = 0x7F
)

var metaLabels = map[MetaKind]string{
	MetaTextEvent:      "Text",
	MetaCopyright:      "Copyright",
	MetaTrackName:      "Sequence/Track",
	MetaInstrument:     "Instrument",
	MetaLyric:          "Lyric",
	MetaMarker:         "Marker",
	MetaCue:            "Cue",
	MetaEndOfTrack:     "End of Track",
	MetaSetTempo:       "Set Tempo",
	MetaSMPTEOffset:    "SMPTE Offset",
	MetaTimeSignature:  "Time Signature",
	MetaKeySignature:   "Key Signature",
	MetaSequencerEvent: "Sequencer-Specific",
}

// IsText reports whether the payload of this meta-event is text.
func (k MetaKind) IsText() bool {
	return k >= MetaTextEvent && k <= MetaCue
}

func (k MetaKind) String() string {
	if label, ok := metaLabels[k]; ok {
		return label
	}
	return fmt.Sprintf("Meta Event %02x", byte(k))
}

// MarshalText encodes the kind by its label.
func (k MetaKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Fanout broadcasts every call to its sinks in registration order. The first
// sink error stops the call.
type Fanout struct {
	sinks []Processor
}

// NewFanout returns a fanout over sinks.
func NewFanout(sinks ...Processor) *Fanout {
	return &Fanout{sinks: sinks}
}

// Add registers another sink after the existing ones.
func (f *Fanout) Add(p Processor) {
	f.sinks = append(f.sinks, p)
}

// Len returns the number of registered sinks.
func (f *Fanout) Len() int { return len(f.sinks) }

func (f *Fanout) each(call func(Processor) error) error {
	for _, p := range f.sinks {
		if err := call(p); err != nil {
			return err
		}
	}
	return nil
}

// Open opens every sink that needs it. If one fails, the sinks opened so
// far are closed again.
func (f *Fanout) Open() error {
	for i, p := range f.sinks {
		o, ok := p.(Opener)
		if !ok {
			continue
		}
		if err := o.Open(); err != nil {
			return errors.Join(err, closeAll(f.sinks[:i]))
		}
	}
	return nil
}

// Close closes every closable sink, last registered first.
func (f *Fanout) Close() error {
	return closeAll(f.sinks)
}

func closeAll(sinks []Processor) error {
	var errs []error
	for i := len(sinks) - 1; i >= 0; i-- {
		if c, ok := sinks[i].(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Header(h Header) error {
	return f.each(func(p Processor) error { return p.Header(h) })
}

func (f *Fanout) Delay(s Step) error {
	return f.each(func(p Processor) error { return p.Delay(s) })
}

func (f *Fanout) NoteOff(track, channel, pitch, velocity int) error {
	return f.each(func(p Processor) error { return p.NoteOff(track, channel, pitch, velocity) })
}

func (f *Fanout) NoteOn(track, channel, pitch, velocity int) error {
	return f.each(func(p Processor) error { return p.NoteOn(track, channel, pitch, velocity) })
}

func (f *Fanout) KeyPressure(track, channel, pitch, pressure int) error {
	return f.each(func(p Processor) error { return p.KeyPressure(track, channel, pitch, pressure) })
}

func (f *Fanout) ControlChange(track, channel, controller, value int) error {
	return f.each(func(p Processor) error { return p.ControlChange(track, channel, controller, value) })
}

func (f *Fanout) ProgramChange(track, channel, program int) error {
	return f.each(func(p Processor) error { return p.ProgramChange(track, channel, program) })
}

func (f *Fanout) ChannelPressure(track, channel, pressure int) error {
	return f.each(func(p Processor) error { return p.ChannelPressure(track, channel, pressure) })
}

func (f *Fanout) PitchWheel(track, channel, value int) error {
	return f.each(func(p Processor) error { return p.PitchWheel(track, channel, value) })
}

func (f *Fanout) Sysex(track int, data []byte, continuation bool) error {
	return f.each(func(p Processor) error { return p.Sysex(track, data, continuation) })
}

func (f *Fanout) MetaText(track int, kind MetaKind, text string) error {
	return f.each(func(p Processor) error { return p.MetaText(track, kind, text) })
}

func (f *Fanout) MetaBinary(track int, kind MetaKind, data []byte) error {
	return f.each(func(p Processor) error { return p.MetaBinary(track, kind, data) })
}

func (f *Fanout) SetTempo(track, usPerQuarter int) error {
	return f.each(func(p Processor) error { return p.SetTempo(track, usPerQuarter) })
}

func (f *Fanout) EndOfTrack(track int) error {
	return f.each(func(p Processor) error { return p.EndOfTrack(track) })
}

func (f *Fanout) Undefined(track int, status byte, data []byte) error {
	return f.each(func(p Processor) error { return p.Undefined(track, status, data) })
}
