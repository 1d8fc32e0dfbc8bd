// Package port sends decoded events to an external MIDI synthesizer.
package port

import (
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2"

	"github.com/james-see/smfplay/pkg/debug"
	"github.com/james-see/smfplay/pkg/midifile"
)

// releaseVelocity is sent with the note-offs that silence a closing port.
const releaseVelocity = 127

// Port is a Processor writing channel and sysex messages to a Transport.
// Meta, end-of-track and undefined events stay local. It does not wait: put
// a timing.Clock or console.Synth before it in the fanout.
type Port struct {
	midifile.Discard

	t        Transport
	state    midifile.Lifecycle
	muted    bool
	sounding [16][128]bool
	sent     int
}

// New returns a port that owns t.
func New(t Transport) *Port {
	return &Port{t: t}
}

// State returns the lifecycle state.
func (p *Port) State() midifile.Lifecycle { return p.state }

// Sent returns the number of messages written.
func (p *Port) Sent() int { return p.sent }

// Sounding reports whether a note-on has not been matched by a note-off.
func (p *Port) Sounding(channel, pitch int) bool {
	if !inRange(channel, pitch) {
		return false
	}
	return p.sounding[channel][pitch]
}

// Open readies the port for a run.
func (p *Port) Open() error {
	if p.state != midifile.Unopened {
		return fmt.Errorf("port: open in state %v", p.state)
	}
	p.state = midifile.Open
	return nil
}

// Close silences every sounding note, then releases the transport. Closing
// twice is a no-op.
func (p *Port) Close() error {
	if p.state == midifile.Closed {
		return nil
	}
	var err error
	if p.state == midifile.Open {
		err = p.silence()
	}
	p.state = midifile.Closed
	return errors.Join(err, p.t.Close())
}

func (p *Port) silence() error {
	var errs []error
	for ch := range p.sounding {
		for key, on := range p.sounding[ch] {
			if on {
				errs = append(errs, p.send(midi.NoteOffVelocity(uint8(ch), uint8(key), releaseVelocity)))
				p.sounding[ch][key] = false
			}
		}
	}
	return errors.Join(errs...)
}

func (p *Port) send(msg midi.Message) error {
	if p.state != midifile.Open {
		return midifile.ErrNotOpen
	}
	p.sent++
	return p.t.Send(msg)
}

func inRange(channel, value int) bool {
	return channel >= 0 && channel < 16 && value >= 0 && value < 128
}

// Header clears the mute state for a new file.
func (p *Port) Header(h midifile.Header) error {
	p.muted = false
	return nil
}

// Delay tracks the mute window, silencing sounding notes on entering it.
func (p *Port) Delay(s midifile.Step) error {
	if s.Mute && !p.muted {
		p.muted = true
		return p.silence()
	}
	p.muted = s.Mute
	return nil
}

// NoteOn sends a note-on unless muted or out of range.
func (p *Port) NoteOn(track, channel, pitch, velocity int) error {
	if velocity == 0 {
		return p.NoteOff(track, channel, pitch, 0)
	}
	if p.muted {
		return nil
	}
	if !inRange(channel, pitch) || velocity > 127 {
		debug.Log("port", "track %d: note %d out of range, skipped", track, pitch)
		return nil
	}
	p.sounding[channel][pitch] = true
	return p.send(midi.NoteOn(uint8(channel), uint8(pitch), uint8(velocity)))
}

// NoteOff sends a note-off for a sounding note only.
func (p *Port) NoteOff(track, channel, pitch, velocity int) error {
	if !inRange(channel, pitch) || !p.sounding[channel][pitch] {
		return nil
	}
	p.sounding[channel][pitch] = false
	return p.send(midi.NoteOffVelocity(uint8(channel), uint8(pitch), uint8(velocity)))
}

// KeyPressure sends polyphonic aftertouch.
func (p *Port) KeyPressure(track, channel, pitch, pressure int) error {
	if !inRange(channel, pitch) {
		return nil
	}
	return p.send(midi.PolyAfterTouch(uint8(channel), uint8(pitch), uint8(pressure)))
}

// ControlChange sends a controller value.
func (p *Port) ControlChange(track, channel, controller, value int) error {
	return p.send(midi.ControlChange(uint8(channel), uint8(controller), uint8(value)))
}

// ProgramChange sends a program change.
func (p *Port) ProgramChange(track, channel, program int) error {
	return p.send(midi.ProgramChange(uint8(channel), uint8(program)))
}

// ChannelPressure sends channel aftertouch.
func (p *Port) ChannelPressure(track, channel, pressure int) error {
	return p.send(midi.AfterTouch(uint8(channel), uint8(pressure)))
}

// PitchWheel sends a bend centred on 0.
func (p *Port) PitchWheel(track, channel, value int) error {
	return p.send(midi.Pitchbend(uint8(channel), int16(value)))
}

// Sysex sends an F0 message with its status byte restored. Continuation
// (F7) packets are escapes or the tail of a split message, so their bytes
// go out as they are, without a status byte.
func (p *Port) Sysex(track int, data []byte, continuation bool) error {
	if continuation {
		return p.send(midi.Message(data))
	}
	msg := make([]byte, 0, len(data)+1)
	msg = append(msg, 0xF0)
	return p.send(append(msg, data...))
}
