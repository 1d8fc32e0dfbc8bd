package midifile

import "fmt"

// noStatus marks a track with no running status.
const noStatus = -1

// Track is one MTrk chunk being replayed. It owns its cursor, its running
// status and the delta before its next event.
type Track struct {
	Number int

	buf     []byte
	start   int
	limit   int
	cur     *Cursor
	cfg     *RunConfig
	running int
	delta   uint32
	done    bool
}

func newTrack(number int, buf []byte, start, limit int, cfg *RunConfig) *Track {
	t := &Track{Number: number, buf: buf, start: start, limit: limit, cfg: cfg}
	t.cur = NewCursor(buf, start, limit)
	t.cur.track = number
	t.done = true
	return t
}

// Len returns the size of the track body in bytes.
func (t *Track) Len() int { return t.limit - t.start }

// Body returns the raw track body.
func (t *Track) Body() []byte { return t.buf[t.start:t.limit] }

// Rewind moves back to the first event and reads its delta.
func (t *Track) Rewind() error {
	t.cur = NewCursor(t.buf, t.start, t.limit)
	t.cur.track = t.Number
	t.running = noStatus
	return t.nextDelta()
}

// Pending returns the ticks before the next event, and false once the track
// is exhausted.
func (t *Track) Pending() (uint32, bool) {
	return t.delta, !t.done
}

func (t *Track) nextDelta() error {
	if t.cur.AtEnd() {
		t.delta, t.done = 0, true
		return nil
	}
	d, err := t.cur.ReadVarint()
	if err != nil {
		return err
	}
	t.delta, t.done = d, false
	return nil
}

// Dispatch decodes the event at the current position, delivers it to p and
// reads the delta of the following event.
func (t *Track) Dispatch(p Processor) error {
	if err := t.dispatch(p); err != nil {
		return err
	}
	return t.nextDelta()
}

func (t *Track) dispatch(p Processor) error {
	c := t.cur
	b, err := c.PeekByte()
	if err != nil {
		return err
	}
	var status int
	if b&0x80 != 0 {
		c.pos++
		if t.cfg.ChannelZero && b < 0xF0 {
			b &= 0xF0
		}
		status = int(b)
		t.running = status
	} else {
		if t.running == noStatus {
			return c.fail(ErrNoRunningStatus, "data byte 0x%02X with no status", b)
		}
		status = t.running
	}

	channel := status & 0x0F
	switch status & 0xF0 {
	case 0x80, 0x90, 0xA0:
		pitch, err := c.ReadU7()
		if err != nil {
			return err
		}
		value, err := c.ReadU7()
		if err != nil {
			return err
		}
		if channel != t.cfg.DrumChannel {
			pitch += t.cfg.Transpose
		}
		// Transposed below the keyboard: drop the event, note-offs included.
		if pitch <= 0 {
			return nil
		}
		switch status & 0xF0 {
		case 0x80:
			return p.NoteOff(t.Number, channel, pitch, value)
		case 0x90:
			return p.NoteOn(t.Number, channel, pitch, value)
		default:
			return p.KeyPressure(t.Number, channel, pitch, value)
		}
	case 0xB0:
		controller, err := c.ReadU7()
		if err != nil {
			return err
		}
		value, err := c.ReadU7()
		if err != nil {
			return err
		}
		return p.ControlChange(t.Number, channel, controller, value)
	case 0xC0:
		program, err := c.ReadU7()
		if err != nil {
			return err
		}
		if t.cfg.FreezeChannel {
			return nil
		}
		return p.ProgramChange(t.Number, channel, program)
	case 0xD0:
		pressure, err := c.ReadU7()
		if err != nil {
			return err
		}
		return p.ChannelPressure(t.Number, channel, pressure)
	case 0xE0:
		wheel, err := c.ReadU14()
		if err != nil {
			return err
		}
		return p.PitchWheel(t.Number, channel, wheel-0x2000)
	}

	t.running = noStatus
	switch status {
	case 0xF0, 0xF7:
		n, err := c.ReadVarint()
		if err != nil {
			return err
		}
		data, err := c.ReadBytes(int(n))
		if err != nil {
			return err
		}
		return p.Sysex(t.Number, data, status == 0xF7)
	case 0xFF:
		return t.dispatchMeta(p)
	}
	return t.dispatchUndefined(p, byte(status))
}

func (t *Track) dispatchMeta(p Processor) error {
	c := t.cur
	kind, err := c.ReadU7()
	if err != nil {
		return err
	}
	n, err := c.ReadVarint()
	if err != nil {
		return err
	}
	length := int(n)
	meta := MetaKind(kind)
	switch {
	case meta.IsText():
		text, err := c.ReadText(length)
		if err != nil {
			return err
		}
		return p.MetaText(t.Number, meta, text)
	case meta == MetaEndOfTrack:
		if length != 0 {
			return c.fail(ErrMalformedEvent, "end of track with length %d", length)
		}
		return p.EndOfTrack(t.Number)
	case meta == MetaSetTempo:
		if length != 3 {
			return c.fail(ErrMalformedEvent, "set tempo with length %d", length)
		}
		tempo, err := c.ReadU24()
		if err != nil {
			return err
		}
		return p.SetTempo(t.Number, int(tempo))
	}
	data, err := c.ReadBytes(length)
	if err != nil {
		return err
	}
	return p.MetaBinary(t.Number, meta, data)
}

// dispatchUndefined reports a status byte outside every known family along
// with the data bytes up to the next status byte.
func (t *Track) dispatchUndefined(p Processor, status byte) error {
	c := t.cur
	end := c.pos
	for end < c.limit && c.buf[end]&0x80 == 0 {
		end++
	}
	if end >= c.limit {
		return c.fail(ErrTruncatedInput, "undefined status 0x%02X runs to end of track", status)
	}
	data, err := c.ReadBytes(end - c.pos)
	if err != nil {
		return err
	}
	return p.Undefined(t.Number, status, data)
}

func (t *Track) String() string {
	return fmt.Sprintf("track %d (%d bytes)", t.Number, t.Len())
}
