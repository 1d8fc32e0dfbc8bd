package midifile

import (
	"encoding/binary"
	"fmt"
)

// Encoder re-encodes the events it receives into track-body bytes. Every
// event gets an explicit status byte, so a track written without running
// status round-trips unchanged through Serial.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the encoded bytes so far.
func (e *Encoder) Bytes() []byte { return e.buf }

// Reset discards the encoded bytes.
func (e *Encoder) Reset() { e.buf = e.buf[:0] }

// Len returns the number of bytes written.
func (e *Encoder) Len() int { return len(e.buf) }

// Truncate discards all but the first n bytes.
func (e *Encoder) Truncate(n int) { e.buf = e.buf[:n] }

// AppendVarint appends v as a variable-length quantity.
func AppendVarint(dst []byte, v uint32) []byte {
	var tmp [maxVarintBytes + 1]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7F)
	for v >>= 7; v > 0; v >>= 7 {
		i--
		tmp[i] = byte(v&0x7F) | 0x80
	}
	return append(dst, tmp[i:]...)
}

// EncodeFile assembles a complete file from a header and track bodies. The
// header's track count is taken from len(tracks).
func EncodeFile(h Header, tracks [][]byte) []byte {
	out := make([]byte, 0, 14)
	out = append(out, headerMagic...)
	out = binary.BigEndian.AppendUint32(out, 6)
	out = binary.BigEndian.AppendUint16(out, uint16(h.Format))
	out = binary.BigEndian.AppendUint16(out, uint16(len(tracks)))
	out = binary.BigEndian.AppendUint16(out, h.Division)
	for _, body := range tracks {
		out = append(out, trackMagic...)
		out = binary.BigEndian.AppendUint32(out, uint32(len(body)))
		out = append(out, body...)
	}
	return out
}

func check7(name string, v int) error {
	if v < 0 || v > 0x7F {
		return fmt.Errorf("encode: %s %d out of range 0-127", name, v)
	}
	return nil
}

func (e *Encoder) channel(status, channel int, data ...int) error {
	if channel < 0 || channel > 15 {
		return fmt.Errorf("encode: channel %d out of range 0-15", channel)
	}
	for _, d := range data {
		if err := check7("data byte", d); err != nil {
			return err
		}
	}
	e.buf = append(e.buf, byte(status|channel))
	for _, d := range data {
		e.buf = append(e.buf, byte(d))
	}
	return nil
}

func (e *Encoder) meta(kind MetaKind, payload []byte) error {
	e.buf = append(e.buf, 0xFF, byte(kind))
	e.buf = AppendVarint(e.buf, uint32(len(payload)))
	e.buf = append(e.buf, payload...)
	return nil
}

func (e *Encoder) Header(h Header) error { return nil }

func (e *Encoder) Delay(s Step) error {
	e.buf = AppendVarint(e.buf, s.Ticks)
	return nil
}

func (e *Encoder) NoteOff(track, channel, pitch, velocity int) error {
	return e.channel(0x80, channel, pitch, velocity)
}

func (e *Encoder) NoteOn(track, channel, pitch, velocity int) error {
	return e.channel(0x90, channel, pitch, velocity)
}

func (e *Encoder) KeyPressure(track, channel, pitch, pressure int) error {
	return e.channel(0xA0, channel, pitch, pressure)
}

func (e *Encoder) ControlChange(track, channel, controller, value int) error {
	return e.channel(0xB0, channel, controller, value)
}

func (e *Encoder) ProgramChange(track, channel, program int) error {
	return e.channel(0xC0, channel, program)
}

func (e *Encoder) ChannelPressure(track, channel, pressure int) error {
	return e.channel(0xD0, channel, pressure)
}

func (e *Encoder) PitchWheel(track, channel, value int) error {
	v := value + 0x2000
	if v < 0 || v >= 1<<14 {
		return fmt.Errorf("encode: pitch wheel %d out of range", value)
	}
	return e.channel(0xE0, channel, v&0x7F, v>>7)
}

func (e *Encoder) Sysex(track int, data []byte, continuation bool) error {
	status := byte(0xF0)
	if continuation {
		status = 0xF7
	}
	e.buf = append(e.buf, status)
	e.buf = AppendVarint(e.buf, uint32(len(data)))
	e.buf = append(e.buf, data...)
	return nil
}

func (e *Encoder) MetaText(track int, kind MetaKind, text string) error {
	return e.meta(kind, []byte(text))
}

func (e *Encoder) MetaBinary(track int, kind MetaKind, data []byte) error {
	return e.meta(kind, data)
}

func (e *Encoder) SetTempo(track, usPerQuarter int) error {
	if usPerQuarter < 0 || usPerQuarter >= 1<<24 {
		return fmt.Errorf("encode: tempo %d out of range", usPerQuarter)
	}
	u := uint32(usPerQuarter)
	return e.meta(MetaSetTempo, []byte{byte(u >> 16), byte(u >> 8), byte(u)})
}

func (e *Encoder) EndOfTrack(track int) error {
	return e.meta(MetaEndOfTrack, nil)
}

func (e *Encoder) Undefined(track int, status byte, data []byte) error {
	e.buf = append(e.buf, status)
	e.buf = append(e.buf, data...)
	return nil
}
