// Package midifile decodes Standard MIDI Files and replays their events
// against Processor sinks, one track at a time or merged in time order.
package midifile

import "fmt"

const (
	headerMagic = "MThd"
	trackMagic  = "MTrk"
)

// Header is the decoded MThd chunk.
type Header struct {
	Format   int
	Tracks   int // number of track chunks declared in the file
	Division uint16
}

// IsSMPTE reports whether Division counts ticks per SMPTE frame instead of
// ticks per quarter note.
func (h Header) IsSMPTE() bool {
	return h.Division&0x8000 != 0
}

// FramesPerSecond returns the SMPTE frame rate, or 0 for metrical division.
func (h Header) FramesPerSecond() int {
	if !h.IsSMPTE() {
		return 0
	}
	return -int(int8(h.Division >> 8))
}

// TicksPerBeat returns the ticks in one beat: a quarter note for metrical
// division, one second for SMPTE division.
func (h Header) TicksPerBeat() int {
	if h.IsSMPTE() {
		return h.FramesPerSecond() * int(h.Division&0xFF)
	}
	return int(h.Division)
}

// File is a decoded MIDI file: its header and the tracks retained by the
// extraction filter, in file order.
type File struct {
	Header Header
	Tracks []*Track
}

// Decode parses the header chunk and every track chunk of buf. When
// cfg.ExtractTrack is set, only that track is retained.
func Decode(buf []byte, cfg *RunConfig) (*File, error) {
	if cfg == nil {
		cfg = DefaultRunConfig()
	}
	c := NewCursor(buf, 0, len(buf))
	hc, err := openChunk(c, headerMagic, 0)
	if err != nil {
		return nil, err
	}
	format, err := hc.ReadU16()
	if err != nil {
		return nil, err
	}
	if format > 2 {
		return nil, &DecodeError{Err: ErrMalformedEvent, Offset: hc.Pos() - 2, Detail: fmt.Sprintf("unsupported format %d", format)}
	}
	ntrks, err := hc.ReadU16()
	if err != nil {
		return nil, err
	}
	division, err := hc.ReadU16()
	if err != nil {
		return nil, err
	}
	h := Header{Format: int(format), Tracks: int(ntrks), Division: division}
	if division == 0 || (h.IsSMPTE() && (division&0xFF == 0 || h.FramesPerSecond() <= 0)) {
		return nil, &DecodeError{Err: ErrMalformedEvent, Offset: hc.Pos() - 2, Detail: fmt.Sprintf("invalid division 0x%04X", division)}
	}

	f := &File{Header: h}
	for n := 1; n <= int(ntrks); n++ {
		tc, err := openChunk(c, trackMagic, n)
		if err != nil {
			return nil, err
		}
		if cfg.ExtractTrack != nil && *cfg.ExtractTrack != n {
			continue
		}
		f.Tracks = append(f.Tracks, newTrack(n, buf, tc.Pos(), tc.Limit(), cfg))
	}
	if !c.AtEnd() {
		return nil, &DecodeError{Err: ErrTrailingBytes, Offset: c.Pos(), Detail: fmt.Sprintf("%d bytes after last track", c.Remaining())}
	}
	return f, nil
}

// openChunk reads a chunk tag and length from c, returns a cursor bounded by
// the chunk body and advances c past the whole chunk.
func openChunk(c *Cursor, magic string, track int) (*Cursor, error) {
	c.track = track
	if err := c.ReadMagic(magic); err != nil {
		return nil, err
	}
	length, err := c.ReadUint(4)
	if err != nil {
		return nil, err
	}
	if int64(length) > int64(c.Remaining()) {
		return nil, c.fail(ErrTruncatedInput, "%s chunk declares %d bytes, %d left", magic, length, c.Remaining())
	}
	body := NewCursor(c.buf, c.pos, c.pos+int(length))
	body.track = track
	c.pos += int(length)
	return body, nil
}
