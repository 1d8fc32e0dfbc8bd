package midifile

import "fmt"

// maxVarintBytes bounds a variable-length quantity; the format never needs
// more than 28 bits.
const maxVarintBytes = 4

// Cursor is a bounds-checked reader over a fixed buffer. Reads never go past
// limit, which is the end of the chunk being decoded.
type Cursor struct {
	buf   []byte
	pos   int
	limit int
	track int
}

// NewCursor returns a cursor reading buf[pos:limit].
func NewCursor(buf []byte, pos, limit int) *Cursor {
	if limit > len(buf) {
		limit = len(buf)
	}
	return &Cursor{buf: buf, pos: pos, limit: limit}
}

// Pos returns the absolute offset of the next unread byte.
func (c *Cursor) Pos() int { return c.pos }

// Limit returns the absolute offset where the cursor stops.
func (c *Cursor) Limit() int { return c.limit }

// Remaining returns how many bytes are left before the limit.
func (c *Cursor) Remaining() int { return c.limit - c.pos }

// AtEnd reports whether the cursor reached its limit.
func (c *Cursor) AtEnd() bool { return c.pos >= c.limit }

func (c *Cursor) fail(err error, format string, args ...any) error {
	return &DecodeError{Err: err, Track: c.track, Offset: c.pos, Detail: fmt.Sprintf(format, args...)}
}

func (c *Cursor) need(n int) error {
	if n < 0 || c.pos+n > c.limit {
		return c.fail(ErrTruncatedInput, "need %d bytes, %d left", n, c.Remaining())
	}
	return nil
}

// ReadByte reads one raw byte.
func (c *Cursor) ReadByte() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// PeekByte returns the next byte without consuming it.
func (c *Cursor) PeekByte() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	return c.buf[c.pos], nil
}

// ReadUint reads an n-byte big-endian unsigned integer (n <= 4).
func (c *Cursor) ReadUint(n int) (uint32, error) {
	if err := c.need(n); err != nil {
		return 0, err
	}
	var v uint32
	for i := 0; i < n; i++ {
		v = v<<8 | uint32(c.buf[c.pos])
		c.pos++
	}
	return v, nil
}

// ReadU16 reads a 16-bit big-endian value.
func (c *Cursor) ReadU16() (uint16, error) {
	v, err := c.ReadUint(2)
	return uint16(v), err
}

// ReadU24 reads a 24-bit big-endian value.
func (c *Cursor) ReadU24() (uint32, error) {
	return c.ReadUint(3)
}

// ReadU7 reads a data byte, which must have its top bit clear.
func (c *Cursor) ReadU7() (int, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	b := c.buf[c.pos]
	if b&0x80 != 0 {
		return 0, c.fail(ErrMalformedEvent, "data byte 0x%02X has top bit set", b)
	}
	c.pos++
	return int(b), nil
}

// ReadU14 reads two 7-bit data bytes, least significant first, the order
// pitch wheel messages use on the wire. Taking the first byte as the most
// significant would swap coarse and fine bend.
func (c *Cursor) ReadU14() (int, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	lo, hi := c.buf[c.pos], c.buf[c.pos+1]
	if hi&0x80 != 0 || lo&0x80 != 0 {
		return 0, c.fail(ErrMalformedEvent, "data bytes 0x%02X 0x%02X have top bit set", lo, hi)
	}
	c.pos += 2
	return int(hi)<<7 | int(lo), nil
}

// ReadVarint reads a variable-length quantity: 7 bits per byte, most
// significant first, continuing while the top bit is set.
func (c *Cursor) ReadVarint() (uint32, error) {
	var v uint32
	for i := 0; i < maxVarintBytes; i++ {
		b, err := c.ReadByte()
		if err != nil {
			return 0, err
		}
		v = v<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, c.fail(ErrMalformedEvent, "variable-length quantity longer than %d bytes", maxVarintBytes)
}

// ReadBytes returns a copy of the next n bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, c.buf[c.pos:c.pos+n])
	c.pos += n
	return out, nil
}

// ReadText returns the next n bytes as a string.
func (c *Cursor) ReadText(n int) (string, error) {
	if err := c.need(n); err != nil {
		return "", err
	}
	s := string(c.buf[c.pos : c.pos+n])
	c.pos += n
	return s, nil
}

// ReadMagic consumes a 4-byte chunk tag and checks it against want.
func (c *Cursor) ReadMagic(want string) error {
	if err := c.need(len(want)); err != nil {
		return err
	}
	got := string(c.buf[c.pos : c.pos+len(want)])
	if got != want {
		return c.fail(ErrBadMagic, "got %q, want %q", got, want)
	}
	c.pos += len(want)
	return nil
}
