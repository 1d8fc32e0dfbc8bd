package port

import (
	"bytes"
	"errors"
	"testing"

	"github.com/james-see/smfplay/pkg/midifile"
)

type fakeTransport struct {
	msgs   [][]byte
	closed int
	err    error
}

func (f *fakeTransport) Send(msg []byte) error {
	f.msgs = append(f.msgs, append([]byte(nil), msg...))
	return f.err
}

func (f *fakeTransport) Close() error {
	f.closed++
	return nil
}

func openPort(t *testing.T) (*Port, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{}
	p := New(ft)
	if err := p.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	p.Header(midifile.Header{Format: 1, Tracks: 1, Division: 96})
	return p, ft
}

func TestPortMessages(t *testing.T) {
	p, ft := openPort(t)

	p.NoteOn(1, 2, 60, 100)
	p.NoteOff(1, 2, 60, 64)
	p.KeyPressure(1, 2, 60, 10)
	p.ControlChange(1, 2, 7, 90)
	p.ProgramChange(1, 2, 5)
	p.ChannelPressure(1, 2, 33)
	p.PitchWheel(1, 2, 0)
	p.Sysex(1, []byte{0x7E, 0x7F, 0xF7}, false)
	p.Sysex(1, []byte{0xF8}, true)
	p.Sysex(1, []byte{0x01, 0x02, 0xF7}, true)
	p.MetaText(1, midifile.MetaTrackName, "piano")
	p.SetTempo(1, 500000)
	p.EndOfTrack(1)

	want := [][]byte{
		{0x92, 60, 100},
		{0x82, 60, 64},
		{0xA2, 60, 10},
		{0xB2, 7, 90},
		{0xC2, 5},
		{0xD2, 33},
		{0xE2, 0x00, 0x40},
		{0xF0, 0x7E, 0x7F, 0xF7},
		{0xF8},
		{0x01, 0x02, 0xF7},
	}
	if len(ft.msgs) != len(want) {
		t.Fatalf("sent %d messages, want %d: % X", len(ft.msgs), len(want), ft.msgs)
	}
	for i := range want {
		if !bytes.Equal(ft.msgs[i], want[i]) {
			t.Errorf("message %d = % X, want % X", i, ft.msgs[i], want[i])
		}
	}
	if p.Sent() != len(want) {
		t.Errorf("Sent() = %d, want %d", p.Sent(), len(want))
	}
}

func TestPortSkipsUnmatchedAndOutOfRange(t *testing.T) {
	p, ft := openPort(t)

	p.NoteOff(1, 0, 60, 0)
	p.NoteOn(1, 0, 130, 100)
	p.NoteOn(1, 0, -2, 100)
	if len(ft.msgs) != 0 {
		t.Errorf("sent % X, want nothing", ft.msgs)
	}

	p.NoteOn(1, 0, 60, 100)
	p.NoteOn(1, 0, 60, 0)
	if len(ft.msgs) != 2 || ft.msgs[1][0] != 0x80 {
		t.Errorf("velocity 0 note-on not sent as note-off: % X", ft.msgs)
	}
	if p.Sounding(0, 60) {
		t.Errorf("note still sounding")
	}
}

func TestPortMuteWindow(t *testing.T) {
	p, ft := openPort(t)

	p.NoteOn(1, 0, 60, 100)
	p.Delay(midifile.Step{Ticks: 10, Mute: true})
	if len(ft.msgs) != 2 || !bytes.Equal(ft.msgs[1], []byte{0x80, 60, releaseVelocity}) {
		t.Fatalf("entering mute did not release notes: % X", ft.msgs)
	}
	p.NoteOn(1, 0, 62, 100)
	p.ProgramChange(1, 0, 3)
	if len(ft.msgs) != 3 || ft.msgs[2][0] != 0xC0 {
		t.Errorf("muted traffic = % X, want only the program change", ft.msgs[2:])
	}

	p.Delay(midifile.Step{Ticks: 10})
	p.NoteOn(1, 0, 62, 100)
	if !p.Sounding(0, 62) {
		t.Errorf("note not sounding after mute ends")
	}
}

func TestPortCloseReleasesNotes(t *testing.T) {
	p, ft := openPort(t)
	p.NoteOn(1, 0, 60, 100)
	p.NoteOn(1, 3, 64, 100)
	p.NoteOn(1, 3, 67, 100)
	p.NoteOff(1, 3, 67, 0)
	ft.msgs = nil

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	want := [][]byte{{0x80, 60, 127}, {0x83, 64, 127}}
	if len(ft.msgs) != len(want) {
		t.Fatalf("close sent % X, want % X", ft.msgs, want)
	}
	for i := range want {
		if !bytes.Equal(ft.msgs[i], want[i]) {
			t.Errorf("message %d = % X, want % X", i, ft.msgs[i], want[i])
		}
	}
	if err := p.Close(); err != nil || ft.closed != 1 {
		t.Errorf("second Close() = %v, transport closed %d times", err, ft.closed)
	}
	if err := p.ControlChange(1, 0, 1, 1); !errors.Is(err, midifile.ErrNotOpen) {
		t.Errorf("send after Close error = %v, want ErrNotOpen", err)
	}
}

func TestPortCloseUnopened(t *testing.T) {
	ft := &fakeTransport{}
	p := New(ft)
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if ft.closed != 1 || len(ft.msgs) != 0 {
		t.Errorf("closed %d, sent %d", ft.closed, len(ft.msgs))
	}
}

func TestPortTransportError(t *testing.T) {
	p, ft := openPort(t)
	ft.err = errors.New("unplugged")
	if err := p.ProgramChange(1, 0, 1); err == nil {
		t.Errorf("transport error swallowed")
	}
}

type nopCloser struct{ bytes.Buffer }

func (nopCloser) Close() error { return nil }

func TestWriterTransport(t *testing.T) {
	var w nopCloser
	p := New(NewWriter(&w))
	p.Open()
	p.NoteOn(1, 0, 60, 100)
	p.Close()
	want := []byte{0x90, 60, 100, 0x80, 60, 127}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("device bytes = % X, want % X", w.Bytes(), want)
	}
}
