package midifile

import (
	"errors"
	"strings"
	"testing"
)

// tagSink appends its name to a shared log for every call it handles.
type tagSink struct {
	*Recorder
	name   string
	log    *[]string
	err    error
	opened bool
	closed int
}

func newTagSink(name string, log *[]string) *tagSink {
	return &tagSink{Recorder: NewRecorder(), name: name, log: log}
}

func (s *tagSink) NoteOn(track, channel, pitch, velocity int) error {
	*s.log = append(*s.log, s.name)
	if s.err != nil {
		return s.err
	}
	return s.Recorder.NoteOn(track, channel, pitch, velocity)
}

func (s *tagSink) Open() error {
	*s.log = append(*s.log, "open "+s.name)
	if s.err != nil {
		return s.err
	}
	s.opened = true
	return nil
}

func (s *tagSink) Close() error {
	*s.log = append(*s.log, "close "+s.name)
	s.closed++
	return nil
}

func TestFanoutOrder(t *testing.T) {
	var log []string
	a, b, c := newTagSink("a", &log), newTagSink("b", &log), newTagSink("c", &log)
	f := NewFanout(a, b)
	f.Add(c)

	if err := f.NoteOn(1, 0, 60, 100); err != nil {
		t.Fatalf("NoteOn() error = %v", err)
	}
	if got := strings.Join(log, ","); got != "a,b,c" {
		t.Errorf("call order = %s, want a,b,c", got)
	}
	if f.Len() != 3 {
		t.Errorf("Len() = %d, want 3", f.Len())
	}
}

func TestFanoutStopsOnError(t *testing.T) {
	var log []string
	a, b, c := newTagSink("a", &log), newTagSink("b", &log), newTagSink("c", &log)
	boom := errors.New("boom")
	b.err = boom
	f := NewFanout(a, b, c)

	if err := f.NoteOn(1, 0, 60, 100); !errors.Is(err, boom) {
		t.Fatalf("NoteOn() error = %v, want %v", err, boom)
	}
	if got := strings.Join(log, ","); got != "a,b" {
		t.Errorf("calls = %s, want a,b", got)
	}
	if len(c.Events) != 0 {
		t.Errorf("sink after the failing one received %d events", len(c.Events))
	}
}

func TestFanoutOpenClose(t *testing.T) {
	var log []string
	a, b, c := newTagSink("a", &log), newTagSink("b", &log), newTagSink("c", &log)
	f := NewFanout(a, NewRecorder(), b, c)
	c.err = errors.New("no device")

	if err := f.Open(); err == nil {
		t.Fatal("Open() should fail when a sink cannot open")
	}
	want := "open a,open b,open c,close b,close a"
	if got := strings.Join(log, ","); got != want {
		t.Errorf("lifecycle = %s, want %s", got, want)
	}

	log = log[:0]
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := strings.Join(log, ","); got != "close c,close b,close a" {
		t.Errorf("close order = %s, want c,b,a", got)
	}
}

func TestMetaKindString(t *testing.T) {
	tests := []struct {
		kind MetaKind
		want string
	}{
		{MetaTextEvent, "Text"},
		{MetaCopyright, "Copyright"},
		{MetaLyric, "Lyric"},
		{MetaKeySignature, "Key Signature"},
		{MetaSequencerEvent, "Sequencer-Specific"},
		{0x20, "Meta Event 20"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("MetaKind(0x%02X).String() = %q, want %q", byte(tt.kind), got, tt.want)
		}
	}
}
