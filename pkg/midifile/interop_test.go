package midifile

import (
	"bytes"
	"context"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// writeSMF renders a two-track file with the gomidi writer.
func writeSMF(t *testing.T) []byte {
	t.Helper()
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(96)

	var conductor smf.Track
	conductor.Add(0, smf.Message([]byte{0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20}))
	conductor.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))
	conductor.Close(0)

	var melody smf.Track
	melody.Add(0, midi.ProgramChange(0, 19))
	melody.Add(0, midi.NoteOn(0, 60, 100))
	melody.Add(96, midi.NoteOff(0, 60))
	melody.Add(0, midi.NoteOn(0, 64, 90))
	melody.Add(96, midi.NoteOff(0, 64))
	melody.Close(0)

	for _, tr := range []smf.Track{conductor, melody} {
		if err := s.Add(tr); err != nil {
			t.Fatalf("smf Add() error = %v", err)
		}
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("smf WriteTo() error = %v", err)
	}
	return buf.Bytes()
}

func TestDecodeGomidiFile(t *testing.T) {
	cfg := DefaultRunConfig()
	f, err := Decode(writeSMF(t), cfg)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if f.Header.Division != 96 || len(f.Tracks) != 2 {
		t.Fatalf("Header = %+v with %d tracks, want division 96 and 2 tracks", f.Header, len(f.Tracks))
	}

	rec := NewRecorder()
	if err := NewScheduler(f, cfg).Parallel(context.Background(), rec); err != nil {
		t.Fatalf("Parallel() error = %v", err)
	}
	if rec.Ticks() != 192 {
		t.Errorf("total ticks = %d, want 192", rec.Ticks())
	}
	if rec.Count(KindSetTempo) != 1 || rec.Count(KindProgramChange) != 1 || rec.Count(KindEndOfTrack) != 2 {
		t.Errorf("unexpected event mix: %+v", rec.Events)
	}

	var starts, stops []uint64
	for _, e := range rec.Events {
		switch {
		case e.Kind == KindNoteOn && e.Value > 0:
			starts = append(starts, e.Tick)
		case e.Kind == KindNoteOff || e.Kind == KindNoteOn:
			stops = append(stops, e.Tick)
		}
	}
	if len(starts) != 2 || starts[0] != 0 || starts[1] != 96 {
		t.Errorf("note starts at %v, want [0 96]", starts)
	}
	if len(stops) != 2 || stops[0] != 96 || stops[1] != 192 {
		t.Errorf("note stops at %v, want [96 192]", stops)
	}
}
