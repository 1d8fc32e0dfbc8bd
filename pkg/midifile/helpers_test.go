package midifile

import (
	"context"
	"testing"
)

// fileOf builds a format 1 file around raw track bodies.
func fileOf(division uint16, bodies ...[]byte) []byte {
	return EncodeFile(Header{Format: 1, Division: division}, bodies)
}

func serial(t *testing.T, data []byte, cfg *RunConfig) *Recorder {
	t.Helper()
	f, err := Decode(data, cfg)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	rec := NewRecorder()
	if err := NewScheduler(f, cfg).Serial(rec); err != nil {
		t.Fatalf("Serial() error = %v", err)
	}
	return rec
}

func parallel(t *testing.T, data []byte, cfg *RunConfig) *Recorder {
	t.Helper()
	f, err := Decode(data, cfg)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	rec := NewRecorder()
	if err := NewScheduler(f, cfg).Parallel(context.Background(), rec); err != nil {
		t.Fatalf("Parallel() error = %v", err)
	}
	return rec
}

func intp(n int) *int { return &n }
