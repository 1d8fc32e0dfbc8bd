package midifile

import (
	"context"
	"strings"
	"testing"
)

func TestDumperTrace(t *testing.T) {
	body := []byte{
		0x00, 0xFF, 0x03, 0x06, 'B', 'a', 's', 's', ' ', ' ',
		0x00, 0x92, 40, 90,
		0x60, 0x92, 40, 0,
		0x00, 0xB2, 10, 64,
		0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20,
		0x00, 0xFF, 0x2F, 0x00,
	}
	tests := []struct {
		name  string
		flags DebugFlags
		want  string
	}{
		{"metas", DumpMetas, "Format 1, division 96\n" +
			"trk1  Sequence/Track: Bass\n" +
			"trk1  Set Tempo 500000\n" +
			"trk1  End of Track\n"},
		{"notes", DumpNotes, "Format 1, division 96\n" +
			"trk1  ch2  on 40 90\n" +
			"trk1  ch2  off 40\n"},
		{"events", DumpEvents, "Format 1, division 96\n" +
			"trk1  ch2  control 10 64\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Decode(fileOf(96, body), nil)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			var out strings.Builder
			if err := NewScheduler(f, nil).Serial(NewDumper(&out, tt.flags, nil)); err != nil {
				t.Fatalf("Serial() error = %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("trace =\n%s\nwant\n%s", out.String(), tt.want)
			}
		})
	}
}

func TestDumperBarMarkers(t *testing.T) {
	body := []byte{0x00, 0x90, 60, 1, 0x02, 0x90, 61, 1, 0x02, 0x90, 62, 1}
	cfg := DefaultRunConfig()
	cfg.BeatsPerBar = 2
	f, err := Decode(fileOf(1, body), cfg)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	var out strings.Builder
	if err := NewScheduler(f, cfg).Parallel(context.Background(), NewDumper(&out, DumpDeltas, cfg)); err != nil {
		t.Fatalf("Parallel() error = %v", err)
	}
	want := "Format 1, division 1\n   0  % bar 2\n   2  % bar 3\n   2  "
	if out.String() != want {
		t.Errorf("trace = %q, want %q", out.String(), want)
	}
}
