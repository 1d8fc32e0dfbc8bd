package player

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/james-see/smfplay/pkg/midifile"
	"github.com/james-see/smfplay/pkg/timing"
)

// Analysis summarizes a file as it would play
type Analysis struct {
	Format     int            `json:"format"`
	Tracks     int            `json:"tracks"`
	Division   uint16         `json:"division"`
	SMPTE      bool           `json:"smpte,omitempty"`
	Ticks      uint64         `json:"ticks"`
	LastBar    int            `json:"lastBar"`
	Duration   time.Duration  `json:"-"`
	Seconds    float64        `json:"seconds"`
	Notes      int            `json:"notes"`
	Channels   []int          `json:"channels,omitempty"`
	TrackNames []string       `json:"trackNames,omitempty"`
	Events     map[string]int `json:"events"`
}

// Analyze plays data against a virtual clock. Duration is the time the
// unmuted part of the run takes at the configured speed.
func (p *Player) Analyze(data []byte) (*Analysis, error) {
	f, err := p.Decode(data)
	if err != nil {
		return nil, err
	}
	rec := midifile.NewRecorder()
	v := timing.NewVirtual()
	clock := timing.NewClock(p.cfg, v)

	sched := midifile.NewScheduler(f, p.cfg)
	if err := sched.Parallel(context.Background(), midifile.NewFanout(rec, clock)); err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	a := &Analysis{
		Format:   f.Header.Format,
		Tracks:   len(f.Tracks),
		Division: f.Header.Division,
		SMPTE:    f.Header.IsSMPTE(),
		Ticks:    rec.Ticks(),
		LastBar:  sched.State().Bar + 1,
		Duration: v.Elapsed(),
		Seconds:  v.Elapsed().Seconds(),
		Events:   make(map[string]int),
	}
	for _, e := range rec.Events {
		a.Events[e.Kind.String()]++
		switch e.Kind {
		case midifile.KindNoteOn, midifile.KindNoteOff:
			if e.Kind == midifile.KindNoteOn && e.Value > 0 {
				a.Notes++
			}
			if !slices.Contains(a.Channels, e.Channel) {
				a.Channels = append(a.Channels, e.Channel)
			}
		case midifile.KindMetaText:
			if e.Meta == midifile.MetaTrackName {
				a.TrackNames = append(a.TrackNames, e.Text)
			}
		}
	}
	slices.Sort(a.Channels)
	return a, nil
}
