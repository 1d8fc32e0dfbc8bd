package timing

import (
	"testing"
	"time"

	"github.com/james-see/smfplay/pkg/midifile"
)

func newTestClock(speed int) (*Clock, *Virtual) {
	cfg := midifile.DefaultRunConfig()
	cfg.SpeedFactor = speed
	v := NewVirtual()
	return NewClock(cfg, v), v
}

func TestClockDefaultTempo(t *testing.T) {
	c, v := newTestClock(100)
	c.Header(midifile.Header{Division: 96})

	c.Delay(midifile.Step{Ticks: 96})
	if v.Elapsed() != 500*time.Millisecond {
		t.Errorf("one quarter at the default tempo took %v, want 500ms", v.Elapsed())
	}
}

func TestClockSetTempoAndSpeed(t *testing.T) {
	tests := []struct {
		name  string
		speed int
		tempo int
		ticks uint32
		want  time.Duration
	}{
		{"normal", 100, 1000000, 480, time.Second},
		{"slower", 200, 1000000, 480, 2 * time.Second},
		{"faster", 50, 600000, 240, 150 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, v := newTestClock(tt.speed)
			c.Header(midifile.Header{Division: 480})
			c.SetTempo(1, tt.tempo)
			c.Delay(midifile.Step{Ticks: tt.ticks})
			if diff := v.Elapsed() - tt.want; diff < -time.Microsecond || diff > time.Microsecond {
				t.Errorf("elapsed = %v, want %v", v.Elapsed(), tt.want)
			}
		})
	}
}

func TestClockHeaderAppliesSpeedOnce(t *testing.T) {
	c, _ := newTestClock(200)
	c.Header(midifile.Header{Division: 100})
	// 0.5s per quarter, doubled, over 100 ticks.
	if c.Rate() != 10*time.Millisecond {
		t.Errorf("Rate() = %v, want 10ms", c.Rate())
	}
}

func TestClockAbsorbsLag(t *testing.T) {
	c, v := newTestClock(100)
	c.Header(midifile.Header{Division: 100})
	c.SetTempo(1, 1000000) // 10ms per tick

	v.Advance(250 * time.Millisecond) // a slow consumer
	c.Delay(midifile.Step{Ticks: 10})
	c.Delay(midifile.Step{Ticks: 10})
	if len(v.Sleeps) != 0 {
		t.Fatalf("late delays slept %v", v.Sleeps)
	}
	c.Delay(midifile.Step{Ticks: 10})
	if len(v.Sleeps) != 1 || v.Sleeps[0] != 50*time.Millisecond {
		t.Errorf("sleeps = %v, want [50ms]", v.Sleeps)
	}
}

func TestClockMutedDelays(t *testing.T) {
	c, v := newTestClock(100)
	c.Header(midifile.Header{Division: 100})
	c.SetTempo(1, 1000000)

	for i := 0; i < 50; i++ {
		c.Delay(midifile.Step{Ticks: 100, Mute: true})
	}
	if v.Elapsed() != 0 || !c.Muted() {
		t.Fatalf("muted delays took %v", v.Elapsed())
	}
	c.Delay(midifile.Step{Ticks: 5})
	if v.Elapsed() != 50*time.Millisecond {
		t.Errorf("first unmuted delay ended at %v, want 50ms", v.Elapsed())
	}
}

func TestClockSMPTE(t *testing.T) {
	c, v := newTestClock(100)
	// 25 fps, 40 ticks per frame: 1000 ticks per second.
	c.Header(midifile.Header{Division: 0xE7<<8 | 40})
	c.SetTempo(1, 250000)
	c.Delay(midifile.Step{Ticks: 500})
	if v.Elapsed() != 500*time.Millisecond {
		t.Errorf("elapsed = %v, want 500ms", v.Elapsed())
	}
}
