package timing

import (
	"math"
	"time"

	"github.com/james-see/smfplay/pkg/debug"
	"github.com/james-see/smfplay/pkg/midifile"
)

// DefaultTempo is 120 quarter notes per minute.
const DefaultTempo = 500000

// lagThreshold is how late a delay may start before it is logged.
const lagThreshold = 20 * time.Millisecond

// Clock is a Processor that waits out every delay in real time. Each delay
// moves an absolute goal forward and sleeps until it; when the run is late
// the lag is absorbed rather than caught up by playing faster.
type Clock struct {
	cfg   *midifile.RunConfig
	src   Source
	hdr   midifile.Header
	rate  float64 // seconds per tick
	goal  time.Time
	muted bool
}

// NewClock returns a clock waiting on src. A nil src uses the system clock.
func NewClock(cfg *midifile.RunConfig, src Source) *Clock {
	if cfg == nil {
		cfg = midifile.DefaultRunConfig()
	}
	if src == nil {
		src = Real()
	}
	return &Clock{cfg: cfg, src: src}
}

// Source returns the time source the clock waits on.
func (c *Clock) Source() Source { return c.src }

// Goal returns the instant the last delay aims at.
func (c *Clock) Goal() time.Time { return c.goal }

// Rate returns the current duration of one tick.
func (c *Clock) Rate() time.Duration {
	return seconds(c.rate)
}

// Muted reports the mute flag of the last delay.
func (c *Clock) Muted() bool { return c.muted }

// Advance moves the goal forward by ticks and returns it.
func (c *Clock) Advance(ticks uint32) time.Time {
	c.goal = c.goal.Add(seconds(float64(ticks) * c.rate))
	return c.goal
}

// Resync moves the goal to now, dropping any accumulated advance or lag.
func (c *Clock) Resync() {
	c.goal = c.src.Now()
}

// WaitGoal sleeps until the goal, returning at once when already past it.
func (c *Clock) WaitGoal() {
	now := c.src.Now()
	if now.Before(c.goal) {
		c.src.Sleep(c.goal.Sub(now))
		return
	}
	if lag := now.Sub(c.goal); lag > lagThreshold {
		debug.LogEvery(16, "timing", "running %v behind", lag.Round(time.Millisecond))
	}
}

// Remaining returns the time left until the goal, which may be negative.
func (c *Clock) Remaining() time.Duration {
	return c.goal.Sub(c.src.Now())
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

func (c *Clock) speed() float64 {
	return float64(c.cfg.SpeedFactor) / 100
}

// Header resets the rate to the default tempo, or to the SMPTE frame rate,
// and starts timing from now.
func (c *Clock) Header(h midifile.Header) error {
	c.hdr = h
	if h.IsSMPTE() {
		c.rate = c.speed() / float64(h.TicksPerBeat())
	} else {
		c.setTempo(DefaultTempo)
	}
	c.muted = false
	c.goal = c.src.Now()
	return nil
}

func (c *Clock) setTempo(usPerQuarter int) {
	if c.hdr.IsSMPTE() || c.hdr.Division == 0 {
		return
	}
	c.rate = float64(usPerQuarter) * 1e-6 * c.speed() / float64(c.hdr.Division)
}

// Delay waits until the step's goal. Muted steps move the goal to now.
func (c *Clock) Delay(s midifile.Step) error {
	c.muted = s.Mute
	if s.Mute {
		c.Resync()
		return nil
	}
	c.Advance(s.Ticks)
	c.WaitGoal()
	return nil
}

// SetTempo changes the tick length for the following delays.
func (c *Clock) SetTempo(track, usPerQuarter int) error {
	c.setTempo(usPerQuarter)
	return nil
}

func (c *Clock) NoteOff(track, channel, pitch, velocity int) error         { return nil }
func (c *Clock) NoteOn(track, channel, pitch, velocity int) error          { return nil }
func (c *Clock) KeyPressure(track, channel, pitch, pressure int) error     { return nil }
func (c *Clock) ControlChange(track, channel, controller, value int) error { return nil }
func (c *Clock) ProgramChange(track, channel, program int) error           { return nil }
func (c *Clock) ChannelPressure(track, channel, pressure int) error        { return nil }
func (c *Clock) PitchWheel(track, channel, value int) error                { return nil }
func (c *Clock) Sysex(track int, data []byte, continuation bool) error     { return nil }
func (c *Clock) MetaText(track int, kind midifile.MetaKind, text string) error {
	return nil
}
func (c *Clock) MetaBinary(track int, kind midifile.MetaKind, data []byte) error {
	return nil
}
func (c *Clock) EndOfTrack(track int) error                          { return nil }
func (c *Clock) Undefined(track int, status byte, data []byte) error { return nil }
