// Package console fakes polyphony on a device that can only sound one tone
// at a time, by cycling quickly through the sounding pitches.
package console

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/james-see/smfplay/pkg/debug"
	"github.com/james-see/smfplay/pkg/midifile"
	"github.com/james-see/smfplay/pkg/timing"
)

// Time spent on one voice before moving to the next. Too short a slice is
// heard as a low buzz, too long a slice loses the chord.
const (
	MinimumHashing = 60 * time.Millisecond
	MaximumHashing = 110 * time.Millisecond
)

// Synth is a Processor playing notes on a SoundDevice.
type Synth struct {
	*timing.Clock

	cfg   *midifile.RunConfig
	dev   SoundDevice
	ctx   context.Context
	state midifile.Lifecycle

	minHash    time.Duration
	maxHash    time.Duration
	hashSingle bool

	pitches []int // sounding, ascending
	rover   int   // index into pitches, -1 when empty
	urgent  []int // struck since the last delay, not heard yet
	muted   bool
	tone    int
}

// Option configures a Synth.
type Option func(*Synth)

// WithHashSingleVoice sets whether a lone voice is also played in slices.
// When off, a single voice sounds for the whole delay.
func WithHashSingleVoice(on bool) Option {
	return func(s *Synth) { s.hashSingle = on }
}

// WithHashing overrides the slice bounds.
func WithHashing(minimum, maximum time.Duration) Option {
	return func(s *Synth) {
		s.minHash = minimum
		s.maxHash = maximum
	}
}

// WithContext stops voice cycling once ctx is done.
func WithContext(ctx context.Context) Option {
	return func(s *Synth) { s.ctx = ctx }
}

// New returns a synth that owns dev. A nil src uses the system clock.
func New(cfg *midifile.RunConfig, dev SoundDevice, src timing.Source, opts ...Option) *Synth {
	if cfg == nil {
		cfg = midifile.DefaultRunConfig()
	}
	s := &Synth{
		Clock:      timing.NewClock(cfg, src),
		cfg:        cfg,
		dev:        dev,
		ctx:        context.Background(),
		minHash:    MinimumHashing,
		maxHash:    MaximumHashing,
		hashSingle: true,
		rover:      -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the lifecycle state.
func (s *Synth) State() midifile.Lifecycle { return s.state }

// Voices returns the sounding pitches in ascending order.
func (s *Synth) Voices() []int { return slices.Clone(s.pitches) }

// Rover returns the round-robin index, or -1 when nothing sounds.
func (s *Synth) Rover() int { return s.rover }

// Muted reports whether the last delay was inside the mute window.
func (s *Synth) Muted() bool { return s.muted }

// Urgent returns the pitches not yet heard since they were struck.
func (s *Synth) Urgent() []int { return slices.Clone(s.urgent) }

// Open silences the device before the first note.
func (s *Synth) Open() error {
	if s.state != midifile.Unopened {
		return fmt.Errorf("console: open in state %v", s.state)
	}
	s.state = midifile.Open
	return s.stop()
}

// Close silences the device and releases it. Closing twice is a no-op.
func (s *Synth) Close() error {
	if s.state == midifile.Closed {
		return nil
	}
	s.state = midifile.Closed
	for len(s.pitches) > 0 {
		s.noteOff(s.pitches[len(s.pitches)-1])
	}
	s.urgent = s.urgent[:0]
	return errors.Join(s.dev.StopTone(), s.dev.Close())
}

// Header starts the clock for a new file.
func (s *Synth) Header(h midifile.Header) error {
	s.muted = false
	return s.Clock.Header(h)
}

// Delay cycles through the sounding voices until the step's goal. Voices
// struck since the previous delay are heard first, and none of them stay
// urgent past this call.
func (s *Synth) Delay(st midifile.Step) error {
	if s.state != midifile.Open {
		return midifile.ErrNotOpen
	}
	defer func() { s.urgent = s.urgent[:0] }()
	s.muted = st.Mute
	if st.Mute {
		s.Resync()
		return s.stop()
	}
	goal := s.Advance(st.Ticks)
	if len(s.pitches) == 0 {
		if err := s.stop(); err != nil {
			return err
		}
		s.WaitGoal()
		return nil
	}

	src := s.Source()
	hashing := s.hashing(goal.Sub(src.Now()))
	debug.Log("console", "%d voices, %v per voice", len(s.pitches), hashing)

	// Urgent voices are heard first, even if that makes the run late.
	sort.Ints(s.urgent)
	for _, p := range s.urgent {
		if err := s.sound(p, hashing); err != nil {
			return err
		}
	}
	heard := slices.Clone(s.urgent)
	for src.Now().Before(goal) && s.ctx.Err() == nil {
		p := s.pitches[s.rover]
		if i := slices.Index(heard, p); i >= 0 {
			heard = slices.Delete(heard, i, i+1)
		} else if err := s.sound(p, hashing); err != nil {
			return err
		}
		s.rover = (s.rover + 1) % len(s.pitches)
	}
	return nil
}

// hashing returns the slice given to each voice for a delay lasting
// remaining.
func (s *Synth) hashing(remaining time.Duration) time.Duration {
	dividend := max(remaining, s.minHash)
	divider := len(s.pitches)
	if divider == 1 && !s.hashSingle {
		return dividend
	}
	h := dividend / time.Duration(divider)
	for h > s.maxHash {
		h /= 2
	}
	for h < s.minHash && divider > 1 {
		divider--
		h = dividend / time.Duration(divider)
	}
	return h
}

func (s *Synth) sound(pitch int, d time.Duration) error {
	wave := WaveNumber(pitch)
	if wave != s.tone {
		if err := s.dev.StartTone(wave); err != nil {
			return err
		}
		s.tone = wave
	}
	s.Source().Sleep(d)
	return nil
}

func (s *Synth) stop() error {
	if s.tone == 0 {
		return nil
	}
	s.tone = 0
	return s.dev.StopTone()
}

// NoteOn adds a voice. Velocity 0 releases it instead.
func (s *Synth) NoteOn(track, channel, pitch, velocity int) error {
	if velocity == 0 {
		return s.NoteOff(track, channel, pitch, 0)
	}
	if s.muted || channel == s.cfg.DrumChannel || pitch <= 0 || WaveNumber(pitch) == 0 {
		return nil
	}
	i, found := slices.BinarySearch(s.pitches, pitch)
	if found {
		return nil
	}
	s.urgent = append(s.urgent, pitch)
	s.pitches = slices.Insert(s.pitches, i, pitch)
	if len(s.pitches) == 1 {
		s.rover = 0
	} else if s.rover >= i {
		s.rover++
	}
	return nil
}

// NoteOff releases a voice.
func (s *Synth) NoteOff(track, channel, pitch, velocity int) error {
	if channel == s.cfg.DrumChannel {
		return nil
	}
	s.noteOff(pitch)
	return nil
}

func (s *Synth) noteOff(pitch int) {
	i, found := slices.BinarySearch(s.pitches, pitch)
	if !found {
		return
	}
	s.pitches = slices.Delete(s.pitches, i, i+1)
	switch {
	case s.rover > i:
		s.rover--
	case s.rover == i && i == len(s.pitches):
		if len(s.pitches) == 0 {
			s.rover = -1
		} else {
			s.rover = 0
		}
	}
}
