package midifile

import "context"

// Scheduler replays the tracks of a File against a Processor.
type Scheduler struct {
	file  *File
	cfg   *RunConfig
	state PlaybackState
}

// NewScheduler returns a scheduler over f. cfg must be the configuration f
// was decoded with.
func NewScheduler(f *File, cfg *RunConfig) *Scheduler {
	if cfg == nil {
		cfg = DefaultRunConfig()
	}
	return &Scheduler{file: f, cfg: cfg}
}

// State returns the current playback position.
func (s *Scheduler) State() PlaybackState {
	return s.state
}

// Serial replays each track completely before the next one, without any
// cross-track interleaving. It is meant for checking and tracing.
func (s *Scheduler) Serial(p Processor) error {
	s.state = PlaybackState{}
	if err := p.Header(s.file.Header); err != nil {
		return err
	}
	for _, t := range s.file.Tracks {
		if err := t.Rewind(); err != nil {
			return err
		}
		for {
			delta, ok := t.Pending()
			if !ok {
				break
			}
			if err := p.Delay(Step{Ticks: delta}); err != nil {
				return err
			}
			if err := t.Dispatch(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// Parallel merges all tracks in time order, tracking bar position and the
// excerpt mute window. Each distinct instant produces exactly one Delay,
// followed by every event due at that instant. Cancelling ctx stops the
// run before the next step.
func (s *Scheduler) Parallel(ctx context.Context, p Processor) error {
	s.state = PlaybackState{Mute: s.cfg.Muted(0)}
	if err := p.Header(s.file.Header); err != nil {
		return err
	}
	for _, t := range s.file.Tracks {
		if err := t.Rewind(); err != nil {
			return err
		}
	}
	ticksPerBar := s.file.Header.TicksPerBeat() * s.cfg.BeatsPerBar
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		step, ok := s.nextStep()
		if !ok {
			return nil
		}
		s.state.Ticks += int(step)
		s.state.Bar += s.state.Ticks / ticksPerBar
		s.state.Ticks %= ticksPerBar
		s.state.Mute = s.cfg.Muted(s.state.Bar)
		if err := p.Delay(Step{Ticks: step, Bar: s.state.Bar, Mute: s.state.Mute}); err != nil {
			return err
		}
		for _, t := range s.file.Tracks {
			if t.done {
				continue
			}
			t.delta -= step
			for !t.done && t.delta == 0 {
				if err := t.Dispatch(p); err != nil {
					return err
				}
			}
		}
	}
}

// nextStep returns the smallest pending delta over all live tracks.
func (s *Scheduler) nextStep() (uint32, bool) {
	var step uint32
	found := false
	for _, t := range s.file.Tracks {
		if d, ok := t.Pending(); ok && (!found || d < step) {
			step, found = d, true
		}
	}
	return step, found
}
