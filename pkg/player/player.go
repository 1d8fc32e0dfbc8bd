// Package player runs decoded MIDI files against output sinks.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/james-see/smfplay/pkg/console"
	"github.com/james-see/smfplay/pkg/debug"
	"github.com/james-see/smfplay/pkg/midifile"
	"github.com/james-see/smfplay/pkg/port"
	"github.com/james-see/smfplay/pkg/timing"
)

// Output selects the devices a run plays on
type Output struct {
	PortName   string // gomidi output port, by name or number
	DevicePath string // raw MIDI device file
	Console    bool   // single-tone console synthesizer
	Tone       console.Backend
	ToneDevice string
}

// Options configures a Player
type Options struct {
	Output Output
	// Trace receives the Dumper output. Nil disables tracing.
	Trace io.Writer
	// Source overrides the wall clock, for tests and dry runs.
	Source timing.Source
	// ToneDevice and Transport replace the devices Output would open.
	ToneDevice console.SoundDevice
	Transport  port.Transport
}

// Player handles one run configuration
type Player struct {
	cfg  *midifile.RunConfig
	opts Options
}

// New creates a new Player. A nil cfg uses the defaults.
func New(cfg *midifile.RunConfig, opts Options) *Player {
	if cfg == nil {
		cfg = midifile.DefaultRunConfig()
	}
	return &Player{cfg: cfg, opts: opts}
}

// Config returns the run configuration
func (p *Player) Config() *midifile.RunConfig {
	return p.cfg
}

// Decode validates the configuration and decodes data
func (p *Player) Decode(data []byte) (*midifile.File, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	f, err := midifile.Decode(data, p.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}
	return f, nil
}

// Check walks every track in file order through the Dumper, without any
// timing. Malformed input surfaces as an error.
func (p *Player) Check(data []byte, w io.Writer) error {
	f, err := p.Decode(data)
	if err != nil {
		return err
	}
	if w == nil {
		w = io.Discard
	}
	if err := midifile.NewScheduler(f, p.cfg).Serial(midifile.NewDumper(w, p.cfg.Debug, p.cfg)); err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	return nil
}

// Play merges the tracks in time order and plays them in real time. extra
// sinks see every event after the tracer and before the devices. Cancelling
// ctx stops playback; the devices are silenced and released either way.
func (p *Player) Play(ctx context.Context, data []byte, extra ...midifile.Processor) (err error) {
	f, err := p.Decode(data)
	if err != nil {
		return err
	}
	fan, err := p.sinks(ctx, extra)
	if err != nil {
		return err
	}
	if err := fan.Open(); err != nil {
		return errors.Join(fmt.Errorf("failed to open output: %w", err), fan.Close())
	}
	debug.Log("player", "playing %d tracks through %d sinks", len(f.Tracks), fan.Len())
	defer func() {
		if cerr := fan.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close output: %w", cerr))
		}
		debug.Log("player", "output closed")
	}()

	sched := midifile.NewScheduler(f, p.cfg)
	if err := sched.Parallel(ctx, fan); err != nil {
		st := sched.State()
		debug.Log("player", "stopped at bar %d: %v", st.Bar+1, err)
		return err
	}
	return nil
}

// sinks builds the fanout: tracer, extras, then the timing sink, then the
// port so that devices change state last.
func (p *Player) sinks(ctx context.Context, extra []midifile.Processor) (*midifile.Fanout, error) {
	fan := midifile.NewFanout()
	if p.opts.Trace != nil && p.cfg.Debug != 0 {
		fan.Add(midifile.NewDumper(p.opts.Trace, p.cfg.Debug, p.cfg))
	}
	for _, e := range extra {
		fan.Add(e)
	}

	src := p.opts.Source
	if src == nil {
		src = timing.WithContext(ctx)
	}
	if p.opts.Output.Console {
		dev, err := p.openTone()
		if err != nil {
			return nil, fmt.Errorf("failed to open tone device: %w", err)
		}
		fan.Add(console.New(p.cfg, dev, src, console.WithContext(ctx)))
	} else {
		fan.Add(timing.NewClock(p.cfg, src))
	}

	t, err := p.openTransport()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to open MIDI output: %w", err), fan.Close())
	}
	if t != nil {
		fan.Add(port.New(t))
	}
	return fan, nil
}

func (p *Player) openTone() (console.SoundDevice, error) {
	if p.opts.ToneDevice != nil {
		return p.opts.ToneDevice, nil
	}
	return console.OpenDevice(p.opts.Output.Tone, p.opts.Output.ToneDevice)
}

func (p *Player) openTransport() (port.Transport, error) {
	switch {
	case p.opts.Transport != nil:
		return p.opts.Transport, nil
	case p.opts.Output.PortName != "":
		return port.OpenDriver(p.opts.Output.PortName)
	case p.opts.Output.DevicePath != "":
		return port.OpenDevice(p.opts.Output.DevicePath)
	}
	return nil, nil
}
