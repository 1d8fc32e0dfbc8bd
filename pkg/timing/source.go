// Package timing converts MIDI ticks into wall-clock waits.
package timing

import (
	"context"
	"time"
)

// Source tells the time and waits. Waits may return early but never fail.
type Source interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realSource struct{}

func (realSource) Now() time.Time { return time.Now() }

func (realSource) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// Real returns the system clock.
func Real() Source { return realSource{} }

type contextSource struct {
	ctx context.Context
}

func (s contextSource) Now() time.Time { return time.Now() }

func (s contextSource) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.ctx.Done():
	case <-t.C:
	}
}

// WithContext returns the system clock whose waits end as soon as ctx is
// done, so an interrupt never waits out a long note.
func WithContext(ctx context.Context) Source {
	return contextSource{ctx: ctx}
}

// Virtual is a simulated clock: Sleep advances it instantly.
type Virtual struct {
	now    time.Time
	Sleeps []time.Duration
}

// NewVirtual returns a virtual clock starting at the Unix epoch.
func NewVirtual() *Virtual {
	return &Virtual{now: time.Unix(0, 0)}
}

func (v *Virtual) Now() time.Time { return v.now }

func (v *Virtual) Sleep(d time.Duration) {
	v.Sleeps = append(v.Sleeps, d)
	if d > 0 {
		v.now = v.now.Add(d)
	}
}

// Advance moves time forward without a sleep, as a slow consumer would.
func (v *Virtual) Advance(d time.Duration) {
	v.now = v.now.Add(d)
}

// Elapsed returns the time passed since the epoch start.
func (v *Virtual) Elapsed() time.Duration {
	return v.now.Sub(time.Unix(0, 0))
}

// Slept returns the sum of all sleeps.
func (v *Virtual) Slept() time.Duration {
	var total time.Duration
	for _, d := range v.Sleeps {
		if d > 0 {
			total += d
		}
	}
	return total
}
