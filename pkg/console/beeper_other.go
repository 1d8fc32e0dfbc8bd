//go:build !linux

package console

import "errors"

// Beeper is only available on Linux virtual terminals.
type Beeper struct{}

// OpenBeeper always fails outside Linux; use the audio backend instead.
func OpenBeeper(path string) (*Beeper, error) {
	return nil, errors.New("console beeper requires a Linux virtual terminal")
}

func (b *Beeper) StartTone(wave int) error { return nil }
func (b *Beeper) StopTone() error          { return nil }
func (b *Beeper) Close() error             { return nil }
