//go:build linux

package console

import (
	"os"

	"golang.org/x/sys/unix"
)

// kiocsound starts (non-zero period) or stops (zero) the console speaker.
const kiocsound = 0x4B2F

// Beeper drives the PC speaker of a Linux virtual terminal.
type Beeper struct {
	f     *os.File
	owned bool
}

// OpenBeeper opens the console at path, or uses standard error when path is
// empty.
func OpenBeeper(path string) (*Beeper, error) {
	if path == "" {
		return &Beeper{f: os.Stderr}, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}
	return &Beeper{f: f, owned: true}, nil
}

func (b *Beeper) StartTone(wave int) error {
	return unix.IoctlSetInt(int(b.f.Fd()), kiocsound, wave)
}

func (b *Beeper) StopTone() error {
	return unix.IoctlSetInt(int(b.f.Fd()), kiocsound, 0)
}

func (b *Beeper) Close() error {
	err := b.StopTone()
	if b.owned {
		if cerr := b.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
