package console

import "fmt"

// SoundDevice plays one square-wave tone at a time.
type SoundDevice interface {
	// StartTone sounds a tone with the given wave number, replacing any
	// tone already sounding.
	StartTone(wave int) error
	StopTone() error
	Close() error
}

// Backend names a SoundDevice implementation.
type Backend string

const (
	BackendBeeper Backend = "beeper"
	BackendAudio  Backend = "audio"
)

// OpenDevice opens the named backend. path is the console device used by the
// beeper; empty means standard error, which must be a virtual terminal.
func OpenDevice(b Backend, path string) (SoundDevice, error) {
	switch b {
	case BackendBeeper, "":
		b, err := OpenBeeper(path)
		if err != nil {
			return nil, err
		}
		return b, nil
	case BackendAudio:
		s, err := OpenSpeaker(DefaultSampleRate)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown tone backend %q", b)
}
