package player

import (
	"bytes"
	"fmt"

	"github.com/james-see/smfplay/pkg/midifile"
)

// trackEncoder notes whether the track carried its own end-of-track.
type trackEncoder struct {
	*midifile.Encoder
	ended bool
}

func (e *trackEncoder) EndOfTrack(track int) error {
	e.ended = true
	return e.Encoder.EndOfTrack(track)
}

// Extract re-encodes the selected tracks into a new file. Transposition,
// channel zeroing and frozen program changes are applied on the way.
func (p *Player) Extract(data []byte) ([]byte, error) {
	f, err := p.Decode(data)
	if err != nil {
		return nil, err
	}
	enc := &trackEncoder{Encoder: midifile.NewEncoder()}
	tracks := make([][]byte, 0, len(f.Tracks))
	for _, t := range f.Tracks {
		body, err := encodeTrack(t, enc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode track %d: %w", t.Number, err)
		}
		tracks = append(tracks, body)
	}

	h := f.Header
	if len(tracks) == 1 {
		h.Format = 0
	}
	return midifile.EncodeFile(h, tracks), nil
}

func encodeTrack(t *midifile.Track, enc *trackEncoder) ([]byte, error) {
	if err := t.Rewind(); err != nil {
		return nil, err
	}
	enc.Reset()
	enc.ended = false

	// Events the decoder drops leave their delta to the next event.
	var carry uint32
	for {
		delta, ok := t.Pending()
		if !ok {
			break
		}
		mark := enc.Len()
		enc.Delay(midifile.Step{Ticks: carry + delta})
		start := enc.Len()
		if err := t.Dispatch(enc); err != nil {
			return nil, err
		}
		if enc.Len() == start {
			enc.Truncate(mark)
			carry += delta
		} else {
			carry = 0
		}
	}
	if !enc.ended {
		enc.Delay(midifile.Step{Ticks: carry})
		enc.EndOfTrack(t.Number)
	}
	return bytes.Clone(enc.Bytes()), nil
}
