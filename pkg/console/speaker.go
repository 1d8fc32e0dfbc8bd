package console

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// DefaultSampleRate is the output rate of the audio backend.
const DefaultSampleRate = 48000

const speakerVolume = 0.2

var (
	audioContextOnce sync.Once
	audioContext     *audio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*audio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = audio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// Speaker renders the beeper's square wave through the sound card, for
// terminals without a PC speaker.
type Speaker struct {
	player *audio.Player
	wave   atomic.Int64
	gen    *squareWave
}

// OpenSpeaker starts a silent output stream.
func OpenSpeaker(sampleRate int) (*Speaker, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	s := &Speaker{}
	s.gen = &squareWave{sampleRate: float64(sampleRate), wave: &s.wave}
	p, err := ctx.NewPlayerF32(s.gen)
	if err != nil {
		return nil, err
	}
	s.player = p
	p.Play()
	return s, nil
}

func (s *Speaker) StartTone(wave int) error {
	s.wave.Store(int64(wave))
	return nil
}

func (s *Speaker) StopTone() error {
	s.wave.Store(0)
	return nil
}

func (s *Speaker) Close() error {
	s.wave.Store(0)
	s.player.Pause()
	return s.player.Close()
}

// squareWave streams interleaved stereo float32 samples.
type squareWave struct {
	sampleRate float64
	wave       *atomic.Int64
	phase      float64
}

func (g *squareWave) Read(p []byte) (int, error) {
	frames := len(p) / 8
	freq := Frequency(int(g.wave.Load()))
	step := freq / g.sampleRate
	for i := 0; i < frames; i++ {
		var v float32
		if freq > 0 {
			v = speakerVolume
			if g.phase >= 0.5 {
				v = -speakerVolume
			}
			g.phase += step
			g.phase -= math.Floor(g.phase)
		}
		u := math.Float32bits(v)
		binary.LittleEndian.PutUint32(p[i*8:], u)
		binary.LittleEndian.PutUint32(p[i*8+4:], u)
	}
	return frames * 8, nil
}
