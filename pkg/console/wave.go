package console

// SamplingRate is the input clock of the PC speaker timer, in Hz. A tone is
// started by handing the device the number of clock periods per wave.
const SamplingRate = 1193180

const (
	// Octaves is the number of supported octaves.
	Octaves = 13
	// MiddleOctave is the zero-based octave holding the reference scale.
	MiddleOctave = 5
	// PitchLimit is the first unsupported pitch.
	PitchLimit = Octaves * 12
)

// chromaticScale holds equal-tempered frequencies, A = 440 Hz, for the
// octave starting at pitch MiddleOctave*12.
var chromaticScale = [12]float64{
	523.25, 554.37, 587.33, 622.25, 659.26, 698.46,
	739.99, 783.99, 830.61, 880.00, 932.33, 987.77,
}

var waveNumbers = buildWaveNumbers()

func buildWaveNumbers() [PitchLimit]int {
	var w [PitchLimit]int
	for base := 0; base < 12; base++ {
		w[MiddleOctave*12+base] = int(SamplingRate / chromaticScale[base])
	}
	for p := MiddleOctave*12 - 1; p >= 0; p-- {
		w[p] = w[p+12] * 2
	}
	for p := (MiddleOctave + 1) * 12; p < PitchLimit; p++ {
		w[p] = w[p-12] / 2
	}
	return w
}

// WaveNumber returns the timer periods per wave for pitch, or 0 when the
// pitch is out of range.
func WaveNumber(pitch int) int {
	if pitch < 0 || pitch >= PitchLimit {
		return 0
	}
	return waveNumbers[pitch]
}

// Frequency converts a wave number back to Hz.
func Frequency(wave int) float64 {
	if wave <= 0 {
		return 0
	}
	return float64(SamplingRate) / float64(wave)
}
