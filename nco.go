package framesync

import "math"

// NCO is a numerically-controlled complex oscillator used to mix incoming
// samples down by an estimated carrier frequency/phase. It generates its
// complex exponential from a running phase accumulator fed to cos/sin,
// used here to derotate rather than modulate.
type NCO struct {
	freq  float64 // radians/sample
	phase float64 // radians
}

// NewNCO returns an NCO at zero frequency and phase.
func NewNCO() *NCO {
	return &NCO{}
}

// SetFrequency sets the oscillator's frequency in radians/sample.
func (n *NCO) SetFrequency(freq float64) {
	n.freq = freq
}

// SetPhase sets the oscillator's current phase in radians.
func (n *NCO) SetPhase(phase float64) {
	n.phase = wrapPhase(phase)
}

// Frequency returns the oscillator's current frequency in radians/sample.
func (n *NCO) Frequency() float64 {
	return n.freq
}

// MixDown multiplies in by e^(-j*phase), derotating it by the oscillator's
// current phase. It does not advance the phase; call Step for that.
func (n *NCO) MixDown(in complex64) complex64 {
	sinP, cosP := math.Sincos(n.phase)
	rot := complex(cosP, -sinP)
	return complex64(complex128(in) * complex128(rot))
}

// Step advances the oscillator's phase by its configured frequency.
func (n *NCO) Step() {
	n.phase = wrapPhase(n.phase + n.freq)
}

// Reset zeroes both frequency and phase.
func (n *NCO) Reset() {
	n.freq = 0
	n.phase = 0
}

func wrapPhase(p float64) float64 {
	const tau = 2 * math.Pi
	p = math.Mod(p, tau)
	if p > math.Pi {
		p -= tau
	} else if p < -math.Pi {
		p += tau
	}
	return p
}
