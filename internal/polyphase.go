package internal

import "gonum.org/v1/gonum/floats"

// PolyphaseBank is an Npfb-branch polyphase decomposition of a prototype
// filter, shared across all branches by a single raw-sample delay line.
// Pushing a new complex sample shifts the line; Execute(phase) returns the
// dot product of the line with branch phase's real-valued taps, which is
// how fractional-sample timing phases are selected without redesigning the
// filter per phase.
type PolyphaseBank struct {
	branches [][]float64 // [phase][tap], each len tapsPerBranch
	taps     int

	lineRe []float64
	lineIm []float64

	scale float64
}

// NewPolyphaseBank decomposes prototype (as produced by DesignRRC) into
// npfb branches. len(prototype) must be at least npfb*tapsPerBranch; any
// remainder (the design's extra final tap) is dropped.
func NewPolyphaseBank(prototype []float64, npfb int) *PolyphaseBank {
	tapsPerBranch := len(prototype) / npfb
	branches := make([][]float64, npfb)
	for p := 0; p < npfb; p++ {
		b := make([]float64, tapsPerBranch)
		for i := 0; i < tapsPerBranch; i++ {
			b[i] = prototype[i*npfb+p]
		}
		branches[p] = b
	}
	return &PolyphaseBank{
		branches: branches,
		taps:     tapsPerBranch,
		lineRe:   make([]float64, tapsPerBranch),
		lineIm:   make([]float64, tapsPerBranch),
		scale:    1,
	}
}

// TapsPerBranch is the length of the raw-sample delay line each branch
// reads from. The bank has "seen enough" samples to produce a meaningful
// output only once this many samples have been pushed.
func (b *PolyphaseBank) TapsPerBranch() int {
	return b.taps
}

// Push shifts a new raw sample into the shared delay line, most recent
// last.
func (b *PolyphaseBank) Push(x complex64) {
	copy(b.lineRe, b.lineRe[1:])
	copy(b.lineIm, b.lineIm[1:])
	b.lineRe[b.taps-1] = float64(real(x))
	b.lineIm[b.taps-1] = float64(imag(x))
}

// Execute convolves the current delay line against the given branch
// (sub-filter phase index, [0, Npfb)) and returns the scaled result.
func (b *PolyphaseBank) Execute(phase int) complex64 {
	h := b.branches[phase]
	re := floats.Dot(b.lineRe, h) * b.scale
	im := floats.Dot(b.lineIm, h) * b.scale
	return complex(float32(re), float32(im))
}

// SetScale sets the amplitude scale factor applied to every Execute call
// (used by the receiver to compensate for estimated channel gain).
func (b *PolyphaseBank) SetScale(s float64) {
	b.scale = s
}

// Reset clears the delay line without reallocating.
func (b *PolyphaseBank) Reset() {
	for i := range b.lineRe {
		b.lineRe[i] = 0
		b.lineIm[i] = 0
	}
}
