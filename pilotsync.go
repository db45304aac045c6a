package framesync

import "math"

// pilotSpacing is the interval between pilot symbols in the 630-symbol
// payload: a pilot at index 0, 21, 42, ..., 609 (30 pilots total, see
// PilotCount), leaving exactly DataLen data symbols. Known pilot value is
// +1+0j.
const pilotSpacing = PayloadLen / PilotCount

const pilotValue = complex64(complex(1, 0))

// isPilotIndex reports whether idx (into a PayloadLen-length rx buffer) is
// a pilot position.
func isPilotIndex(idx int) bool {
	return idx%pilotSpacing == 0
}

// PilotSync tracks and removes residual common-phase error using known
// pilot symbols interleaved into the payload: it averages the phase
// error at each pilot position against the known pilot value, then
// derotates the data symbols around it.
type PilotSync struct{}

// NewPilotSync returns a PilotSync configured for DataLen data symbols and
// PilotCount pilots.
func NewPilotSync() *PilotSync {
	return &PilotSync{}
}

// FrameLen is the number of received symbols (data + pilots) a configured
// PilotSync consumes per call: always PayloadLen (630).
func (p *PilotSync) FrameLen() int {
	return PayloadLen
}

// Execute estimates the common phase error from the received pilots,
// derotates the whole frame by it, and returns the DataLen data symbols
// with pilots removed.
func (p *PilotSync) Execute(rx [PayloadLen]complex64) [DataLen]complex64 {
	var sumRe, sumIm float64
	pilots := 0
	for i, s := range rx {
		if !isPilotIndex(i) {
			continue
		}
		// Small-angle common-phase estimate: the received pilot should
		// equal pilotValue (1+0j); its rotation from that is the phase
		// error at this point in the frame.
		e := complex128(s) * complex128(complex(real(pilotValue), -imag(pilotValue)))
		sumRe += real(e)
		sumIm += imag(e)
		pilots++
	}

	var phaseErr float64
	if pilots > 0 {
		phaseErr = math.Atan2(sumIm, sumRe)
	}

	correction := complex(math.Cos(-phaseErr), math.Sin(-phaseErr))

	var out [DataLen]complex64
	d := 0
	for i, s := range rx {
		if isPilotIndex(i) {
			continue
		}
		corrected := complex128(s) * correction
		out[d] = complex64(corrected)
		d++
	}
	return out
}
