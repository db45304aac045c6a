package framesync

import (
	"math"

	"github.com/jpeeler/liquid-dsp/internal"
)

// Transmitter builds the raw baseband sample stream for a packet: p/n
// preamble, pilot-interleaved Golay/CRC-encoded QPSK payload, pulse-shaped
// at SamplesPerSymbol samples/symbol. It exists so the CLI demo and the
// test suite exercise exactly the wire format the Receiver expects,
// instead of each guessing at it independently: a constructor plus a
// method that produces samples, without a Config since nothing here is
// tunable.
type Transmitter struct {
	modem *Modem
	taps  []float64
}

// NewTransmitter builds a Transmitter using the fixed receiver parameters.
func NewTransmitter() *Transmitter {
	return &Transmitter{
		modem: NewModem(),
		taps:  internal.DesignRRC(FilterDelay, SamplesPerSymbol, 1, Rolloff),
	}
}

// Symbols returns the full PreambleLen+PayloadLen symbol-rate sequence for
// header+payload: the p/n preamble followed by the payload with pilots
// interleaved among the Golay/CRC-encoded QPSK data symbols.
func (t *Transmitter) Symbols(header [HeaderLen]byte, payload [PayloadByteLen]byte) []complex64 {
	data := t.modem.Modulate(header, payload)

	out := make([]complex64, 0, PreambleLen+PayloadLen)
	for _, s := range PNReference() {
		out = append(out, complex(s, 0))
	}

	d := 0
	for i := 0; i < PayloadLen; i++ {
		if isPilotIndex(i) {
			out = append(out, pilotValue)
		} else {
			out = append(out, data[d])
			d++
		}
	}
	return out
}

// Baseband pulse-shapes Symbols' output into a raw complex64 sample stream
// ready to feed to a Receiver's Execute.
func (t *Transmitter) Baseband(header [HeaderLen]byte, payload [PayloadByteLen]byte) []complex64 {
	return pulseShape(t.Symbols(header, payload), t.taps, SamplesPerSymbol)
}

// ApplyChannel simulates a channel's effect on a raw sample stream: a
// fixed linear gain and a rotating phasor at the given carrier frequency
// offset (radians/sample) and initial phase.
func ApplyChannel(samples []complex64, gain, freqOffset, phase float64) []complex64 {
	out := make([]complex64, len(samples))
	for i, s := range samples {
		rot := complex(math.Cos(phase), math.Sin(phase))
		out[i] = complex64(complex128(s) * complex(gain, 0) * rot)
		phase += freqOffset
	}
	return out
}

// ApplyFractionalDelay approximates a fractional-sample timing offset tau
// (in samples) via linear interpolation between adjacent samples.
func ApplyFractionalDelay(samples []complex64, tau float64) []complex64 {
	out := make([]complex64, len(samples))
	for i := range out {
		pos := float64(i) + tau
		i0 := int(math.Floor(pos))
		frac := pos - float64(i0)

		var s0, s1 complex128
		if i0 >= 0 && i0 < len(samples) {
			s0 = complex128(samples[i0])
		}
		if i0+1 >= 0 && i0+1 < len(samples) {
			s1 = complex128(samples[i0+1])
		}
		out[i] = complex64(s0*complex(1-frac, 0) + s1*complex(frac, 0))
	}
	return out
}
