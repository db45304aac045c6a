package framesync

import (
	"fmt"
	"io"
	"math/cmplx"
	"os"

	"gonum.org/v1/gonum/dsp/fourier"
	"hz.tools/sdr"
)

// DebugRingLen is the number of most-recent raw input samples the debug
// trace retains.
const DebugRingLen = 1600

// DebugTrace is an optional post-mortem aid: a ring buffer of raw input
// samples, plus a WriteScript method that emits a deterministic textual
// script (array assignments + plot commands)
// suitable for feeding to a plotting tool.
type DebugTrace struct {
	enabled     bool
	everEnabled bool
	ring        sdr.SamplesC64
	pos         int
	filled      bool
}

// NewDebugTrace returns a disabled DebugTrace with its ring buffer
// preallocated.
func NewDebugTrace() *DebugTrace {
	return &DebugTrace{ring: make(sdr.SamplesC64, DebugRingLen)}
}

// Enable turns on sample capture. Idempotent, and safe to call at any
// receiver state.
func (d *DebugTrace) Enable() {
	d.enabled = true
	d.everEnabled = true
}

// Disable turns off sample capture without clearing the ring buffer.
func (d *DebugTrace) Disable() {
	d.enabled = false
}

// Enabled reports whether capture is currently on.
func (d *DebugTrace) Enabled() bool {
	return d.enabled
}

// Push records a raw input sample if capture is enabled; a no-op
// otherwise.
func (d *DebugTrace) Push(x complex64) {
	if !d.enabled {
		return
	}
	d.ring[d.pos] = x
	d.pos = (d.pos + 1) % len(d.ring)
	if d.pos == 0 {
		d.filled = true
	}
}

// Reset clears the ring buffer without disabling capture.
func (d *DebugTrace) Reset() {
	for i := range d.ring {
		d.ring[i] = 0
	}
	d.pos = 0
	d.filled = false
}

// ordered returns the ring buffer contents in chronological order.
func (d *DebugTrace) ordered() []complex64 {
	n := len(d.ring)
	if !d.filled {
		n = d.pos
	}
	out := make([]complex64, n)
	if !d.filled {
		copy(out, d.ring[:d.pos])
		return out
	}
	copy(out, d.ring[d.pos:])
	copy(out[len(d.ring)-d.pos:], d.ring[:d.pos])
	return out
}

// WriteScript emits a textual script listing the raw ring-buffer samples,
// the p/n reference, the given received preamble and payload symbols, and
// a periodogram of the raw samples. It is a no-op (returns nil, writes
// nothing) if capture was never enabled: a receiver that never asked for
// enabled" handling.
func (d *DebugTrace) WriteScript(w io.Writer, preamble []complex64, payload []complex64) error {
	if !d.everEnabled {
		return nil
	}

	raw := d.ordered()
	if err := writeComplexArray(w, "raw_samples", raw); err != nil {
		return err
	}
	if err := writeFloatArray(w, "pn_reference", PNReference()); err != nil {
		return err
	}
	if err := writeComplexArray(w, "rx_preamble", preamble); err != nil {
		return err
	}
	if err := writeComplexArray(w, "rx_payload", payload); err != nil {
		return err
	}
	if err := writePeriodogram(w, raw); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "figure; plot(real(raw_samples), imag(raw_samples), '.'); title('raw samples');"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "figure; plot(real(rx_preamble), imag(rx_preamble), 'o'); title('recovered preamble');"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "figure; plot(real(rx_payload), imag(rx_payload), 'o'); title('recovered payload');"); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "figure; plot(10*log10(raw_psd)); title('raw sample periodogram (dB)');")
	return err
}

// WriteFile is a convenience wrapper matching the
// "debug_print(filename)" form.
func (d *DebugTrace) WriteFile(path string, preamble, payload []complex64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return d.WriteScript(f, preamble, payload)
}

func writeComplexArray(w io.Writer, name string, xs []complex64) error {
	if _, err := fmt.Fprintf(w, "%s = [", name); err != nil {
		return err
	}
	for i, x := range xs {
		if i > 0 {
			if _, err := fmt.Fprint(w, ", "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%g%+gi", real(x), imag(x)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "];")
	return err
}

func writeFloatArray(w io.Writer, name string, xs []float32) error {
	if _, err := fmt.Fprintf(w, "%s = [", name); err != nil {
		return err
	}
	for i, x := range xs {
		if i > 0 {
			if _, err := fmt.Fprint(w, ", "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%g", x); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "];")
	return err
}

// writePeriodogram emits raw_psd, the squared-magnitude FFT of raw,
// computed with gonum's fourier package.
func writePeriodogram(w io.Writer, raw []complex64) error {
	if len(raw) == 0 {
		_, err := fmt.Fprintln(w, "raw_psd = [];")
		return err
	}
	fft := fourier.NewCmplxFFT(len(raw))
	src := make([]complex128, len(raw))
	for i, x := range raw {
		src[i] = complex128(x)
	}
	coef := fft.Coefficients(nil, src)

	if _, err := fmt.Fprint(w, "raw_psd = ["); err != nil {
		return err
	}
	for i, c := range coef {
		if i > 0 {
			if _, err := fmt.Fprint(w, ", "); err != nil {
				return err
			}
		}
		mag := cmplx.Abs(c)
		if _, err := fmt.Fprintf(w, "%g", mag*mag); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "];")
	return err
}
