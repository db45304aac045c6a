package framesync

import (
	"math"
	"math/cmplx"

	"github.com/jpeeler/liquid-dsp/internal"
)

// DefaultDetectionThreshold is the squared normalized correlation
// magnitude (in [0,1], 1 = perfect match regardless of channel gain) at or
// above which the Detector considers the p/n preamble found.
const DefaultDetectionThreshold = 0.6

// searchWindow bounds how many samples past the first threshold crossing
// the Detector keeps sliding its correlation window looking for a better
// (higher-metric) alignment, before committing to the best one seen.
const searchWindow = 16

// Detector cross-correlates incoming raw samples against a pulse-shaped
// copy of the p/n reference, and once the normalized correlation crosses
// its threshold, produces a CoarseEstimate and any samples it had already
// consumed that belong to the frame and must be replayed. Frequency
// offset is estimated by splitting the correlation window in two and
// comparing phase across halves; once a threshold crossing is seen, the
// detector keeps sliding for a bounded search window to lock onto the
// best-correlating position rather than the first one over threshold.
type Detector struct {
	threshold float64

	reference []complex64
	refEnergy float64

	history []complex64 // last len(reference) raw samples, always maintained

	searching  bool
	capture    []complex64
	corrs      []complex128
	metrics    []float64
	bestOffset int
	bestMetric float64
	sinceStart int
}

// NewDetector builds a Detector whose reference waveform is the p/n
// sequence pulse-shaped with the same (non-polyphase) RRC filter the
// Transmitter uses, at SamplesPerSymbol samples/symbol.
func NewDetector() *Detector {
	return NewDetectorWithRolloff(Rolloff)
}

// NewDetectorWithRolloff is NewDetector with the RRC excess bandwidth
// overridden, for a Receiver built from a Config that tunes it.
func NewDetectorWithRolloff(rolloff float64) *Detector {
	pn := PNReference()
	pnSymbols := make([]complex64, len(pn))
	for i, v := range pn {
		pnSymbols[i] = complex(v, 0)
	}
	taps := internal.DesignRRC(FilterDelay, SamplesPerSymbol, 1, rolloff)
	ref := pulseShape(pnSymbols, taps, SamplesPerSymbol)

	var energy float64
	for _, s := range ref {
		energy += real(complex128(s) * cmplx.Conj(complex128(s)))
	}

	return &Detector{
		threshold: DefaultDetectionThreshold,
		reference: ref,
		refEnergy: energy,
		history:   make([]complex64, len(ref)),
	}
}

// SetThreshold overrides DefaultDetectionThreshold.
func (d *Detector) SetThreshold(t float64) {
	d.threshold = t
}

// Reset clears all accumulated state without deallocating the reference.
func (d *Detector) Reset() {
	for i := range d.history {
		d.history[i] = 0
	}
	d.searching = false
	d.capture = d.capture[:0]
	d.corrs = d.corrs[:0]
	d.metrics = d.metrics[:0]
	d.bestOffset = 0
	d.bestMetric = 0
	d.sinceStart = 0
}

// correlate returns the complex correlation and normalized [0,1] metric of
// window (which must be len(reference) long) against the reference.
func (d *Detector) correlate(window []complex64) (complex128, float64) {
	var corr complex128
	var energy float64
	for i, x := range window {
		xc := complex128(x)
		corr += xc * cmplx.Conj(complex128(d.reference[i]))
		energy += real(xc * cmplx.Conj(xc))
	}
	denom := energy * d.refEnergy
	if denom <= 0 {
		return corr, 0
	}
	mag := cmplx.Abs(corr)
	return corr, (mag * mag) / denom
}

// Execute feeds one raw sample to the detector. detected is true exactly
// once, on the sample where the search window concludes; buffered then
// holds every raw sample (oldest first) from the estimated frame start
// through the current sample, which the caller MUST replay through the
// top-level Execute before consuming any further new input.
func (d *Detector) Execute(x complex64) (est CoarseEstimate, buffered []complex64, detected bool) {
	if !d.searching {
		copy(d.history, d.history[1:])
		d.history[len(d.history)-1] = x

		corr, metric := d.correlate(d.history)
		if metric < d.threshold {
			return CoarseEstimate{}, nil, false
		}

		// Start a search: snapshot the current window as candidate 0.
		d.searching = true
		d.capture = append(d.capture[:0], d.history...)
		d.corrs = append(d.corrs[:0], corr)
		d.metrics = append(d.metrics[:0], metric)
		d.bestOffset = 0
		d.bestMetric = metric
		d.sinceStart = 0
		return CoarseEstimate{}, nil, false
	}

	d.capture = append(d.capture, x)
	d.sinceStart++
	offset := len(d.capture) - len(d.reference)
	corr, metric := d.correlate(d.capture[offset:])
	d.corrs = append(d.corrs, corr)
	d.metrics = append(d.metrics, metric)
	if metric > d.bestMetric {
		d.bestMetric = metric
		d.bestOffset = offset
	}

	if d.sinceStart < searchWindow {
		return CoarseEstimate{}, nil, false
	}

	est = d.finalize()
	replay := make([]complex64, len(d.capture)-d.bestOffset)
	copy(replay, d.capture[d.bestOffset:])
	d.Reset()
	return est, replay, true
}

// finalize computes the CoarseEstimate from the best window found during
// the search.
func (d *Detector) finalize() CoarseEstimate {
	idx := d.bestOffset // index into d.metrics/d.corrs, 0-based from search start
	corr := d.corrs[idx]
	refLen := len(d.reference)
	half := refLen / 2

	window := d.capture[d.bestOffset : d.bestOffset+refLen]
	var corr1, corr2 complex128
	for i := 0; i < half; i++ {
		corr1 += complex128(window[i]) * cmplx.Conj(complex128(d.reference[i]))
	}
	for i := half; i < refLen; i++ {
		corr2 += complex128(window[i]) * cmplx.Conj(complex128(d.reference[i]))
	}
	var dphi float64
	if cmplx.Abs(corr1) > 0 && cmplx.Abs(corr2) > 0 {
		dphi = (cmplx.Phase(corr2) - cmplx.Phase(corr1)) / float64(half)
		dphi = wrapPhase(dphi)
	}

	tau := parabolicPeak(d.metrics, idx)
	phi := cmplx.Phase(corr)
	gamma := cmplx.Abs(corr) / d.refEnergy

	return CoarseEstimate{
		Tau:   tau,
		Phi:   phi,
		DPhi:  dphi,
		Gamma: gamma,
	}
}

// parabolicPeak fits a parabola through metrics[idx-1..idx+1] (where
// present) and returns the sub-sample offset of its vertex from idx.
func parabolicPeak(metrics []float64, idx int) float64 {
	if idx <= 0 || idx >= len(metrics)-1 {
		return 0
	}
	y0, y1, y2 := metrics[idx-1], metrics[idx], metrics[idx+1]
	denom := y0 - 2*y1 + y2
	if math.Abs(denom) < 1e-12 {
		return 0
	}
	return 0.5 * (y0 - y2) / denom
}

// pulseShape upsamples symbols by k (zero insertion) and convolves with
// taps, returning a same-length, causally-centered result.
func pulseShape(symbols []complex64, taps []float64, k int) []complex64 {
	up := make([]complex64, len(symbols)*k)
	for i, s := range symbols {
		up[i*k] = s
	}

	half := len(taps) / 2
	out := make([]complex64, len(up))
	for n := range up {
		var sumRe, sumIm float64
		for j, h := range taps {
			idx := n - j + half
			if idx < 0 || idx >= len(up) {
				continue
			}
			sumRe += float64(real(up[idx])) * h
			sumIm += float64(imag(up[idx])) * h
		}
		out[n] = complex(float32(sumRe), float32(sumIm))
	}
	return out
}
