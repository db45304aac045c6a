package framesync

import "github.com/jpeeler/liquid-dsp/internal"

// MatchedFilter is the polyphase root-raised-cosine matched filter bank
// this receiver needs: push raw samples in, read interpolated,
// phase-selected symbol-rate output out. It wraps internal.PolyphaseBank,
// the small public type wrapping an internal helper.
type MatchedFilter struct {
	bank *internal.PolyphaseBank
}

// NewMatchedFilter builds the polyphase bank from the fixed receiver
// parameters (FilterDelay symbols, SamplesPerSymbol, PolyphasePhases,
// Rolloff).
func NewMatchedFilter() *MatchedFilter {
	return NewMatchedFilterWithRolloff(Rolloff)
}

// NewMatchedFilterWithRolloff is NewMatchedFilter with the RRC excess
// bandwidth overridden, for a Receiver built from a Config that tunes it.
func NewMatchedFilterWithRolloff(rolloff float64) *MatchedFilter {
	proto := internal.DesignRRC(FilterDelay, SamplesPerSymbol, PolyphasePhases, rolloff)
	return &MatchedFilter{bank: internal.NewPolyphaseBank(proto, PolyphasePhases)}
}

// Push shifts a new raw input sample into the filter's delay line.
func (m *MatchedFilter) Push(x complex64) {
	m.bank.Push(x)
}

// Execute reads the filter output at the given polyphase index.
func (m *MatchedFilter) Execute(phase int) complex64 {
	return m.bank.Execute(phase)
}

// SetScale sets the amplitude compensation factor (typically 0.5/gammaHat).
func (m *MatchedFilter) SetScale(s float64) {
	m.bank.SetScale(s)
}

// Reset clears the filter's internal state without reallocating.
func (m *MatchedFilter) Reset() {
	m.bank.Reset()
}
