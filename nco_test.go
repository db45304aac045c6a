package framesync

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNCOZeroFrequencyIsIdentityRotation(t *testing.T) {
	n := NewNCO()
	x := complex64(complex(0.7, -0.3))
	got := n.MixDown(x)
	assert.InDelta(t, real(x), real(got), 1e-6)
	assert.InDelta(t, imag(x), imag(got), 1e-6)
}

func TestNCOMixDownUndoesKnownPhase(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		phase := rapid.Float64Range(-math.Pi, math.Pi).Draw(t, "phase")
		n := NewNCO()
		n.SetPhase(phase)

		rot := complex(math.Cos(phase), math.Sin(phase))
		x := complex64(complex128(complex(1, 0)) * rot)

		got := n.MixDown(x)
		assert.InDelta(t, 1, real(got), 1e-6)
		assert.InDelta(t, 0, imag(got), 1e-6)
	})
}

func TestNCOStepAdvancesPhaseByFrequency(t *testing.T) {
	n := NewNCO()
	n.SetFrequency(0.1)
	n.SetPhase(0)
	n.Step()
	assert.InDelta(t, 0.1, n.phase, 1e-9)
	assert.InDelta(t, 0.1, n.Frequency(), 1e-9)
}

func TestNCOResetClearsFrequencyAndPhase(t *testing.T) {
	n := NewNCO()
	n.SetFrequency(0.3)
	n.SetPhase(1.2)
	n.Reset()
	assert.Zero(t, n.Frequency())
	assert.Zero(t, n.phase)
}

func TestWrapPhaseStaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := rapid.Float64Range(-100, 100).Draw(t, "phase")
		wrapped := wrapPhase(p)
		assert.LessOrEqual(t, wrapped, math.Pi)
		assert.GreaterOrEqual(t, wrapped, -math.Pi)
	})
}
