package framesync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchedFilterResetClearsState(t *testing.T) {
	mf := NewMatchedFilter()
	for i := 0; i < 10; i++ {
		mf.Push(complex(1, 1))
	}
	mf.Reset()
	assert.Equal(t, complex64(0), mf.Execute(0))
}

func TestMatchedFilterScaleIsLinear(t *testing.T) {
	a := NewMatchedFilter()
	b := NewMatchedFilter()
	b.SetScale(3)

	for i := 0; i < a.bank.TapsPerBranch(); i++ {
		a.Push(complex(0.5, -0.2))
		b.Push(complex(0.5, -0.2))
	}

	got := b.Execute(0)
	want := a.Execute(0)
	assert.InDelta(t, 3*real(want), real(got), 1e-4)
	assert.InDelta(t, 3*imag(want), imag(got), 1e-4)
}

func TestNewMatchedFilterWithRolloffDiffersFromDefault(t *testing.T) {
	mf := NewMatchedFilterWithRolloff(0.9)
	assert.NotNil(t, mf)
}
