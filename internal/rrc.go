package internal

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// rrcTap evaluates the root-raised-cosine impulse response at time t
// (in symbol periods, Ts=1) for the given rolloff beta.
func rrcTap(t, beta float64) float64 {
	const eps = 1e-8

	if math.Abs(t) < eps {
		return 1 - beta + 4*beta/math.Pi
	}

	if beta > eps && math.Abs(math.Abs(t)-1/(4*beta)) < eps {
		return (beta / math.Sqrt2) * ((1+2/math.Pi)*math.Sin(math.Pi/(4*beta)) + (1-2/math.Pi)*math.Cos(math.Pi/(4*beta)))
	}

	num := math.Sin(math.Pi*t*(1-beta)) + 4*beta*t*math.Cos(math.Pi*t*(1+beta))
	den := math.Pi * t * (1 - math.Pow(4*beta*t, 2))
	return num / den
}

// DesignRRC returns the root-raised-cosine prototype filter used to build
// the polyphase matched-filter bank: sampled at npfb times the raw
// (k-samples-per-symbol) rate, spanning +/-delaySymbols symbols, and
// normalized to unit energy. Its length is 2*delaySymbols*k*npfb + 1.
func DesignRRC(delaySymbols, k, npfb int, beta float64) []float64 {
	half := delaySymbols * k * npfb
	n := 2*half + 1
	h := make([]float64, n)
	dt := 1 / float64(k*npfb)

	for i := range h {
		t := float64(i-half) * dt
		h[i] = rrcTap(t, beta)
	}

	energy := floats.Dot(h, h)
	if energy > 0 {
		floats.Scale(1/math.Sqrt(energy), h)
	}
	return h
}
