package cqmath

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestLeadingZeros32(t *testing.T) {
	cases := []struct {
		in   uint32
		want uint32
	}{
		{0, 32},
		{1, 31},
		{2, 30},
		{0xFFFFFFFF, 0},
		{0x80000000, 0},
		{0x0000FFFF, 16},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, LeadingZeros32(c.in))
	}
}

func TestBitReverse32RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Uint32().Draw(t, "x")
		assert.Equal(t, x, BitReverse32(BitReverse32(x)))
	})
}

func TestLeadingZerosInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Uint32Range(1, 0xFFFFFFFF).Draw(t, "x")
		lz := LeadingZeros32(x)
		// The highest set bit is at position 31-lz (0-indexed from the
		// LSB); everything above it is zero and that's exactly what
		// leading_zeros counts.
		assert.True(t, lz < 32)
		shifted := x << lz
		assert.Equal(t, uint32(0x80000000), shifted&0x80000000)
	})
	assert.Equal(t, uint32(32), LeadingZeros32(0))
}

func TestNextPow2Exp(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{15, 4},
		{16, 4},
		{17, 5},
		{2, 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NextPow2Exp(c.in))
	}
}

func TestHammingReference(t *testing.T) {
	want := []float64{
		0.08, 0.15302337, 0.34890909, 0.60546483, 0.84123594, 0.98136677,
		0.98136677, 0.84123594, 0.60546483, 0.34890909, 0.15302337, 0.08,
	}
	got := Hamming(12)
	for i, w := range want {
		assert.InDelta(t, w, real(got[i]), 1e-8)
		assert.InDelta(t, 0, imag(got[i]), 1e-12)
	}
}

func TestHammingSymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := rapid.IntRange(2, 512).Draw(t, "l")
		w := Hamming(l)
		for n := 0; n < l; n++ {
			assert.InDelta(t, real(w[n]), real(w[l-1-n]), 1e-9)
		}
	})
	assert.Equal(t, []complex128{1}, Hamming(1))
}

func TestFFTSingleTone(t *testing.T) {
	const n = 32
	x := make([]complex128, n)
	for i := 0; i < n; i++ {
		x[i] = complex(10*math.Sin(2*math.Pi*1*float64(i)/float64(n)), 0)
	}
	FFT(x, n)
	argmax, maxMag := 0, 0.0
	for i, v := range x {
		if m := cmplx.Abs(v); m > maxMag {
			maxMag, argmax = m, i
		}
	}
	assert.Equal(t, 1, argmax)
}

func TestFFTLinearAndInvertible(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		exp := rapid.IntRange(1, 10).Draw(t, "exp")
		n := 1 << exp
		orig := make([]complex128, n)
		for i := range orig {
			orig[i] = complex(rapid.Float64Range(-1, 1).Draw(t, "re"), rapid.Float64Range(-1, 1).Draw(t, "im"))
		}

		x := make([]complex128, n)
		copy(x, orig)
		FFT(x, n)

		for i := range x {
			x[i] = cmplx.Conj(x[i])
		}
		FFT(x, n)
		for i := range x {
			x[i] = cmplx.Conj(x[i]) / complex(float64(n), 0)
		}

		for i := range x {
			assert.InDelta(t, real(orig[i]), real(x[i]), 1e-9*float64(n))
			assert.InDelta(t, imag(orig[i]), imag(x[i]), 1e-9*float64(n))
		}

		// Linearity: FFT(a*orig + other) == a*FFT(orig) + FFT(other).
		a := complex(rapid.Float64Range(-2, 2).Draw(t, "a"), 0)
		other := make([]complex128, n)
		mixed := make([]complex128, n)
		for i := range other {
			other[i] = complex(rapid.Float64Range(-1, 1).Draw(t, "re2"), rapid.Float64Range(-1, 1).Draw(t, "im2"))
			mixed[i] = a*orig[i] + other[i]
		}
		fo := append([]complex128(nil), orig...)
		FFT(fo, n)
		FFT(other, n)
		FFT(mixed, n)
		for i := range mixed {
			want := a*fo[i] + other[i]
			assert.InDelta(t, real(want), real(mixed[i]), 1e-9*float64(n))
			assert.InDelta(t, imag(want), imag(mixed[i]), 1e-9*float64(n))
		}
	})
}
