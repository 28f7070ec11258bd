package cqmath

import "math"

// NextPow2Exp returns floor(ceil(log2(floor(n)))).
//
// This is algebraically redundant — it equals ceil(log2(floor(n))) for any
// n where log2(floor(n)) isn't already an integer, and equals exactly that
// integer otherwise. It is preserved exactly rather than simplified: kernel
// sizing depends on it being bit-stable against historical reference values
// (e.g. next_pow2_exp(ceil(Q*44100/523.25)) must keep landing on 4096), and
// the extra floor/ceil pair may be compensating for floating-point error on
// exact powers of two in ways a "simplified" ceil(log2(x)) would not.
func NextPow2Exp(n float64) int {
	return int(math.Floor(math.Ceil(math.Log2(math.Floor(n)))))
}

// Hamming returns the L-point Hamming window as complex values with a zero
// imaginary part. Hamming(1) is the single-element window [1+0i].
func Hamming(l int) []complex128 {
	w := make([]complex128, l)
	if l == 1 {
		w[0] = 1
		return w
	}
	for n := 0; n < l; n++ {
		v := 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/float64(l-1))
		w[n] = complex(v, 0)
	}
	return w
}

// Euler returns e^(i*theta) = cos(theta) + i*sin(theta).
func Euler(theta float64) complex128 {
	return complex(math.Cos(theta), math.Sin(theta))
}

// FFT computes the unnormalized forward DFT of x[:n] in place, using the
// sign convention e^(-2*pi*i*k/L). n must be a power of two and len(x) >= n.
//
// Callers that need the inverse transform: conjugate, FFT, conjugate, and
// scale by 1/n — the forward transform here applies no normalization of its
// own, and nothing downstream should either (the sparse kernel already
// embeds the 1/N factor its multipliers need).
func FFT(x []complex128, n int) {
	shift := 1 + LeadingZeros32(uint32(n))
	for k := 0; k < n; k++ {
		j := int(BitReverse32(uint32(k)) >> shift)
		if j > k {
			x[j], x[k] = x[k], x[j]
		}
	}

	for l := 2; l <= n; l *= 2 {
		half := l / 2
		for k := 0; k < half; k++ {
			theta := -2 * math.Pi * float64(k) / float64(l)
			w := Euler(theta)
			for j := 0; j < n/l; j++ {
				idx := j*l + k
				tao := w * x[idx+half]
				x[idx+half] = x[idx] - tao
				x[idx] = x[idx] + tao
			}
		}
	}
}
