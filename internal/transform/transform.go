// Package transform applies a sparse constant-Q kernel to a single
// prepared FFT window.
package transform

import (
	"fmt"

	"github.com/austinkregel/constantq-go/internal/cqmath"
	"github.com/austinkregel/constantq-go/internal/kernel"
)

// Apply FFTs buf in place at length k.FFTSize, then computes one complex
// output per kernel row as a sparse dot product against the freshly
// transformed spectrum. out must have length k.Bins.
//
// The kernel's multipliers already embed conjugation and 1/N
// normalization (see kernel.Build) — Apply must not additionally
// normalize the FFT or re-conjugate its output, or magnitudes will be
// silently wrong by a constant factor.
func Apply(buf []complex128, k *kernel.Sparse, out []complex128) error {
	if len(buf) < k.FFTSize {
		return fmt.Errorf("transform: buffer length %d shorter than fft size %d", len(buf), k.FFTSize)
	}
	if len(out) != k.Bins {
		return fmt.Errorf("transform: output length %d does not match kernel bins %d", len(out), k.Bins)
	}

	cqmath.FFT(buf, k.FFTSize)

	for b, row := range k.Rows {
		var sum complex128
		for _, e := range row {
			sum += buf[e.FFTIndex] * e.Multiplier
		}
		out[b] = sum
	}
	return nil
}
