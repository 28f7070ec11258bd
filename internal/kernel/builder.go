package kernel

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/austinkregel/constantq-go/internal/cqmath"
)

// Build constructs a sparse constant-Q kernel from the classic five
// parameters: sample rate fs, frequency range [fmin, fmax], bins per
// octave, and the magnitude threshold below which a spectral coefficient
// is dropped from the sparse representation.
//
// By contract 0 < fmin < fmax <= fs/2 and binsPerOctave >= 1, though this
// is not enforced beyond the NumericOutOfRange cases spec.md calls out
// explicitly (fmin == 0, fmax <= fmin, or the resulting bin count being
// zero).
func Build(fs int, fmin, fmax float64, binsPerOctave int, threshold float64) (*Sparse, error) {
	if fmin == 0 {
		return nil, fmt.Errorf("kernel: fmin is zero: %w", ErrNumericOutOfRange)
	}
	if fmax <= fmin {
		return nil, fmt.Errorf("kernel: fmax %v <= fmin %v: %w", fmax, fmin, ErrNumericOutOfRange)
	}

	q := 1 / (math.Pow(2, 1/float64(binsPerOctave)) - 1)
	bins := int(math.Ceil(float64(binsPerOctave) * math.Log2(fmax/fmin)))
	if bins == 0 {
		return nil, fmt.Errorf("kernel: parameters yield zero bins: %w", ErrNumericOutOfRange)
	}

	p := cqmath.NextPow2Exp(math.Ceil(q * float64(fs) / fmin))
	fftSize := int(math.Floor(math.Pow(2, float64(p))))

	rows := make([][]Entry, bins)
	scratch := make([]complex128, fftSize)

	for k := bins; k >= 1; k-- {
		centerFreq := fmin * math.Pow(2, float64(k-1)/float64(binsPerOctave))
		atomLen := int(math.Ceil(q * float64(fs) / centerFreq))
		if atomLen > fftSize {
			panic(fmt.Sprintf("kernel: atom length %d exceeds fft size %d for bin %d", atomLen, fftSize, k))
		}

		window := cqmath.Hamming(atomLen)
		for i := range scratch {
			scratch[i] = 0
		}
		for j := 0; j < atomLen; j++ {
			hammingMul := window[j] / complex(float64(atomLen), 0)
			tone := cqmath.Euler(2 * math.Pi * q * float64(j) / float64(atomLen))
			scratch[j] = hammingMul * tone
		}

		cqmath.FFT(scratch, fftSize)

		var row []Entry
		for m := 0; m < fftSize; m++ {
			if cmplx.Abs(scratch[m]) > threshold {
				row = append(row, Entry{
					FFTIndex:   m,
					Multiplier: cmplx.Conj(scratch[m]) / complex(float64(fftSize), 0),
				})
			}
		}
		rows[k-1] = row
	}

	return &Sparse{Rows: rows, FFTSize: fftSize, Bins: bins}, nil
}
