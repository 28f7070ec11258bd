// Package kernel builds and represents the sparse constant-Q spectral
// kernel: one row of (FFT bin, complex multiplier) pairs per output bin.
package kernel

import "fmt"

// Entry is one non-zero cell of the sparse kernel: the FFT bin it reads
// from and the complex multiplier applied to that bin's coefficient.
type Entry struct {
	FFTIndex   int
	Multiplier complex128
}

func (e Entry) String() string {
	return fmt.Sprintf("Entry{index=%d, multiplier=%v}", e.FFTIndex, e.Multiplier)
}

// Sparse is an immutable sparse kernel: one ordered row of Entry values per
// output bin, plus the FFT window length every row was built against.
//
// Sparse is a pure function of the (fs, fmin, fmax, binsPerOctave,
// threshold) tuple it was built from — it is never mutated after Build
// returns it, and is safe to share by reference across concurrent workers.
type Sparse struct {
	Rows    [][]Entry
	FFTSize int
	Bins    int
}

func (s *Sparse) String() string {
	return fmt.Sprintf("Sparse{bins=%d, fftSize=%d}", s.Bins, s.FFTSize)
}
