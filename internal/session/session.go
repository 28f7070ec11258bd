// Package session caches a built constant-Q kernel and drives repeated
// analysis of a data buffer at multiple offsets, reusing its complex
// scratch buffers so the hot loop does not reallocate them (each snapshot
// still allocates its returned magnitude slice).
package session

import (
	"fmt"
	"math/cmplx"

	"github.com/austinkregel/constantq-go/internal/kernel"
	"github.com/austinkregel/constantq-go/internal/transform"
)

// Params bundles the five kernel-build parameters a Session is
// constructed from.
type Params struct {
	FS            int
	FMin          float64
	FMax          float64
	BinsPerOctave int
	Threshold     float64
}

// Session caches a sparse kernel and the two complex scratch buffers
// analysis reuses across snapshots. A Session is not safe for concurrent
// use — the orchestrator gives each worker its own Session.
type Session struct {
	kernel *kernel.Sparse
	in     []complex128
	out    []complex128
}

// New builds the kernel for p and returns a ready-to-use Session.
func New(p Params) (*Session, error) {
	k, err := kernel.Build(p.FS, p.FMin, p.FMax, p.BinsPerOctave, p.Threshold)
	if err != nil {
		return nil, err
	}
	return FromKernel(k), nil
}

// FromKernel wraps an already-built kernel in a new Session. Multiple
// Sessions may safely share the same *kernel.Sparse — it is immutable
// after Build returns it — while each Session keeps its own scratch
// buffers.
func FromKernel(k *kernel.Sparse) *Session {
	return &Session{
		kernel: k,
		in:     make([]complex128, k.FFTSize),
		out:    make([]complex128, k.Bins),
	}
}

// Bins returns the number of output bins.
func (s *Session) Bins() int { return s.kernel.Bins }

// Size returns the FFT window length.
func (s *Session) Size() int { return s.kernel.FFTSize }

// Kernel returns the underlying sparse kernel, e.g. so an orchestrator can
// hand the same kernel to other sessions without rebuilding it.
func (s *Session) Kernel() *kernel.Sparse { return s.kernel }

// AnalyzeSnapshot copies data[start:start+length] into the session's input
// scratch buffer, runs the transform, and returns one magnitude per bin.
//
// Preconditions: start >= 0, start+length <= len(data), length >=
// kernel.fft_size. Only the first fft_size samples of the window are used;
// length exists so callers can pass a window sized for the caller's own
// bookkeeping without re-slicing.
func (s *Session) AnalyzeSnapshot(data []float64, start, length int) ([]float64, error) {
	n := s.kernel.FFTSize
	if start < 0 {
		return nil, fmt.Errorf("session: negative start %d: %w", start, ErrPrecondition)
	}
	if start+length > len(data) {
		return nil, fmt.Errorf("session: start+length %d exceeds data length %d: %w", start+length, len(data), ErrPrecondition)
	}
	if length < n {
		return nil, fmt.Errorf("session: length %d shorter than fft size %d: %w", length, n, ErrPrecondition)
	}

	for i := 0; i < n; i++ {
		s.in[i] = complex(data[start+i], 0)
	}

	if err := transform.Apply(s.in, s.kernel, s.out); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	mags := make([]float64, s.kernel.Bins)
	for i, v := range s.out {
		mags[i] = cmplx.Abs(v)
	}
	return mags, nil
}

// Analyze runs totalAnalyses snapshots at offsets startFrame + i*frameInterval
// and returns one magnitude row per snapshot.
//
// Precondition: len(data) >= startFrame + frameInterval*totalAnalyses.
func (s *Session) Analyze(data []float64, startFrame, frameInterval, totalAnalyses int) ([][]float64, error) {
	if len(data) < startFrame+frameInterval*totalAnalyses {
		return nil, fmt.Errorf("session: data too short for %d analyses: %w", totalAnalyses, ErrPrecondition)
	}
	rows := make([][]float64, totalAnalyses)
	for i := 0; i < totalAnalyses; i++ {
		row, err := s.AnalyzeSnapshot(data, startFrame+i*frameInterval, s.kernel.FFTSize)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}

// AnalyzeToSingle is Analyze, but packs every bin into one flat row-major
// slice: values[i*bins+b].
//
// Precondition: len(data) >= startFrame + fft_size + frameInterval*(totalAnalyses-1).
func (s *Session) AnalyzeToSingle(data []float64, startFrame, frameInterval, totalAnalyses int) ([]float64, error) {
	need := startFrame + s.kernel.FFTSize
	if totalAnalyses > 1 {
		need += frameInterval * (totalAnalyses - 1)
	}
	if len(data) < need {
		return nil, fmt.Errorf("session: data too short for %d analyses: %w", totalAnalyses, ErrPrecondition)
	}

	bins := s.kernel.Bins
	values := make([]float64, totalAnalyses*bins)
	for i := 0; i < totalAnalyses; i++ {
		row, err := s.AnalyzeSnapshot(data, startFrame+i*frameInterval, s.kernel.FFTSize)
		if err != nil {
			return nil, err
		}
		copy(values[i*bins:(i+1)*bins], row)
	}
	return values, nil
}
