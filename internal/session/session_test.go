package session

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	return Params{FS: 44100, FMin: 523.25, FMax: 1046.5, BinsPerOctave: 24, Threshold: 0.0054}
}

func toneBuffer(n int, freqs []float64, fs int) []float64 {
	data := make([]float64, n)
	for x := 0; x < n; x++ {
		for _, f := range freqs {
			data[x] += 0.3 * math.Sin(2*math.Pi*float64(x)*f/float64(fs))
		}
	}
	return data
}

func TestSessionSingleSnapshotAtExactLength(t *testing.T) {
	s, err := New(testParams())
	require.NoError(t, err)

	data := toneBuffer(s.Size(), []float64{523.25, 659.25, 783.99}, 44100)
	mags, err := s.AnalyzeSnapshot(data, 0, s.Size())
	require.NoError(t, err)
	assert.Len(t, mags, s.Bins())
	assert.Greater(t, mags[0], mags[2])
}

func TestSessionAnalyzeToSingleMatchesAnalyze(t *testing.T) {
	s, err := New(testParams())
	require.NoError(t, err)

	frameInterval := 512
	total := 4
	data := toneBuffer(s.Size()+frameInterval*(total-1)+1000, []float64{523.25}, 44100)

	rows, err := s.Analyze(data, 0, frameInterval, total)
	require.NoError(t, err)

	flat, err := s.AnalyzeToSingle(data, 0, frameInterval, total)
	require.NoError(t, err)

	bins := s.Bins()
	require.Len(t, flat, total*bins)
	for i, row := range rows {
		for b, v := range row {
			assert.InDelta(t, v, flat[i*bins+b], 1e-12)
		}
	}
}

func TestSessionPreconditionViolations(t *testing.T) {
	s, err := New(testParams())
	require.NoError(t, err)

	data := toneBuffer(s.Size(), nil, 44100)

	_, err = s.AnalyzeSnapshot(data, -1, s.Size())
	assert.ErrorIs(t, err, ErrPrecondition)

	_, err = s.AnalyzeSnapshot(data, 0, s.Size()-1)
	assert.ErrorIs(t, err, ErrPrecondition)

	_, err = s.AnalyzeSnapshot(data, 1, s.Size())
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestSessionSharedKernelAcrossSessions(t *testing.T) {
	a, err := New(testParams())
	require.NoError(t, err)
	b := FromKernel(a.Kernel())
	assert.Same(t, a.Kernel(), b.Kernel())
}
