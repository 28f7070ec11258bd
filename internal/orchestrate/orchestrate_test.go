package orchestrate

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/austinkregel/constantq-go/internal/session"
	"github.com/austinkregel/constantq-go/internal/wire"
)

type collectingSink struct {
	mu       sync.Mutex
	statuses []wire.StatusCode
	cells    map[[2]int]float64
}

func newCollectingSink() *collectingSink {
	return &collectingSink{cells: make(map[[2]int]float64)}
}

func (c *collectingSink) StatusUpdate(code wire.StatusCode, payload int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses = append(c.statuses, code)
}

func (c *collectingSink) DataUpdate(frameIndex, bin int, magnitude float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cells[[2]int{frameIndex, bin}] = magnitude
}

func testParams() Params {
	return Params{
		FS: 44100, FMin: 523.25, FMax: 1046.5, BinsPerOctave: 24,
		Threshold: 0.0054, FrameInterval: 512, WorkerCount: 3,
	}
}

func toneBuffer(n int, fs int, freqs ...float64) []float64 {
	data := make([]float64, n)
	for x := 0; x < n; x++ {
		for _, f := range freqs {
			data[x] += 0.3 * math.Sin(2*math.Pi*float64(x)*f/float64(fs))
		}
	}
	return data
}

func TestRunDeliversEveryCellExactlyOnce(t *testing.T) {
	p := testParams()
	totalFrames := 7
	audioLen := (totalFrames-1)*p.FrameInterval + 4096 + 1000
	audio := toneBuffer(audioLen, p.FS, 523.25, 659.25, 783.99)

	sink := newCollectingSink()
	err := Run(context.Background(), p, audio, sink, sink)
	require.NoError(t, err)

	sess, err := session.New(session.Params{FS: p.FS, FMin: p.FMin, FMax: p.FMax, BinsPerOctave: p.BinsPerOctave, Threshold: p.Threshold})
	require.NoError(t, err)

	sampleNum := SampleNum(len(audio), sess.Size(), p.FrameInterval)
	assert.Len(t, sink.cells, sampleNum*sess.Bins())

	want, err := sess.Analyze(audio, 0, p.FrameInterval, sampleNum)
	require.NoError(t, err)
	for i, row := range want {
		for b, v := range row {
			got, ok := sink.cells[[2]int{i, b}]
			require.True(t, ok, "missing cell frame=%d bin=%d", i, b)
			assert.InDelta(t, v, got, 1e-9)
		}
	}

	assert.Contains(t, sink.statuses, wire.StatusStartSparseKernel)
	assert.Contains(t, sink.statuses, wire.StatusSparseKernelComplete)
	assert.Contains(t, sink.statuses, wire.StatusConstantqItem)
}

func TestRunNumericOutOfRangeFailsFast(t *testing.T) {
	p := testParams()
	p.FMax = p.FMin
	sink := newCollectingSink()
	err := Run(context.Background(), p, make([]float64, 8192), sink, sink)
	assert.Error(t, err)
	assert.Empty(t, sink.cells)
}

func TestRunCancellation(t *testing.T) {
	p := testParams()
	p.WorkerCount = 8
	totalFrames := 50
	audioLen := (totalFrames-1)*p.FrameInterval + 4096
	audio := toneBuffer(audioLen, p.FS, 523.25)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := newCollectingSink()
	err := Run(ctx, p, audio, sink, sink)
	assert.Error(t, err)
}
