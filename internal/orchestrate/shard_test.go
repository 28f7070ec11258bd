package orchestrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestPlanShardsLiteralExample(t *testing.T) {
	shards := PlanShards(100, 3, 1, 0)
	assert.Equal(t, []Shard{
		{StartFrame: 0, TotalFrames: 34, AudioStart: 0, AudioLen: 33},
		{StartFrame: 34, TotalFrames: 33, AudioStart: 34, AudioLen: 32},
		{StartFrame: 67, TotalFrames: 33, AudioStart: 67, AudioLen: 32},
	}, shards)
}

func TestPlanShardsCoverEveryFrameExactlyOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sampleNum := rapid.IntRange(0, 2000).Draw(t, "sampleNum")
		workerCount := rapid.IntRange(1, 32).Draw(t, "workerCount")
		frameInterval := rapid.IntRange(1, 64).Draw(t, "frameInterval")

		shards := PlanShards(sampleNum, workerCount, frameInterval, 4096)

		covered := make([]bool, sampleNum)
		for _, s := range shards {
			for i := 0; i < s.TotalFrames; i++ {
				idx := s.StartFrame + i
				assert.False(t, covered[idx], "frame %d covered twice", idx)
				covered[idx] = true
			}
		}
		for i, c := range covered {
			assert.True(t, c, "frame %d never covered", i)
		}
	})
}

func TestSampleNumClampsAtZero(t *testing.T) {
	assert.Equal(t, 0, SampleNum(10, 4096, 512))
	assert.Equal(t, 0, SampleNum(4096, 4096, 512))
	assert.Equal(t, 1, SampleNum(4096+512, 4096, 512))
}
