package orchestrate

import "math"

// Shard is a contiguous range of output frames assigned to one worker,
// plus the slice bounds of the audio buffer it needs to compute them.
type Shard struct {
	StartFrame int // first output frame index, inclusive, global
	TotalFrames int // number of output frames this shard produces
	AudioStart int // offset into the full audio buffer
	AudioLen   int // length of the audio slice this shard reads
}

// PlanShards partitions [0, sampleNum) into workerCount contiguous shards
// using the ceil(((w+1)/workerCount)*sampleNum) boundary rule, so the last
// shard absorbs any rounding. Empty shards are omitted.
func PlanShards(sampleNum, workerCount, frameInterval, fftSize int) []Shard {
	if workerCount <= 0 || sampleNum <= 0 {
		return nil
	}

	shards := make([]Shard, 0, workerCount)
	start := 0
	for w := 0; w < workerCount; w++ {
		end := int(math.Ceil(float64(w+1) / float64(workerCount) * float64(sampleNum)))
		total := end - start
		if total > 0 {
			shards = append(shards, Shard{
				StartFrame:  start,
				TotalFrames: total,
				AudioStart:  start * frameInterval,
				AudioLen:    (total-1)*frameInterval + fftSize,
			})
		}
		start = end
	}
	return shards
}

// SampleNum is the total number of output frames a full audio buffer of
// the given length yields at fftSize/frameInterval, per
// floor((len(audio)-fftSize)/frameInterval). Negative results clamp to 0
// (too little audio for even one frame).
func SampleNum(audioLen, fftSize, frameInterval int) int {
	n := audioLen - fftSize
	if n < 0 {
		return 0
	}
	return n / frameInterval
}
