// Package orchestrate drives a full constant-Q analysis run: it builds
// the kernel once, shards a long audio buffer across a pool of workers,
// and streams results back to caller-supplied sinks.
//
// The concurrency shape mirrors the teacher's worker pool
// (internal/analysis/worker.go): a bounded set of goroutines pull jobs
// off a buffered channel, a WaitGroup marks completion, and a
// context.Context cancels in-flight and not-yet-started work. No shared
// mutable state crosses a worker boundary — each worker gets its own
// *session.Session (own scratch buffers) over a kernel shared by
// reference.
package orchestrate

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/austinkregel/constantq-go/internal/kernel"
	"github.com/austinkregel/constantq-go/internal/session"
	"github.com/austinkregel/constantq-go/internal/wire"
)

// Params bundles the run configuration: kernel-build parameters plus the
// frame stride and worker pool size.
type Params struct {
	FS            int
	FMin          float64
	FMax          float64
	BinsPerOctave int
	Threshold     float64
	FrameInterval int
	WorkerCount   int
}

type shardJob struct {
	shard         Shard
	audio         []float64
	frameInterval int
}

type shardResult struct {
	reply wire.AnalyzeShardReply
	err   error
}

// Run builds the kernel for p, shards audio across p.WorkerCount workers,
// and reports progress and results through statusSink/dataSink. Sinks are
// invoked only from Run's own goroutine, never from a worker goroutine, so
// callers don't need to synchronize them.
//
// Run returns a non-nil error for NumericOutOfRange failures (detected
// before any dispatch) and for TransportError-class failures (any shard
// precondition violation is treated as run-fatal, per spec's propagation
// policy: outstanding shards are cancelled and no further data is
// emitted).
func Run(ctx context.Context, p Params, audio []float64, statusSink wire.StatusSink, dataSink wire.DataSink) error {
	statusSink.StatusUpdate(wire.StatusStartSparseKernel, 0)

	initMsg := wire.KernelInit{
		FS:     int32(p.FS),
		FMin:   p.FMin,
		FMax:   p.FMax,
		Bins:   int32(p.BinsPerOctave),
		Thresh: p.Threshold,
	}
	k, _, err := buildKernel(initMsg)
	if err != nil {
		statusSink.StatusUpdate(wire.StatusError, 0)
		return fmt.Errorf("orchestrate: kernel build: %w", err)
	}

	sampleNum := SampleNum(len(audio), k.FFTSize, p.FrameInterval)
	statusSink.StatusUpdate(wire.StatusSparseKernelComplete, sampleNum)

	workerCount := p.WorkerCount
	if workerCount <= 0 {
		workerCount = runtime.GOMAXPROCS(0)
	}

	shards := PlanShards(sampleNum, workerCount, p.FrameInterval, k.FFTSize)
	if len(shards) == 0 {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan shardJob, len(shards))
	results := make(chan shardResult, len(shards))

	var wg sync.WaitGroup
	if workerCount > len(shards) {
		workerCount = len(shards)
	}
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go worker(runCtx, &wg, k, jobs, results)
	}

	for _, s := range shards {
		jobs <- shardJob{
			shard:         s,
			audio:         audio[s.AudioStart : s.AudioStart+s.AudioLen],
			frameInterval: p.FrameInterval,
		}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		select {
		case <-ctx.Done():
			continue
		default:
		}
		if res.err != nil {
			cancel()
			statusSink.StatusUpdate(wire.StatusError, 0)
			return fmt.Errorf("orchestrate: shard failed: %w", res.err)
		}
		deliverShard(dataSink, res.reply)
		statusSink.StatusUpdate(wire.StatusConstantqItem, int(res.reply.Header.TotalSamples))
	}

	return ctx.Err()
}

func deliverShard(dataSink wire.DataSink, reply wire.AnalyzeShardReply) {
	bins := int(reply.Header.Bins)
	for i := 0; i < int(reply.Header.TotalSamples); i++ {
		for b := 0; b < bins; b++ {
			dataSink.DataUpdate(int(reply.Header.SampleStart)+i, b, reply.Values[i*bins+b])
		}
	}
}

func worker(ctx context.Context, wg *sync.WaitGroup, k *kernel.Sparse, jobs <-chan shardJob, results chan<- shardResult) {
	defer wg.Done()
	sess := session.FromKernel(k)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			reply, err := analyzeShard(sess, job)
			select {
			case results <- shardResult{reply: reply, err: err}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func analyzeShard(sess *session.Session, job shardJob) (wire.AnalyzeShardReply, error) {
	values, err := sess.AnalyzeToSingle(job.audio, 0, job.frameInterval, job.shard.TotalFrames)
	if err != nil {
		return wire.AnalyzeShardReply{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return wire.AnalyzeShardReply{
		Header: wire.AnalyzeShardReplyHeader{
			Bins:         int32(sess.Bins()),
			TotalSamples: int32(job.shard.TotalFrames),
			SampleStart:  int32(job.shard.StartFrame),
		},
		Values: values,
	}, nil
}

// buildKernel plays the role of the one helper worker spec.md §4.6 step 2
// describes: it consumes a KernelInit message and produces both the
// KernelReady reply and the kernel itself (the reply alone can't carry a
// whole sparse kernel over the wire — real workers that received only
// KernelReady would rebuild the same kernel locally, since it's a pure
// function of the same five parameters).
func buildKernel(msg wire.KernelInit) (*kernel.Sparse, wire.KernelReady, error) {
	k, err := kernel.Build(int(msg.FS), msg.FMin, msg.FMax, int(msg.Bins), msg.Thresh)
	if err != nil {
		return nil, wire.KernelReady{}, err
	}
	log.Printf("orchestrate: kernel ready: fft_size=%d bins=%d", k.FFTSize, k.Bins)
	return k, wire.KernelReady{FFTSize: int32(k.FFTSize), Bins: int32(k.Bins)}, nil
}
