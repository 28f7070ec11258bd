package ipc

import (
	"log"
	"time"
)

// RequestLogger logs incoming requests (for debugging).
func RequestLogger(req *Request) {
	log.Printf("Request: cmd=%s", req.Cmd)
}

// ResponseLogger logs outgoing responses (for debugging).
func ResponseLogger(resp *Response, duration time.Duration) {
	if resp.Success {
		log.Printf("Response: success=true duration=%v", duration)
	} else {
		log.Printf("Response: success=false error=%s duration=%v", resp.Error, duration)
	}
}

// batchingDataSink adapts wire.DataSink's per-cell callback into one
// DataPush per frame, so an analyze run doesn't flood the socket with one
// JSON message per (frame, bin) cell. It relies on the orchestrator's
// delivery order (bin 0..bins-1 within a frame, one frame at a time) to
// detect frame boundaries; Flush must be called once after the run
// finishes to emit the last buffered frame.
type batchingDataSink struct {
	emit func(DataPush)

	curFrame int
	curBins  []float64
	pending  bool
}

func newBatchingDataSink(emit func(DataPush)) *batchingDataSink {
	return &batchingDataSink{emit: emit}
}

func (b *batchingDataSink) DataUpdate(frameIndex, bin int, magnitude float64) {
	if bin == 0 {
		b.flushPending()
		b.curFrame = frameIndex
		b.curBins = b.curBins[:0]
		b.pending = true
	}
	b.curBins = append(b.curBins, magnitude)
}

// Flush emits any buffered frame. Call once after the run that feeds this
// sink has finished.
func (b *batchingDataSink) Flush() {
	b.flushPending()
}

func (b *batchingDataSink) flushPending() {
	if !b.pending {
		return
	}
	values := make([]float64, len(b.curBins))
	copy(values, b.curBins)
	b.emit(DataPush{
		SampleStart:  b.curFrame,
		Bins:         len(values),
		TotalSamples: 1,
		Values:       values,
	})
	b.pending = false
}
