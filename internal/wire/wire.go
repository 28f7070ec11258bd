// Package wire defines the fixed-layout binary messages the orchestrator
// and its workers exchange, and the byte-exact encode/decode pairs for
// their binary form. internal/orchestrate passes the structs in-process;
// internal/ipc uses only this package's status codes and sink types and
// never sends the encoded bytes.
//
// Every layout here is little-endian and tightly packed — no field
// padding — matching encoding/binary.Write/Read's own behavior for
// fixed-size struct fields, the same convention the teacher's
// internal/analysis/features.go ToBytes/FromBytes pair uses.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// KernelInit is sent once to the worker that builds the shared kernel.
// Wire size: 4 + 8 + 8 + 4 + 8 = 32 bytes.
type KernelInit struct {
	FS     int32
	FMin   float64
	FMax   float64
	Bins   int32
	Thresh float64
}

// Encode writes k in wire format.
func (k KernelInit) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, k)
	return buf.Bytes()
}

// DecodeKernelInit reads a KernelInit from its wire format.
func DecodeKernelInit(b []byte) (KernelInit, error) {
	var k KernelInit
	if len(b) != 32 {
		return k, fmt.Errorf("wire: KernelInit wants 32 bytes, got %d", len(b))
	}
	err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &k)
	return k, err
}

// KernelReady is the worker's reply to KernelInit. Wire size: 8 bytes.
type KernelReady struct {
	FFTSize int32
	Bins    int32
}

func (k KernelReady) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, k)
	return buf.Bytes()
}

func DecodeKernelReady(b []byte) (KernelReady, error) {
	var k KernelReady
	if len(b) != 8 {
		return k, fmt.Errorf("wire: KernelReady wants 8 bytes, got %d", len(b))
	}
	err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &k)
	return k, err
}

// AnalyzeShardHeader precedes a shard's audio payload. Wire size: 16 bytes.
type AnalyzeShardHeader struct {
	StartFrame    int32
	FrameInterval int32
	TotalSamples  int32
	SampleStart   int32
}

// AnalyzeShard is a header plus its contiguous f64 audio samples. The
// sample count is (TotalSamples-1)*FrameInterval + fftSize, computed by
// the caller (the header alone doesn't carry fftSize).
type AnalyzeShard struct {
	Header AnalyzeShardHeader
	Audio  []float64
}

func (s AnalyzeShard) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, s.Header)
	_ = binary.Write(buf, binary.LittleEndian, s.Audio)
	return buf.Bytes()
}

func DecodeAnalyzeShard(b []byte) (AnalyzeShard, error) {
	var s AnalyzeShard
	if len(b) < 16 {
		return s, fmt.Errorf("wire: AnalyzeShard header wants 16 bytes, got %d", len(b))
	}
	r := bytes.NewReader(b)
	if err := binary.Read(r, binary.LittleEndian, &s.Header); err != nil {
		return s, err
	}
	samples := (len(b) - 16) / 8
	s.Audio = make([]float64, samples)
	if err := binary.Read(r, binary.LittleEndian, &s.Audio); err != nil {
		return s, err
	}
	return s, nil
}

// AnalyzeShardReplyHeader precedes a shard result's magnitude payload.
// Wire size: 12 bytes.
type AnalyzeShardReplyHeader struct {
	Bins         int32
	TotalSamples int32
	SampleStart  int32
}

// AnalyzeShardReply is a header plus Bins*TotalSamples row-major f64
// magnitudes, bin as the fast axis.
type AnalyzeShardReply struct {
	Header AnalyzeShardReplyHeader
	Values []float64
}

func (r AnalyzeShardReply) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, r.Header)
	_ = binary.Write(buf, binary.LittleEndian, r.Values)
	return buf.Bytes()
}

func DecodeAnalyzeShardReply(b []byte) (AnalyzeShardReply, error) {
	var r AnalyzeShardReply
	if len(b) < 12 {
		return r, fmt.Errorf("wire: AnalyzeShardReply header wants 12 bytes, got %d", len(b))
	}
	rd := bytes.NewReader(b)
	if err := binary.Read(rd, binary.LittleEndian, &r.Header); err != nil {
		return r, err
	}
	n := (len(b) - 12) / 8
	r.Values = make([]float64, n)
	if err := binary.Read(rd, binary.LittleEndian, &r.Values); err != nil {
		return r, err
	}
	return r, nil
}

// StatusCode identifies which phase of an analysis run a status_sink
// callback is reporting on.
type StatusCode int32

const (
	StatusStartSparseKernel    StatusCode = 0
	StatusSparseKernelComplete StatusCode = 1
	StatusConstantqItem        StatusCode = 2
	// StatusError is an extension beyond the original three codes: a
	// terminal TransportError or PreconditionViolation reported to the
	// status sink, with no further data to follow.
	StatusError StatusCode = 3
)

// StatusSink receives lifecycle notifications for an analysis run. Payload
// meaning depends on Code: total frames for StatusSparseKernelComplete,
// frames-in-block for StatusConstantqItem, unused otherwise.
type StatusSink interface {
	StatusUpdate(code StatusCode, payload int)
}

// DataSink receives one magnitude cell at a time.
type DataSink interface {
	DataUpdate(frameIndex, bin int, magnitude float64)
}

// StatusSinkFunc adapts a function to StatusSink.
type StatusSinkFunc func(code StatusCode, payload int)

func (f StatusSinkFunc) StatusUpdate(code StatusCode, payload int) { f(code, payload) }

// DataSinkFunc adapts a function to DataSink.
type DataSinkFunc func(frameIndex, bin int, magnitude float64)

func (f DataSinkFunc) DataUpdate(frameIndex, bin int, magnitude float64) { f(frameIndex, bin, magnitude) }
