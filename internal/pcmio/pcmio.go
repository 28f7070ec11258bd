// Package pcmio turns raw interleaved PCM sample streams into the
// []float64 buffers internal/orchestrate and internal/session operate
// on. It never decodes a compressed audio container — that's explicitly
// out of scope (spec.md's non-goals: "audio file decoding") — it only
// frames a raw sample stream the caller has already extracted.
//
// Conversion follows the same normalization the teacher's
// internal/analysis/features.go and internal/audio/analyzer.go use when
// turning decoded PCM into float64 for FFT analysis: int16 samples are
// divided by 32768.
package pcmio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ReadInt16LE reads little-endian signed 16-bit PCM samples from r and
// normalizes them to [-1, 1).
func ReadInt16LE(r io.Reader) ([]float64, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("pcmio: read: %w", err)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("pcmio: odd byte count %d for 16-bit samples", len(raw))
	}
	out := make([]float64, len(raw)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
		out[i] = float64(v) / 32768.0
	}
	return out, nil
}

// ReadFloat64LE reads little-endian IEEE-754 64-bit PCM samples from r
// unchanged.
func ReadFloat64LE(r io.Reader) ([]float64, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("pcmio: read: %w", err)
	}
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("pcmio: byte count %d not a multiple of 8 for float64 samples", len(raw))
	}
	out := make([]float64, len(raw)/8)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &out); err != nil {
		return nil, fmt.Errorf("pcmio: decode: %w", err)
	}
	return out, nil
}

// ToMono averages n interleaved channels down to one, the same reduction
// the teacher's audio analyzer applies before windowing.
func ToMono(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		out := make([]float64, len(interleaved))
		copy(out, interleaved)
		return out
	}
	frames := len(interleaved) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		out[i] = sum / float64(channels)
	}
	return out
}
