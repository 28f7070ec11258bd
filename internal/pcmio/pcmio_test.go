package pcmio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadInt16LE(t *testing.T) {
	buf := new(bytes.Buffer)
	for _, v := range []int16{0, 32767, -32768, -1} {
		require.NoError(t, binary.Write(buf, binary.LittleEndian, v))
	}
	out, err := ReadInt16LE(buf)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.InDelta(t, 0, out[0], 1e-9)
	assert.InDelta(t, 32767.0/32768.0, out[1], 1e-9)
	assert.InDelta(t, -1.0, out[2], 1e-9)
	assert.InDelta(t, -1.0/32768.0, out[3], 1e-9)
}

func TestReadInt16LERejectsOddLength(t *testing.T) {
	_, err := ReadInt16LE(bytes.NewReader([]byte{0x01}))
	assert.Error(t, err)
}

func TestReadFloat64LERoundTrip(t *testing.T) {
	want := []float64{1.5, -2.25, math.Pi}
	buf := new(bytes.Buffer)
	require.NoError(t, binary.Write(buf, binary.LittleEndian, want))
	got, err := ReadFloat64LE(buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestToMonoAveragesChannels(t *testing.T) {
	stereo := []float64{1, 3, 2, 4}
	mono := ToMono(stereo, 2)
	assert.Equal(t, []float64{2, 3}, mono)
}

func TestToMonoPassthroughSingleChannel(t *testing.T) {
	mono := ToMono([]float64{1, 2, 3}, 1)
	assert.Equal(t, []float64{1, 2, 3}, mono)
}
