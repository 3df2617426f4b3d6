package audio_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicestudio/voice-service/internal/audio"
	"github.com/voicestudio/voice-service/internal/core"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	samples := []float64{0, 0.25, -0.25, 0.5, -0.5, 0.999, -0.999}

	encoded := audio.EncodeWAV(samples, testSampleRate)
	decoded, sampleRate, err := audio.DecodeWAV(encoded)

	require.NoError(t, err)
	assert.Equal(t, testSampleRate, sampleRate)
	require.Len(t, decoded, len(samples))

	for i := range samples {
		assert.InDelta(t, samples[i], decoded[i], 1.0/8192.0, "sample %d", i)
	}
}

func TestDecodeWAV_RejectsGarbage(t *testing.T) {
	t.Parallel()

	cases := map[string][]byte{
		"empty":        {},
		"too short":    []byte("RIFF"),
		"not riff":     []byte("this is definitely not a wav file, not at all"),
		"html upload":  []byte("<html><body>not audio</body></html>"),
		"bare header":  []byte("RIFFxxxxWAVE"),
		"wrong format": append([]byte("RIFFxxxxWAVE"), make([]byte, 32)...),
	}

	for name, data := range cases {
		_, _, err := audio.DecodeWAV(data)
		require.Error(t, err, name)
		assert.ErrorIs(t, err, core.ErrDecodeFailed, name)
	}
}

func TestDecodeWAV_RejectsFloatFormat(t *testing.T) {
	t.Parallel()

	encoded := audio.EncodeWAV([]float64{0.1, 0.2}, testSampleRate)
	// Flip the format code to IEEE float (3).
	binary.LittleEndian.PutUint16(encoded[20:22], 3)

	_, _, err := audio.DecodeWAV(encoded)

	require.ErrorIs(t, err, core.ErrDecodeFailed)
}

func TestDecodeWAV_MixesStereoToMono(t *testing.T) {
	t.Parallel()

	// Hand-build a stereo file: two frames, left/right pairs.
	frames := [][2]int16{{16384, 0}, {-16384, -16384}}
	dataSize := len(frames) * 4
	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], 2)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(testSampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(testSampleRate*4))
	binary.LittleEndian.PutUint16(buf[32:34], 4)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i, frame := range frames {
		binary.LittleEndian.PutUint16(buf[44+i*4:], uint16(frame[0]))
		binary.LittleEndian.PutUint16(buf[44+i*4+2:], uint16(frame[1]))
	}

	samples, sampleRate, err := audio.DecodeWAV(buf)

	require.NoError(t, err)
	assert.Equal(t, testSampleRate, sampleRate)
	require.Len(t, samples, 2)
	assert.InDelta(t, 0.25, samples[0], 0.001)
	assert.InDelta(t, -0.5, samples[1], 0.001)
}
