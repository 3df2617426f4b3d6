// Package audio provides PCM WAV decoding and encoding plus the source
// recording quality validator.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/voicestudio/voice-service/internal/core"
)

// WAV format constants.
const (
	riffHeaderSize   = 12
	chunkHeaderSize  = 8
	fmtChunkMinSize  = 16
	pcmFormatCode    = 1
	bitsPerSample    = 16
	bytesPerSample   = 2
	maxSampleValue   = 32767.0
	sampleScale      = 32768.0
	wavHeaderSize    = 44
	minDecodableRate = 8000
	maxDecodableRate = 192000
)

// DecodeWAV parses a 16-bit PCM RIFF/WAVE file into float64 samples in
// [-1, 1) and the declared sample rate. Multichannel audio is mixed down to
// mono. Any unreadable or unsupported input fails with core.ErrDecodeFailed;
// decode never panics on malformed data.
func DecodeWAV(data []byte) ([]float64, int, error) {
	if len(data) < riffHeaderSize {
		return nil, 0, fmt.Errorf("%w: file too small", core.ErrDecodeFailed)
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("%w: not a RIFF/WAVE file", core.ErrDecodeFailed)
	}

	sampleRate, channels, pcm, err := scanChunks(data[riffHeaderSize:])
	if err != nil {
		return nil, 0, err
	}

	samples := mixToMono(pcm, channels)

	return samples, sampleRate, nil
}

// scanChunks walks the RIFF chunk list and returns the format parameters and
// raw PCM payload.
func scanChunks(body []byte) (sampleRate, channels int, pcm []byte, err error) {
	var haveFmt, haveData bool

	for len(body) >= chunkHeaderSize {
		chunkID := string(body[0:4])
		chunkSize := int(binary.LittleEndian.Uint32(body[4:8]))
		body = body[chunkHeaderSize:]

		if chunkSize < 0 || chunkSize > len(body) {
			return 0, 0, nil, fmt.Errorf("%w: truncated chunk %q", core.ErrDecodeFailed, chunkID)
		}

		switch chunkID {
		case "fmt ":
			sampleRate, channels, err = parseFormatChunk(body[:chunkSize])
			if err != nil {
				return 0, 0, nil, err
			}

			haveFmt = true
		case "data":
			pcm = body[:chunkSize]
			haveData = true
		}

		// Chunks are word-aligned.
		if chunkSize%2 == 1 && chunkSize < len(body) {
			chunkSize++
		}

		body = body[chunkSize:]
	}

	if !haveFmt || !haveData {
		return 0, 0, nil, fmt.Errorf("%w: missing fmt or data chunk", core.ErrDecodeFailed)
	}

	if len(pcm)%(bytesPerSample*channels) != 0 {
		pcm = pcm[:len(pcm)-len(pcm)%(bytesPerSample*channels)]
	}

	return sampleRate, channels, pcm, nil
}

func parseFormatChunk(chunk []byte) (sampleRate, channels int, err error) {
	if len(chunk) < fmtChunkMinSize {
		return 0, 0, fmt.Errorf("%w: fmt chunk too small", core.ErrDecodeFailed)
	}

	format := binary.LittleEndian.Uint16(chunk[0:2])
	if format != pcmFormatCode {
		return 0, 0, fmt.Errorf("%w: unsupported audio format %d", core.ErrDecodeFailed, format)
	}

	channels = int(binary.LittleEndian.Uint16(chunk[2:4]))
	if channels < 1 {
		return 0, 0, fmt.Errorf("%w: invalid channel count %d", core.ErrDecodeFailed, channels)
	}

	sampleRate = int(binary.LittleEndian.Uint32(chunk[4:8]))
	if sampleRate < minDecodableRate || sampleRate > maxDecodableRate {
		return 0, 0, fmt.Errorf("%w: invalid sample rate %d", core.ErrDecodeFailed, sampleRate)
	}

	bits := binary.LittleEndian.Uint16(chunk[14:16])
	if bits != bitsPerSample {
		return 0, 0, fmt.Errorf("%w: unsupported bit depth %d", core.ErrDecodeFailed, bits)
	}

	return sampleRate, channels, nil
}

// mixToMono converts interleaved little-endian int16 frames to mono float64
// samples, averaging channels.
func mixToMono(pcm []byte, channels int) []float64 {
	frameSize := bytesPerSample * channels
	frames := len(pcm) / frameSize
	samples := make([]float64, frames)

	for i := range frames {
		var sum float64

		for ch := range channels {
			offset := i*frameSize + ch*bytesPerSample
			value := int16(binary.LittleEndian.Uint16(pcm[offset : offset+2]))
			sum += float64(value) / sampleScale
		}

		samples[i] = sum / float64(channels)
	}

	return samples
}

// EncodeWAV renders mono float64 samples as a 16-bit PCM WAV file. Samples
// outside [-1, 1] are clamped.
func EncodeWAV(samples []float64, sampleRate int) []byte {
	dataSize := len(samples) * bytesPerSample
	buf := make([]byte, wavHeaderSize+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], fmtChunkMinSize)
	binary.LittleEndian.PutUint16(buf[20:22], pcmFormatCode)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*bytesPerSample))
	binary.LittleEndian.PutUint16(buf[32:34], bytesPerSample)
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i, sample := range samples {
		clamped := math.Max(-1.0, math.Min(1.0, sample))
		value := int16(clamped * maxSampleValue)
		binary.LittleEndian.PutUint16(buf[wavHeaderSize+i*bytesPerSample:], uint16(value))
	}

	return buf
}
