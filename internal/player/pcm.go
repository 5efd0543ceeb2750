package player

import (
	"encoding/binary"
	"math"

	"github.com/samber/lo"
)

const bytesPerSample = 2 // 16-bit

// FrameSize returns the byte size of one interleaved frame.
func FrameSize(channels int) int {
	return lo.Clamp(channels, 1, 2) * bytesPerSample
}

// EncodePCM converts float samples to interleaved signed 16-bit
// little-endian PCM. Mono output takes the left channel.
func EncodePCM(samples [][2]float64, channels int) []byte {
	channels = lo.Clamp(channels, 1, 2)
	buf := make([]byte, len(samples)*channels*bytesPerSample)
	i := 0
	for _, s := range samples {
		for ch := range channels {
			binary.LittleEndian.PutUint16(buf[i:], uint16(toInt16(s[ch]))) //nolint:gosec // audio samples
			i += bytesPerSample
		}
	}
	return buf
}

// DecodePCM fills samples from interleaved signed 16-bit little-endian PCM
// and returns how many frames were decoded. Mono input is duplicated to
// both channels.
func DecodePCM(samples [][2]float64, pcm []byte, channels int) int {
	channels = lo.Clamp(channels, 1, 2)
	frameSize := channels * bytesPerSample
	n := min(len(samples), len(pcm)/frameSize)
	for i := range n {
		off := i * frameSize
		left := float64(int16(binary.LittleEndian.Uint16(pcm[off:]))) / 32768.0 //nolint:gosec // audio samples
		right := left
		if channels == 2 {
			right = float64(int16(binary.LittleEndian.Uint16(pcm[off+2:]))) / 32768.0 //nolint:gosec // audio samples
		}
		samples[i] = [2]float64{left, right}
	}
	return n
}

func toInt16(v float64) int16 {
	return int16(math.Round(lo.Clamp(v, -1, 1) * math.MaxInt16))
}
