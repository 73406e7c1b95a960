// Package audio handles raw PCM buffers: silence generation, WAV
// wrapping, and the one-shot ffmpeg enhancement pass applied to fully
// reassembled audio.
package audio

import (
	"encoding/binary"
	"time"
)

// All providers are asked for the same wire format so that reassembly
// is plain byte concatenation: 24kHz mono signed 16-bit little-endian.
const (
	SampleRate     = 24000
	Channels       = 1
	BytesPerSample = 2
	frameSize      = Channels * BytesPerSample
)

// Silence returns a zeroed PCM buffer of the given duration, aligned
// to whole frames.
func Silence(d time.Duration) []byte {
	if d <= 0 {
		return nil
	}
	samples := int(float64(SampleRate) * d.Seconds())
	return make([]byte, samples*frameSize)
}

// Duration reports the playback time of a PCM buffer.
func Duration(pcm []byte) time.Duration {
	frames := len(pcm) / frameSize
	return time.Duration(float64(frames) / SampleRate * float64(time.Second))
}

// WrapWAV prepends a RIFF/WAVE header to a PCM buffer.
func WrapWAV(pcm []byte) []byte {
	const headerSize = 44
	out := make([]byte, headerSize+len(pcm))

	byteRate := SampleRate * frameSize

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(out[22:24], Channels)
	binary.LittleEndian.PutUint32(out[24:28], SampleRate)
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], frameSize)
	binary.LittleEndian.PutUint16(out[34:36], BytesPerSample*8)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[headerSize:], pcm)

	return out
}
