package pcm

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedAudio is returned when a PCM payload cannot be interpreted
// with the declared sample format.
var ErrMalformedAudio = errors.New("pcm: malformed audio payload")

// Encode quantizes float samples to PCM16-LE bytes.
// Samples are clamped to [-1, 1]; out-of-range input is never rejected.
func Encode(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, f := range samples {
		if f > 1 {
			f = 1
		} else if f < -1 {
			f = -1
		}
		s := int16(math.Round(float64(f) * 32767))
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

// DecodeBase64 decodes the transport's base64 payload encoding into raw
// bytes. It is a pure data transform with no audio semantics.
func DecodeBase64(payload string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("pcm: decode base64: %w", err)
	}
	return data, nil
}

// Buffer is a decoded, playable block of audio at a fixed sample rate and
// channel count. Samples are interleaved float32 in [-1, 1).
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// DecodeBuffer reinterprets PCM16-LE bytes as a playable Buffer.
// The byte length must be a whole number of frames (2*channels bytes each).
func DecodeBuffer(data []byte, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d, channels %d", ErrMalformedAudio, sampleRate, channels)
	}
	frameSize := 2 * channels
	if len(data)%frameSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of the %d-byte frame size", ErrMalformedAudio, len(data), frameSize)
	}

	samples := make([]float32, len(data)/2)
	for i := range samples {
		s := int16(data[i*2]) | int16(data[i*2+1])<<8
		samples[i] = float32(s) / 32768.0
	}

	return &Buffer{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

// Duration returns the playback duration of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 || b.Channels <= 0 {
		return 0
	}
	frames := len(b.Samples) / b.Channels
	return time.Duration(frames) * time.Second / time.Duration(b.SampleRate)
}

// Bytes re-encodes the buffer to PCM16-LE, the format the speaker consumes.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return Encode(b.Samples)
}
