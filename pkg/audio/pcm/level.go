package pcm

import "math"

// RMSEnergy computes the root-mean-square energy of PCM16-LE audio.
// Returns a value between 0.0 and 1.0.
func RMSEnergy(data []byte) float64 {
	samples := len(data) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i+1 < len(data); i += 2 {
		s := int16(data[i]) | int16(data[i+1])<<8
		normalized := float64(s) / 32768.0
		sum += normalized * normalized
	}

	return math.Sqrt(sum / float64(samples))
}

// PeakAmplitude returns the maximum absolute amplitude in PCM16-LE audio.
// Returns a value between 0.0 and 1.0.
func PeakAmplitude(data []byte) float64 {
	if len(data) < 2 {
		return 0
	}

	var maxAbs float64
	for i := 0; i+1 < len(data); i += 2 {
		s := int16(data[i]) | int16(data[i+1])<<8
		// float64 avoids overflow when negating -32768
		abs := math.Abs(float64(s))
		if abs > maxAbs {
			maxAbs = abs
		}
	}

	return maxAbs / 32768.0
}
