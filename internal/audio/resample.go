package audio

import "math"

// Resample converts a mono signal between sample rates by linear
// interpolation. Identity when the rates already match.
func Resample(input []float64, from, to int) []float64 {
	if from == to || len(input) == 0 {
		return input
	}

	outLen := int(math.Floor(float64(len(input))*float64(to)/float64(from) + 0.5))
	out := make([]float64, outLen)
	scale := float64(from) / float64(to)

	for i := range out {
		out[i] = sampleAt(input, float64(i)*scale)
	}
	return out
}

// sampleAt linearly interpolates the signal at a fractional position,
// clamping at both ends.
func sampleAt(input []float64, at float64) float64 {
	idx := int(at)
	if idx < 0 {
		return input[0]
	}
	if idx+1 >= len(input) {
		return input[len(input)-1]
	}
	frac := at - float64(idx)
	return input[idx]*(1-frac) + input[idx+1]*frac
}

// ToPCM16 converts normalized samples to signed 16-bit PCM with clipping.
func ToPCM16(input []float64) []int16 {
	out := make([]int16, len(input))
	for i, s := range input {
		v := math.Round(s * math.MaxInt16)
		if v > math.MaxInt16 {
			v = math.MaxInt16
		}
		if v < math.MinInt16 {
			v = math.MinInt16
		}
		out[i] = int16(v)
	}
	return out
}

// PrepareForDevice runs the full upload pipeline: mixdown, resample to
// the device rate and 16-bit conversion.
func PrepareForDevice(clip *Clip, mode MonoMode) []int16 {
	mono := Mixdown(clip, mode)
	return ToPCM16(Resample(mono, clip.Rate, DeviceRate))
}
