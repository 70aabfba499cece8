package domain

import "math"

// NormalizedAudio is a mono 16-bit PCM buffer ready for export.
type NormalizedAudio struct {
	Samples    []int16
	SampleRate int
	Clipped    int // samples clamped to the int16 range
	MixedRates int // segments whose rate differs from SampleRate
}

// Duration returns the playback length in seconds.
func (a NormalizedAudio) Duration() float64 {
	if a.SampleRate <= 0 {
		return 0
	}
	return float64(len(a.Samples)) / float64(a.SampleRate)
}

// Demean concatenates every segment in stream order and subtracts the
// arithmetic mean. It returns ErrNoData for a stream without samples.
func Demean(stream MergedStream) ([]float64, error) {
	n := stream.SampleCount()
	if n == 0 {
		return nil, ErrNoData
	}

	out := make([]float64, 0, n)
	var sum float64
	for _, seg := range stream.Segments {
		for _, v := range seg.Samples {
			f := float64(v)
			sum += f
			out = append(out, f)
		}
	}

	mean := sum / float64(n)
	for i := range out {
		out[i] -= mean
	}
	return out, nil
}

// Normalize removes the DC offset from the stream and narrows it to int16.
// Out-of-range values are clamped; fractional values truncate toward zero.
// The sample rate is taken from the first segment; segments at a different
// rate are counted in MixedRates but still included.
func Normalize(stream MergedStream) (NormalizedAudio, error) {
	centered, err := Demean(stream)
	if err != nil {
		return NormalizedAudio{}, err
	}

	rate := stream.Segments[0].SampleRate
	mixed := 0
	for _, seg := range stream.Segments[1:] {
		if seg.SampleRate != rate {
			mixed++
		}
	}

	samples := make([]int16, len(centered))
	clipped := 0
	for i, v := range centered {
		switch {
		case v > math.MaxInt16:
			samples[i] = math.MaxInt16
			clipped++
		case v < math.MinInt16:
			samples[i] = math.MinInt16
			clipped++
		default:
			samples[i] = int16(v)
		}
	}

	return NormalizedAudio{
		Samples:    samples,
		SampleRate: rate,
		Clipped:    clipped,
		MixedRates: mixed,
	}, nil
}
