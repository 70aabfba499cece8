package domain

import (
	"context"
	"time"
)

// Segment is a contiguous run of samples at one sampling rate, decoded from a
// single MiniSEED file.
type Segment struct {
	Source     string // network.station.location.channel
	Samples    []int32
	SampleRate int // Hz
	StartTime  time.Time
}

// Valid reports whether the segment carries any samples.
func (s Segment) Valid() bool {
	return len(s.Samples) > 0
}

// MergedStream accumulates segments from many files in arrival order. It only
// ever holds valid segments.
type MergedStream struct {
	Segments []Segment
}

// Append adds the valid segments from segs and returns how many were kept.
func (m *MergedStream) Append(segs ...Segment) int {
	kept := 0
	for _, s := range segs {
		if !s.Valid() {
			continue
		}
		m.Segments = append(m.Segments, s)
		kept++
	}
	return kept
}

// Len returns the number of segments.
func (m *MergedStream) Len() int {
	return len(m.Segments)
}

// SampleCount returns the total number of samples across all segments.
func (m *MergedStream) SampleCount() int {
	n := 0
	for _, s := range m.Segments {
		n += len(s.Samples)
	}
	return n
}

// Decoder turns the raw bytes of a waveform file into segments.
type Decoder interface {
	Decode(data []byte) ([]Segment, error)
}

// Encoder compresses an in-memory WAV file into another audio format.
type Encoder interface {
	Encode(ctx context.Context, wav []byte) ([]byte, error)
}
