package domain

import (
	"errors"
	"time"
)

// OutcomeKind classifies how a single file fared in a merge.
type OutcomeKind string

const (
	OutcomeSuccess      OutcomeKind = "success"
	OutcomeEmpty        OutcomeKind = "empty"
	OutcomeDecodeFailed OutcomeKind = "decode_failed"
	OutcomeFetchFailed  OutcomeKind = "fetch_failed"
)

// FileOutcome reports the result of processing one file. It is informational
// only; a failed file never blocks the merge of the others.
type FileOutcome struct {
	File     FileHandle
	Kind     OutcomeKind
	Segments int   // valid segments merged
	Bytes    int64 // advisory size from a HEAD request, 0 when unknown
	Attempts int   // download attempts made, reported for fetch failures
	Err      error
}

// ClassifyFetch maps the result of a fetch to an outcome kind.
func ClassifyFetch(segs []Segment, err error) OutcomeKind {
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			return OutcomeDecodeFailed
		}
		return OutcomeFetchFailed
	}
	for _, s := range segs {
		if s.Valid() {
			return OutcomeSuccess
		}
	}
	return OutcomeEmpty
}

// Progress is a point-in-time snapshot of a merge. Snapshots are values; the
// coordinator never shares its live counters.
type Progress struct {
	Total          int
	Completed      int
	Succeeded      int
	Failed         int
	Elapsed        time.Duration
	Remaining      time.Duration // estimated
	Bytes          int64         // advisory, may undercount
	ThroughputMBps float64
}

// Fraction returns completion in the range [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Completed) / float64(p.Total)
}
