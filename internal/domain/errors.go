package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData is returned by Normalize when the stream holds no samples.
	ErrNoData = errors.New("no data to normalize")

	// ErrEmptyFile marks a file that downloaded and decoded but held no samples.
	ErrEmptyFile = errors.New("file is empty or corrupted")

	// ErrListing marks a folder index that could not be fetched or parsed.
	ErrListing = errors.New("folder listing failed")
)

// FetchError is returned once a file download has exhausted its retry budget.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: giving up after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecodeError is returned when a downloaded file is not valid MiniSEED.
// Decode failures are not retried.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ExportError is returned when writing or encoding an audio file fails.
// Path may point at a partially written file.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
