package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Format is an audio export format.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatWAV, FormatMP3:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want wav or mp3)", s)
	}
}

// Ext returns the file extension without the leading dot.
func (f Format) Ext() string {
	return string(f)
}

// OutputPath builds "<dir>/<folder_part>_<HHMMSS>_sonification.<ext>" where
// HHMMSS is the UTC time of day at export. Opaque folders exported within the
// same second map to the same path.
func OutputPath(dir string, folder RemoteFolder, at time.Time, f Format) string {
	part := FallbackLabel
	if folder.Info != nil {
		part = folder.Info.FolderPart()
	}
	name := fmt.Sprintf("%s_%s_sonification.%s", part, at.UTC().Format("150405"), f.Ext())
	return filepath.Join(dir, name)
}

// ExportEvent describes a finished export. It is published to downstream
// consumers once the audio file is on disk.
type ExportEvent struct {
	RunID         string    `json:"run_id"`
	FolderURL     string    `json:"folder_url"`
	FolderPart    string    `json:"folder_part"`
	Path          string    `json:"path"`
	Format        Format    `json:"format"`
	SampleRate    int       `json:"sample_rate"`
	Samples       int       `json:"samples"`
	Duration      float64   `json:"duration_seconds"`
	Clipped       int       `json:"clipped_samples,omitempty"`
	FilesSelected int       `json:"files_selected"`
	FilesMerged   int       `json:"files_merged"`
	FilesFailed   int       `json:"files_failed"`
	ExportedAt    time.Time `json:"exported_at"`
}
