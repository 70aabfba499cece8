package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/couchcryptid/hydrophone-sonify/internal/pipeline"
)

var summaryColumns = []column{
	{header: "Folder"},
	{header: "Status"},
	{header: "Files", numeric: true},
	{header: "Audio", numeric: true},
	{header: "Downloaded", numeric: true},
	{header: "Output"},
}

// renderRunSummary prints one row per folder, a totals footer and a one-line
// run summary.
func renderRunSummary(r pipeline.RunReport) string {
	rows := make([][]string, 0, len(r.Folders))
	var (
		bytes            int64
		merged, selected int
		audio            time.Duration
	)
	for _, f := range r.Folders {
		bytes += f.Progress.Bytes
		merged += f.Merged()
		selected += f.Selected
		audio += audioDuration(f)
		rows = append(rows, []string{
			f.Folder.Info.FolderPart(),
			statusLabel(f),
			fmt.Sprintf("%d/%d", f.Merged(), f.Selected),
			audioLength(f),
			humanize.IBytes(uint64(f.Progress.Bytes)),
			outputName(f),
		})
	}
	footer := []string{
		"total",
		fmt.Sprintf("%d exported", r.Exported()),
		fmt.Sprintf("%d/%d", merged, selected),
		audio.Round(time.Millisecond).String(),
		humanize.IBytes(uint64(bytes)),
		"",
	}

	var b strings.Builder
	b.WriteString(renderTable(summaryColumns, rows, footer))
	fmt.Fprintf(&b, "\n%d of %d folders exported, %s downloaded in %s (run %s)",
		r.Exported(), len(r.Folders),
		humanize.IBytes(uint64(bytes)),
		r.Duration.Round(time.Millisecond),
		r.RunID,
	)
	return b.String()
}

func statusLabel(f pipeline.FolderReport) string {
	s := strings.ReplaceAll(string(f.Status), "_", " ")
	if f.Clipped > 0 {
		s += fmt.Sprintf(" (%s clipped)", humanize.Comma(int64(f.Clipped)))
	}
	return s
}

func audioDuration(f pipeline.FolderReport) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(f.Samples) / float64(f.SampleRate) * float64(time.Second))
}

func audioLength(f pipeline.FolderReport) string {
	if f.SampleRate <= 0 {
		return "-"
	}
	return audioDuration(f).Round(time.Millisecond).String()
}

func outputName(f pipeline.FolderReport) string {
	if f.Status != pipeline.StatusExported {
		return "-"
	}
	return filepath.Base(f.Path)
}
