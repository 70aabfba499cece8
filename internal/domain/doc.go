// Package domain models hydrophone waveform data published by the Ocean
// Observatories Initiative (OOI) raw-data archive and the rules that turn it
// into a listenable audio file.
//
// # Data Source
//
// The archive serves plain HTML directory indexes, one folder per sensor per
// UTC day:
//
//	https://rawdata-west.oceanobservatories.org/files/<site>/<node>/<sensor>/<yyyy>/<mm>/<dd>/
//	e.g. .../files/CE02SHBP/LJ01D/HYDBBA106/2025/05/14/
//
// Each folder lists MiniSEED files (".mseed") in chronological order, oldest
// first. The newest file is usually still being written by the instrument, so
// [SelectFiles] always leaves it out.
//
// Folder URLs that do not follow this layout are still processed; they are
// represented by [OpaqueFolder] and exported under a fixed label.
//
// # Waveform Conventions
//
// A decoded file yields one or more [Segment] values: a run of integer samples
// at one sampling rate. Broadband hydrophones (HYDBBA*) sample at 64 kHz.
// Segments without samples are invalid and never enter a [MergedStream].
//
// # Normalization
//
// [Normalize] concatenates every segment of a stream, removes the DC offset by
// subtracting the arithmetic mean, and narrows to signed 16-bit PCM. Values
// outside the int16 range are clamped rather than wrapped; the number of
// clamped samples is reported so callers can flag distorted output.
//
// # Output Naming
//
// Exported files are named from folder metadata and the UTC wall-clock time of
// export (not the data time):
//
//	<dir>/<site>_<node>_<sensor>_<yyyy>_<mm>_<dd>_<HHMMSS>_sonification.<wav|mp3>
//
// Re-running on the same data produces a new file rather than overwriting the
// previous one. See [OutputPath].
package domain
