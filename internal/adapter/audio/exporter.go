package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/hydrophone-sonify/internal/domain"
	"github.com/couchcryptid/hydrophone-sonify/internal/observability"
)

// Exporter writes normalized audio to the output directory.
type Exporter struct {
	dir     string
	encoder domain.Encoder
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewExporter creates an Exporter. The encoder is only used for compressed
// formats and may be nil when only WAV is exported.
func NewExporter(dir string, encoder domain.Encoder, logger *slog.Logger, metrics *observability.Metrics) *Exporter {
	return &Exporter{
		dir:     dir,
		encoder: encoder,
		logger:  logger,
		metrics: metrics,
	}
}

// Export writes audio for folder in the given format and returns the file
// path. A failed write leaves any partial file in place.
func (e *Exporter) Export(ctx context.Context, audio domain.NormalizedAudio, format domain.Format, folder domain.RemoteFolder) (string, error) {
	start := time.Now()

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", &domain.ExportError{Path: e.dir, Err: fmt.Errorf("create output dir: %w", err)}
	}
	path := domain.OutputPath(e.dir, folder, domain.Now(), format)

	var err error
	switch format {
	case domain.FormatWAV:
		err = writeWAVFile(path, audio)
	case domain.FormatMP3:
		err = e.writeMP3File(ctx, path, audio)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return path, &domain.ExportError{Path: path, Err: err}
	}

	e.metrics.ExportDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())
	e.metrics.SamplesExported.Add(float64(len(audio.Samples)))
	e.logger.Debug("audio exported",
		"path", path,
		"format", format,
		"samples", len(audio.Samples),
		"sample_rate", audio.SampleRate,
	)
	return path, nil
}

func writeWAVFile(path string, audio domain.NormalizedAudio) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAV(f, audio.Samples, audio.SampleRate); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (e *Exporter) writeMP3File(ctx context.Context, path string, audio domain.NormalizedAudio) error {
	if e.encoder == nil {
		return errors.New("no encoder configured for mp3")
	}
	wav, err := EncodeWAV(audio.Samples, audio.SampleRate)
	if err != nil {
		return err
	}
	mp3, err := e.encoder.Encode(ctx, wav)
	if err != nil {
		return err
	}
	return os.WriteFile(path, mp3, 0o644)
}
