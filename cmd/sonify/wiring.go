package main

import (
	"log/slog"

	"github.com/couchcryptid/hydrophone-sonify/internal/adapter/archive"
	"github.com/couchcryptid/hydrophone-sonify/internal/adapter/audio"
	kafkaadapter "github.com/couchcryptid/hydrophone-sonify/internal/adapter/kafka"
	"github.com/couchcryptid/hydrophone-sonify/internal/adapter/mseed"
	"github.com/couchcryptid/hydrophone-sonify/internal/config"
	"github.com/couchcryptid/hydrophone-sonify/internal/domain"
	"github.com/couchcryptid/hydrophone-sonify/internal/observability"
	"github.com/couchcryptid/hydrophone-sonify/internal/pipeline"
)

// buildPipeline wires the adapters for cfg. The returned cleanup closes the
// export notifier, if any.
func buildPipeline(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*pipeline.Pipeline, func()) {
	fetcher := archive.NewFetcher(mseed.NewDecoder(), archive.FetchOptions{
		Retries:    cfg.FetchRetries,
		RetryDelay: cfg.FetchRetryDelay,
		Timeout:    cfg.HTTPTimeout,
	}, logger, metrics)
	cached := archive.NewCachedFetcher(fetcher, cfg.FetchCacheSize, metrics)
	coordinator := pipeline.NewCoordinator(cached, cfg.MaxWorkers, nil, logger, metrics)
	lister := archive.NewLister(cfg.HTTPTimeout, logger)

	var encoder domain.Encoder
	if cfg.ExportFormat == domain.FormatMP3 {
		encoder = audio.NewFFmpegEncoder(cfg.FFmpegPath, cfg.MP3Bitrate)
	}
	exporter := audio.NewExporter(cfg.OutputDir, encoder, logger, metrics)

	var notifier pipeline.ExportNotifier
	cleanup := func() {}
	if cfg.KafkaEnabled() {
		n := kafkaadapter.NewNotifier(cfg, logger)
		notifier = n
		cleanup = func() {
			if err := n.Close(); err != nil {
				logger.Error("kafka notifier close error", "error", err)
			}
		}
		logger.Info("export notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(lister, coordinator, exporter, notifier, pipeline.Options{
		NumFiles: cfg.NumFiles,
		Format:   cfg.ExportFormat,
		Interval: cfg.RunInterval,
	}, logger, metrics)
	return p, cleanup
}
