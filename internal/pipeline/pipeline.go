package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/hydrophone-sonify/internal/domain"
	"github.com/couchcryptid/hydrophone-sonify/internal/observability"
)

// FolderLister lists the files of an archive folder in chronological order.
type FolderLister interface {
	List(ctx context.Context, folder domain.RemoteFolder) []domain.FileHandle
}

// AudioExporter writes normalized audio and returns the output path.
type AudioExporter interface {
	Export(ctx context.Context, audio domain.NormalizedAudio, format domain.Format, folder domain.RemoteFolder) (string, error)
}

// ExportNotifier announces finished exports to downstream consumers.
type ExportNotifier interface {
	NotifyExport(ctx context.Context, event domain.ExportEvent) error
}

// Observer receives per-folder lifecycle callbacks, e.g. to drive a progress bar.
// Calls for one folder are made sequentially from the pipeline goroutine.
type Observer interface {
	FolderStarted(folder domain.RemoteFolder, files int)
	Progress(folder domain.RemoteFolder, p domain.Progress)
	FolderFinished(report FolderReport)
}

// FolderSource resolves the folders to process for a run started at now.
type FolderSource func(now time.Time) []domain.RemoteFolder

// FolderStatus is the final state of one folder.
type FolderStatus string

const (
	StatusExported     FolderStatus = "exported"
	StatusNoFiles      FolderStatus = "no_files"
	StatusNoData       FolderStatus = "no_data"
	StatusExportFailed FolderStatus = "export_failed"
)

// FolderReport summarizes the processing of one folder.
type FolderReport struct {
	Folder     domain.RemoteFolder
	Listed     int
	Selected   int
	Segments   int
	Outcomes   []domain.FileOutcome
	Progress   domain.Progress
	SampleRate int
	Samples    int
	Clipped    int
	Path       string
	Status     FolderStatus
	Err        error
	Duration   time.Duration
}

// Merged returns the number of selected files that contributed data.
func (r FolderReport) Merged() int {
	return MergeResult{Outcomes: r.Outcomes}.Merged()
}

// Failed returns the number of selected files that contributed nothing.
func (r FolderReport) Failed() int {
	return len(r.Outcomes) - r.Merged()
}

// RunReport summarizes one pass over all folders.
type RunReport struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Folders  []FolderReport
}

// Exported returns the number of folders that produced an audio file.
func (r RunReport) Exported() int {
	n := 0
	for _, f := range r.Folders {
		if f.Status == StatusExported {
			n++
		}
	}
	return n
}

// RunSummary is the JSON view of a RunReport served on the status endpoint.
type RunSummary struct {
	RunID           string          `json:"run_id"`
	Started         time.Time       `json:"started"`
	DurationSeconds float64         `json:"duration_seconds"`
	Exported        int             `json:"exported"`
	Folders         []FolderSummary `json:"folders"`
}

// FolderSummary is the JSON view of a FolderReport.
type FolderSummary struct {
	URL      string       `json:"url"`
	Status   FolderStatus `json:"status"`
	Path     string       `json:"path,omitempty"`
	Selected int          `json:"selected"`
	Merged   int          `json:"merged"`
	Failed   int          `json:"failed"`
	Samples  int          `json:"samples"`
	Error    string       `json:"error,omitempty"`
}

// Summary converts the report for serialization.
func (r RunReport) Summary() RunSummary {
	s := RunSummary{
		RunID:           r.RunID,
		Started:         r.Started,
		DurationSeconds: r.Duration.Seconds(),
		Exported:        r.Exported(),
		Folders:         make([]FolderSummary, 0, len(r.Folders)),
	}
	for _, f := range r.Folders {
		fs := FolderSummary{
			URL:      f.Folder.URL,
			Status:   f.Status,
			Path:     f.Path,
			Selected: f.Selected,
			Merged:   f.Merged(),
			Failed:   f.Failed(),
			Samples:  f.Samples,
		}
		if f.Err != nil {
			fs.Error = f.Err.Error()
		}
		s.Folders = append(s.Folders, fs)
	}
	return s
}

// Options configures a Pipeline.
type Options struct {
	NumFiles int
	Format   domain.Format
	Interval time.Duration // between passes in Run
}

// Pipeline orchestrates list, select, download, normalize, export and notify
// for each folder.
type Pipeline struct {
	lister      FolderLister
	coordinator *Coordinator
	exporter    AudioExporter
	notifier    ExportNotifier
	observer    Observer
	opts        Options
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	lastRun     atomic.Pointer[RunSummary]
}

// New creates a Pipeline. notifier may be nil when exports are not announced.
func New(lister FolderLister, coordinator *Coordinator, exporter AudioExporter, notifier ExportNotifier, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.Format == "" {
		opts.Format = domain.FormatWAV
	}
	return &Pipeline{
		lister:      lister,
		coordinator: coordinator,
		exporter:    exporter,
		notifier:    notifier,
		opts:        opts,
		clock:       clockwork.NewRealClock(),
		logger:      logger,
		metrics:     metrics,
	}
}

// SetObserver installs an observer for folder lifecycle events.
func (p *Pipeline) SetObserver(o Observer) {
	p.observer = o
}

// SetClock replaces the clock used for run timing and the Run ticker.
func (p *Pipeline) SetClock(c clockwork.Clock) {
	p.clock = c
}

// CheckReadiness returns nil once the pipeline has exported at least one folder,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not exported any folder yet")
	}
	return nil
}

// LastRun returns the summary of the most recent completed run.
func (p *Pipeline) LastRun() (RunSummary, bool) {
	s := p.lastRun.Load()
	if s == nil {
		return RunSummary{}, false
	}
	return *s, true
}

// Run processes the folders from source immediately and then every
// Options.Interval until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context, source FolderSource) error {
	interval := p.opts.Interval
	if interval <= 0 {
		return errors.New("run interval must be positive")
	}
	p.logger.Info("pipeline started", "interval", interval, "num_files", p.opts.NumFiles, "format", p.opts.Format)

	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		p.RunOnce(ctx, source(domain.Now()))

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// RunOnce processes each folder in turn. A failing folder never stops the
// others; cancellation stops the run between folders.
func (p *Pipeline) RunOnce(ctx context.Context, folders []domain.RemoteFolder) RunReport {
	report := RunReport{
		RunID:   uuid.NewString(),
		Started: p.clock.Now(),
		Folders: make([]FolderReport, 0, len(folders)),
	}
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	logger := p.logger.With("run_id", report.RunID)
	logger.Info("run started", "folders", len(folders))

	for _, folder := range folders {
		if ctx.Err() != nil {
			logger.Warn("run cancelled", "remaining", len(folders)-len(report.Folders))
			break
		}
		report.Folders = append(report.Folders, p.processFolder(ctx, report.RunID, folder, logger))
	}

	report.Duration = p.clock.Since(report.Started)
	p.metrics.LastRunTimestamp.Set(float64(domain.Now().Unix()))
	summary := report.Summary()
	p.lastRun.Store(&summary)
	logger.Info("run finished",
		"exported", report.Exported(),
		"folders", len(report.Folders),
		"duration", report.Duration,
	)
	return report
}

// ProcessFolder runs the full pipeline for a single folder.
func (p *Pipeline) ProcessFolder(ctx context.Context, folder domain.RemoteFolder) FolderReport {
	runID := uuid.NewString()
	return p.processFolder(ctx, runID, folder, p.logger.With("run_id", runID))
}

func (p *Pipeline) processFolder(ctx context.Context, runID string, folder domain.RemoteFolder, logger *slog.Logger) FolderReport {
	start := p.clock.Now()
	logger = logger.With("folder", folder.URL)
	report := FolderReport{Folder: folder}

	defer func() {
		report.Duration = p.clock.Since(start)
		p.metrics.FoldersTotal.WithLabelValues(string(report.Status)).Inc()
		if p.observer != nil {
			p.observer.FolderFinished(report)
		}
	}()

	listed := p.lister.List(ctx, folder)
	selected := domain.SelectFiles(listed, p.opts.NumFiles)
	report.Listed, report.Selected = len(listed), len(selected)
	if len(selected) == 0 {
		logger.Warn("no files to process", "listed", len(listed))
		report.Status = StatusNoFiles
		return report
	}
	logger.Info("processing folder", "listed", len(listed), "selected", len(selected))

	if p.observer != nil {
		p.observer.FolderStarted(folder, len(selected))
	}
	merged := p.coordinator.DownloadAndMerge(ctx, selected, func(pr domain.Progress) {
		if p.observer != nil {
			p.observer.Progress(folder, pr)
		}
		logger.Debug("download progress",
			"completed", pr.Completed,
			"total", pr.Total,
			"eta", pr.Remaining.Round(time.Second),
			"mb_per_sec", pr.ThroughputMBps,
		)
	})
	report.Outcomes = merged.Outcomes
	report.Progress = merged.Progress
	report.Segments = merged.Stream.Len()

	if merged.Stream.Len() == 0 {
		logger.Warn("no data merged, skipping folder", "failed", merged.Failed())
		report.Status = StatusNoData
		report.Err = domain.ErrNoData
		return report
	}

	audio, err := domain.Normalize(merged.Stream)
	if err != nil {
		logger.Warn("normalization failed, skipping folder", "error", err)
		report.Status = StatusNoData
		report.Err = err
		return report
	}
	report.SampleRate, report.Samples, report.Clipped = audio.SampleRate, len(audio.Samples), audio.Clipped
	if audio.Clipped > 0 {
		p.metrics.SamplesClipped.Add(float64(audio.Clipped))
		logger.Warn("samples clipped to 16-bit range", "clipped", audio.Clipped, "samples", len(audio.Samples))
	}
	if audio.MixedRates > 0 {
		logger.Warn("segments with differing sample rates merged",
			"sample_rate", audio.SampleRate,
			"mismatched_segments", audio.MixedRates,
		)
	}

	path, err := p.exporter.Export(ctx, audio, p.opts.Format, folder)
	report.Path = path
	if err != nil {
		logger.Error("export failed", "path", path, "error", err)
		report.Status = StatusExportFailed
		report.Err = err
		return report
	}
	report.Status = StatusExported
	p.ready.Store(true)
	logger.Info("folder exported",
		"path", path,
		"samples", len(audio.Samples),
		"sample_rate", audio.SampleRate,
		"merged", merged.Merged(),
		"failed", merged.Failed(),
	)

	p.notify(ctx, logger, domain.ExportEvent{
		RunID:         runID,
		FolderURL:     folder.URL,
		FolderPart:    folder.Info.FolderPart(),
		Path:          path,
		Format:        p.opts.Format,
		SampleRate:    audio.SampleRate,
		Samples:       len(audio.Samples),
		Duration:      audio.Duration(),
		Clipped:       audio.Clipped,
		FilesSelected: len(selected),
		FilesMerged:   merged.Merged(),
		FilesFailed:   merged.Failed(),
		ExportedAt:    domain.Now(),
	})
	return report
}

func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, event domain.ExportEvent) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.NotifyExport(ctx, event); err != nil {
		logger.Warn("export notification failed", "path", event.Path, "error", err)
	}
}
