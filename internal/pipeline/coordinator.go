package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/hydrophone-sonify/internal/domain"
	"github.com/couchcryptid/hydrophone-sonify/internal/observability"
)

// FileFetcher downloads and decodes a single file.
type FileFetcher interface {
	Fetch(ctx context.Context, file domain.FileHandle) ([]domain.Segment, error)
}

// FileSizer reports the advisory size of a remote file.
type FileSizer interface {
	Size(ctx context.Context, file domain.FileHandle) (int64, bool)
}

// MergeResult is the outcome of DownloadAndMerge.
type MergeResult struct {
	Stream   domain.MergedStream
	Outcomes []domain.FileOutcome // completion order
	Progress domain.Progress      // final snapshot
}

// Merged returns the number of files that contributed data.
func (r MergeResult) Merged() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == domain.OutcomeSuccess {
			n++
		}
	}
	return n
}

// Failed returns the number of files that did not contribute data.
func (r MergeResult) Failed() int {
	return len(r.Outcomes) - r.Merged()
}

// Coordinator downloads a batch of files with a bounded worker pool and merges
// the decoded segments in completion order.
type Coordinator struct {
	fetcher     FileFetcher
	sizer       FileSizer
	concurrency int
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewCoordinator creates a Coordinator running at most concurrency fetches at
// once. If fetcher also implements FileSizer, each fetch is followed by a size
// probe for throughput reporting.
func NewCoordinator(fetcher FileFetcher, concurrency int, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Coordinator {
	if concurrency < 1 {
		concurrency = 1
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	sizer, _ := fetcher.(FileSizer)
	return &Coordinator{
		fetcher:     fetcher,
		sizer:       sizer,
		concurrency: concurrency,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
}

type taskResult struct {
	file      domain.FileHandle
	segments  []domain.Segment
	err       error
	size      int64
	sizeKnown bool
}

// DownloadAndMerge fetches every file and merges the valid segments. Failed or
// empty files are logged and skipped, so the call never fails as a whole.
// onProgress, when non-nil, receives a snapshot after each completed file. It
// runs on the calling goroutine, one call at a time.
func (c *Coordinator) DownloadAndMerge(ctx context.Context, files []domain.FileHandle, onProgress func(domain.Progress)) MergeResult {
	tracker := newProgressTracker(len(files), c.clock.Now())
	result := MergeResult{Progress: tracker.snapshot(c.clock.Now())}
	if len(files) == 0 {
		return result
	}

	jobs := make(chan domain.FileHandle)
	results := make(chan taskResult)

	var wg sync.WaitGroup
	for range min(c.concurrency, len(files)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				results <- c.runTask(ctx, file)
			}
		}()
	}

	go func() {
		for _, f := range files {
			jobs <- f
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	result.Outcomes = make([]domain.FileOutcome, 0, len(files))
	for r := range results {
		outcome := c.merge(&result.Stream, r)
		result.Outcomes = append(result.Outcomes, outcome)
		snap := tracker.add(outcome, c.clock.Now())
		if onProgress != nil {
			onProgress(snap)
		}
	}
	result.Progress = tracker.snapshot(c.clock.Now())
	return result
}

// runTask fetches one file, then probes its size. It runs on a worker.
func (c *Coordinator) runTask(ctx context.Context, file domain.FileHandle) taskResult {
	r := taskResult{file: file}
	r.segments, r.err = c.fetcher.Fetch(ctx, file)
	if c.sizer != nil {
		r.size, r.sizeKnown = c.sizer.Size(ctx, file)
	}
	return r
}

// merge folds one task result into the stream. Only the consumer calls it.
func (c *Coordinator) merge(stream *domain.MergedStream, r taskResult) domain.FileOutcome {
	outcome := domain.FileOutcome{
		File: r.file,
		Kind: domain.ClassifyFetch(r.segments, r.err),
		Err:  r.err,
	}
	if r.sizeKnown {
		outcome.Bytes = r.size
		c.metrics.BytesDownloaded.Add(float64(r.size))
	}

	switch outcome.Kind {
	case domain.OutcomeSuccess:
		outcome.Segments = stream.Append(r.segments...)
	case domain.OutcomeEmpty:
		outcome.Err = domain.ErrEmptyFile
		c.logger.Warn("file has no valid data, skipping", "file", string(r.file))
	default:
		var fetchErr *domain.FetchError
		if errors.As(r.err, &fetchErr) {
			outcome.Attempts = fetchErr.Attempts
		}
		c.logger.Warn("file failed, skipping",
			"file", string(r.file),
			"outcome", string(outcome.Kind),
			"error", r.err,
		)
	}

	c.metrics.FilesTotal.WithLabelValues(string(outcome.Kind)).Inc()
	return outcome
}

// progressTracker accumulates merge progress. It is owned by the consumer loop.
type progressTracker struct {
	total     int
	completed int
	succeeded int
	failed    int
	bytes     int64
	start     time.Time
}

func newProgressTracker(total int, start time.Time) *progressTracker {
	return &progressTracker{total: total, start: start}
}

func (t *progressTracker) add(o domain.FileOutcome, now time.Time) domain.Progress {
	t.completed++
	if o.Kind == domain.OutcomeSuccess {
		t.succeeded++
	} else {
		t.failed++
	}
	t.bytes += o.Bytes
	return t.snapshot(now)
}

func (t *progressTracker) snapshot(now time.Time) domain.Progress {
	elapsed := now.Sub(t.start)
	p := domain.Progress{
		Total:     t.total,
		Completed: t.completed,
		Succeeded: t.succeeded,
		Failed:    t.failed,
		Elapsed:   elapsed,
		Bytes:     t.bytes,
	}
	if t.completed > 0 {
		perFile := float64(elapsed) / float64(t.completed)
		p.Remaining = time.Duration(perFile * float64(t.total-t.completed))
	}
	if secs := elapsed.Seconds(); secs > 0 {
		p.ThroughputMBps = float64(t.bytes) / (1 << 20) / secs
	}
	return p
}
