package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/hydrophone-sonify/internal/domain"
	"github.com/couchcryptid/hydrophone-sonify/internal/observability"
)

const (
	DefaultRetries    = 3
	DefaultRetryDelay = time.Second
	DefaultTimeout    = 60 * time.Second
)

// FetchOptions controls download retries.
type FetchOptions struct {
	Retries    int           // total attempts, at least 1
	RetryDelay time.Duration // fixed pause between attempts
	Timeout    time.Duration // per request
}

// Fetcher downloads and decodes single MiniSEED files. It holds no mutable
// state and is safe for concurrent use.
type Fetcher struct {
	httpClient *http.Client
	decoder    domain.Decoder
	retries    int
	delay      time.Duration
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewFetcher creates a Fetcher. Retries below 1, a negative RetryDelay and a
// non-positive Timeout fall back to the defaults; a zero RetryDelay retries at once.
func NewFetcher(decoder domain.Decoder, opts FetchOptions, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	if opts.Retries < 1 {
		opts.Retries = DefaultRetries
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: opts.Timeout},
		decoder:    decoder,
		retries:    opts.Retries,
		delay:      opts.RetryDelay,
		clock:      clockwork.NewRealClock(),
		logger:     logger,
		metrics:    metrics,
	}
}

// Fetch downloads file and decodes it into segments. Network errors and non-2xx
// responses are retried up to the configured budget; decode errors are not.
func (f *Fetcher) Fetch(ctx context.Context, file domain.FileHandle) ([]domain.Segment, error) {
	start := f.clock.Now()
	defer func() { f.metrics.FetchDuration.Observe(f.clock.Since(start).Seconds()) }()

	var lastErr error
	attempt := 0
	for attempt < f.retries {
		if attempt > 0 {
			f.metrics.FetchRetries.Inc()
			f.logger.Warn("fetch failed, retrying",
				"file", string(file),
				"attempt", attempt,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, &domain.FetchError{URL: string(file), Attempts: attempt, Err: ctx.Err()}
			case <-f.clock.After(f.delay):
			}
		}
		attempt++
		f.metrics.FetchAttempts.Inc()

		body, err := f.get(ctx, string(file))
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		segs, err := f.decoder.Decode(body)
		if err != nil {
			return nil, &domain.DecodeError{URL: string(file), Err: err}
		}
		return segs, nil
	}
	return nil, &domain.FetchError{URL: string(file), Attempts: attempt, Err: lastErr}
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// Size issues a HEAD request and reports the Content-Length. The result is
// advisory: false means the size is unknown.
func (f *Fetcher) Size(ctx context.Context, file domain.FileHandle) (int64, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, string(file), nil)
	if err != nil {
		return 0, false
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			f.logger.Debug("size probe failed", "file", string(file), "error", err)
		}
		return 0, false
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 || resp.ContentLength < 0 {
		return 0, false
	}
	return resp.ContentLength, true
}
