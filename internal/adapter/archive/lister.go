// Package archive talks to the OOI raw-data HTTP archive: it lists folder
// indexes and downloads MiniSEED files.
package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/couchcryptid/hydrophone-sonify/internal/domain"
)

const mseedSuffix = ".mseed"

// Lister reads the HTML directory index of an archive folder.
type Lister struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewLister creates a Lister whose requests time out after timeout.
func NewLister(timeout time.Duration, logger *slog.Logger) *Lister {
	return &Lister{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// List returns the absolute URLs of the .mseed files linked from the folder
// index, in document order. Failures are logged and yield no files.
func (l *Lister) List(ctx context.Context, folder domain.RemoteFolder) []domain.FileHandle {
	files, err := l.list(ctx, folder.URL)
	if err != nil {
		l.logger.Warn("folder listing failed", "folder", folder.URL, "error", err)
		return nil
	}
	l.logger.Debug("folder listed", "folder", folder.URL, "files", len(files))
	return files
}

func (l *Lister) list(ctx context.Context, folderURL string) ([]domain.FileHandle, error) {
	base, err := url.Parse(folderURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse folder url: %w", domain.ErrListing, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, folderURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrListing, err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrListing, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", domain.ErrListing, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse index: %w", domain.ErrListing, err)
	}
	return mseedLinks(doc, base), nil
}

// mseedLinks walks the document in order and collects anchors whose href ends
// in .mseed, resolved against base.
func mseedLinks(doc *html.Node, base *url.URL) []domain.FileHandle {
	var files []domain.FileHandle
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" || !strings.HasSuffix(attr.Val, mseedSuffix) {
					continue
				}
				ref, err := url.Parse(attr.Val)
				if err != nil {
					continue
				}
				files = append(files, domain.FileHandle(base.ResolveReference(ref).String()))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return files
}
