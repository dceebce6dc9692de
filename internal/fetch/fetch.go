// Package fetch retrieves payloads over HTTP while reporting progress.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/tecnobros/battly-setup/internal/progress"
	"github.com/tecnobros/battly-setup/internal/types"
)

const (
	userAgent = "battly-setup/%s"

	// DefaultBaseline and DefaultSpan map download progress onto the
	// overall install progress: 0.2 .. 0.6.
	DefaultBaseline = 0.2
	DefaultSpan     = 0.4

	chunkSize = 32 * 1024
)

// HTTPFetcher downloads payloads over HTTP
type HTTPFetcher struct {
	client   *http.Client
	version  string
	baseline float64
	span     float64
}

// NewHTTPFetcher creates a new HTTP fetcher. The client has no timeout: a
// stalled server stalls the fetch until ctx is cancelled.
func NewHTTPFetcher(version string) *HTTPFetcher {
	return &HTTPFetcher{
		client:   &http.Client{},
		version:  version,
		baseline: DefaultBaseline,
		span:     DefaultSpan,
	}
}

// Fetch streams the body at url into dst and returns the number of bytes
// written. It is not retried.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, dst io.Writer, up progress.Updater) (int64, error) {
	if up == nil {
		up = progress.Nop
	}

	log.Debugf("starting download from %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf(userAgent, f.version))

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warnf("error closing response body: %v", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected HTTP status: %d", resp.StatusCode)
	}

	m := meter{up: up, total: resp.ContentLength, baseline: f.baseline, span: f.span}
	n, err := m.copy(ctx, dst, resp.Body)
	if err != nil {
		return n, err
	}

	log.Infof("downloaded %d bytes from %s", n, url)
	return n, nil
}

// ToFile downloads url into a new temporary file in dir and returns its
// path. The file is removed on failure.
func (f *HTTPFetcher) ToFile(ctx context.Context, url, dir, pattern string, up progress.Updater) (string, error) {
	out, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create staging file: %w", err)
	}
	path := out.Name()

	if err := f.fetchInto(ctx, url, out, up); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// Download downloads url to dst, replacing any existing file. The file is
// removed on failure.
func (f *HTTPFetcher) Download(ctx context.Context, url, dst string, up progress.Updater) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file %q: %w", dst, err)
	}

	if err := f.fetchInto(ctx, url, out, up); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

func (f *HTTPFetcher) fetchInto(ctx context.Context, url string, out *os.File, up progress.Updater) error {
	_, err := f.Fetch(ctx, url, out, up)
	if cerr := out.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close %q: %w", out.Name(), cerr)
	}
	return err
}

// meter copies a body while emitting progress. With a known total it
// reports baseline + span*received/total each time the integer percentage
// advances, so a download emits at most 101 snapshots regardless of size.
// Without a total it reports nothing; the caller has already announced the
// start of the download.
type meter struct {
	up       progress.Updater
	total    int64
	baseline float64
	span     float64
}

func (m meter) copy(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, chunkSize)
	var received int64
	lastPct := -1

	for {
		if err := ctx.Err(); err != nil {
			return received, err
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return received, fmt.Errorf("failed to write response body: %w", werr)
			}
			received += int64(n)

			if m.total > 0 {
				done := min(received, m.total)
				if pct := int(done * 100 / m.total); pct > lastPct {
					lastPct = pct
					ratio := float64(done) / float64(m.total)
					m.up.Report(m.baseline+m.span*ratio, types.StatusDownloadingPercent, strconv.Itoa(pct))
				}
			}
		}

		if errors.Is(rerr, io.EOF) {
			return received, nil
		}
		if rerr != nil {
			return received, fmt.Errorf("failed to read response body: %w", rerr)
		}
	}
}
