package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkgup/pkgup/internal/logger"
	"github.com/pkgup/pkgup/internal/progress"
)

// ErrFetch is returned when the source archive cannot be downloaded.
// Network failures are terminal: the retry loop only covers corrupted
// downloads, not unreachable servers.
var ErrFetch = errors.New("source download failed")

// artifactFileMode is used for downloaded archives.
const artifactFileMode os.FileMode = 0o644

// Fetcher downloads source archives over HTTPS.
type Fetcher struct {
	client *http.Client
}

// New returns a Fetcher whose requests are bounded by the provided timeout.
func New(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Download streams the archive at url to dest, reporting transferred bytes to
// the provided reporter. An artifact already present at dest is reused without
// touching the network, which keeps a rerun after a failed metadata step from
// fetching the same tarball twice.
func (f *Fetcher) Download(ctx context.Context, url, dest string, reporter progress.Reporter) error {
	if _, err := os.Stat(dest); err == nil {
		logger.InfoKV(ctx, "Artifact already present, skipping download", "path", dest)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFetch, err)
	}

	response, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFetch, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: %s", ErrFetch, url, response.Status)
	}

	file, err := os.OpenFile(filepath.Clean(dest), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, artifactFileMode)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}

	reporter.Start(response.ContentLength)
	defer reporter.Done()

	counter := &countingWriter{reporter: reporter}
	if _, err = io.Copy(io.MultiWriter(file, counter), response.Body); err != nil {
		_ = file.Close()

		// The partial artifact stays on disk for diagnosis.
		return fmt.Errorf("%w: %s", ErrFetch, err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}

	logger.InfoKV(ctx, "Downloaded source archive", "url", url, "path", dest)

	return nil
}

// countingWriter forwards written byte counts to the progress reporter.
type countingWriter struct {
	reporter progress.Reporter
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.reporter.Add(len(p))
	return len(p), nil
}
