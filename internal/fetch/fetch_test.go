package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkgup/pkgup/internal/progress"
)

// recordingReporter counts progress callbacks for assertions.
type recordingReporter struct {
	total       int64
	transferred int64
	done        bool
}

func (r *recordingReporter) Start(total int64) { r.total = total }
func (r *recordingReporter) Add(n int)         { r.transferred += int64(n) }
func (r *recordingReporter) Done()             { r.done = true }

// TestDownload streams a body to disk and accounts every byte in the reporter.
func TestDownload(t *testing.T) {
	t.Parallel()

	body := []byte("source tarball bytes")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "pkg-v1.0.0.tar.gz")
	reporter := new(recordingReporter)

	err := New(time.Minute).Download(context.Background(), ts.URL, dest, reporter)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, body, got)

	require.Equal(t, int64(len(body)), reporter.total)
	require.Equal(t, int64(len(body)), reporter.transferred)
	require.True(t, reporter.done)
}

// TestDownloadReusesExistingArtifact skips the network when the file is already on disk.
func TestDownloadReusesExistingArtifact(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("fresh"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "pkg-v1.0.0.tar.gz")
	require.NoError(t, os.WriteFile(dest, []byte("cached"), 0o644))

	err := New(time.Minute).Download(context.Background(), ts.URL, dest, progress.Nop{})
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, []byte("cached"), got)
	require.Zero(t, hits.Load())
}

// TestDownloadBadStatus wraps non-200 responses in ErrFetch.
func TestDownloadBadStatus(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "pkg.tar.gz")

	err := New(time.Minute).Download(context.Background(), ts.URL, dest, progress.Nop{})
	require.ErrorIs(t, err, ErrFetch)

	_, statErr := os.Stat(dest)
	require.True(t, os.IsNotExist(statErr))
}

// TestDownloadUnreachable wraps transport failures in ErrFetch.
func TestDownloadUnreachable(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "pkg.tar.gz")

	err := New(time.Second).Download(context.Background(), "http://127.0.0.1:1/pkg.tar.gz", dest, progress.Nop{})
	require.ErrorIs(t, err, ErrFetch)
}
