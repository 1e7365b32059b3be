package checksum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSHA256ReferenceValues checks digests against the standard reference vectors.
func TestSHA256ReferenceValues(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		"abc": "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
	}

	for input, want := range cases {
		require.Equal(t, want, SHA256([]byte(input)))
	}
}

// TestFileSHA256 ensures the streaming file digest matches the in-memory one.
func TestFileSHA256(t *testing.T) {
	t.Parallel()

	body := []byte("hello world")
	path := filepath.Join(t.TempDir(), "artifact.tar.gz")
	require.NoError(t, os.WriteFile(path, body, 0o644))

	digest, err := FileSHA256(path)
	require.NoError(t, err)
	require.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", digest)
	require.Equal(t, SHA256(body), digest)
}

// TestFileSHA256Missing propagates I/O failures.
func TestFileSHA256Missing(t *testing.T) {
	t.Parallel()

	_, err := FileSHA256(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
