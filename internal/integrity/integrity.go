// Package integrity validates downloaded source archives before they are
// checksummed and written into the recipe.
package integrity

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrCorrupt is returned when an archive fails its structural check.
var ErrCorrupt = errors.New("archive is corrupt")

// CheckGzip streams the file through the gzip decoder and reports whether the
// compressed container is structurally sound, the equivalent of `gzip -t`.
// The decompressed payload is discarded.
func CheckGzip(path string) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	reader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCorrupt, err)
	}

	if _, err = io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("%w: %s", ErrCorrupt, err)
	}

	if err = reader.Close(); err != nil {
		return fmt.Errorf("%w: %s", ErrCorrupt, err)
	}

	return nil
}

// Checkable reports whether the artifact is a format CheckGzip understands.
func Checkable(filename string) bool {
	return strings.HasSuffix(filename, "gz")
}
