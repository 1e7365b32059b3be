package update

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/pkgup/pkgup/internal/logger"
)

// MarkerFilename marks that a pkgup run is in flight in a recipe directory.
// Concurrent runs against the same directory would corrupt the artifact or
// the recipe text, so they are refused.
const MarkerFilename = ".pkgup-running"

// executableName is the process name scanned for when deciding whether a
// leftover marker belongs to a live run.
const executableName = "pkgup"

// IsRunningNow reports whether another pkgup run holds the recipe directory.
// A marker without a matching live process is treated as stale, removed, and
// ignored.
func IsRunningNow(ctx context.Context, dir string) bool {
	markerPath := filepath.Join(dir, MarkerFilename)

	_, err := os.Stat(markerPath)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	if err != nil {
		logger.WarnKV(ctx, "Could not read run marker", "path", markerPath, "error", err)
		return false
	}

	alive, err := anotherInstanceAlive()
	if err != nil {
		// Cannot inspect the process table, assume the marker is honest.
		logger.WarnKV(ctx, "Could not scan processes", "error", err)
		return true
	}

	if alive {
		return true
	}

	logger.InfoKV(ctx, "Removing stale run marker", "path", markerPath)

	if err = os.Remove(markerPath); err != nil {
		logger.WarnKV(ctx, "Could not remove stale run marker", "path", markerPath, "error", err)
		return true
	}

	return false
}

// anotherInstanceAlive scans the process table for a pkgup process other than
// this one.
func anotherInstanceAlive() (bool, error) {
	processes, err := ps.Processes()
	if err != nil {
		return false, err
	}

	self := os.Getpid()

	for _, process := range processes {
		if process.Pid() == self {
			continue
		}

		name := strings.TrimSuffix(process.Executable(), ".exe")
		if name == executableName {
			return true, nil
		}
	}

	return false, nil
}
