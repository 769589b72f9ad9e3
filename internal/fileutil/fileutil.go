// Package fileutil inspects download targets on disk.
package fileutil

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"tubeq/internal/services"
)

// FreeBytes reports the space available to unprivileged writers on the
// filesystem holding path.
func FreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// EnsureFreeSpace fails with services.ErrInsufficientSpace when the
// filesystem holding dir has less than minBytes available. A zero floor
// disables the check.
func EnsureFreeSpace(dir string, minBytes uint64) error {
	if minBytes == 0 {
		return nil
	}
	free, err := FreeBytes(dir)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "free space", "cannot inspect download directory", err)
	}
	if free < minBytes {
		msg := fmt.Sprintf("%s free, %s required", humanize.IBytes(free), humanize.IBytes(minBytes))
		return services.Wrap(services.ErrInsufficientSpace, "preflight", "free space", msg, nil)
	}
	return nil
}

// EnsureWritableDir creates dir when missing and verifies the process can
// list and write to it.
func EnsureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	if err := unix.Access(dir, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("%s: insufficient permissions: %w", dir, err)
	}
	return nil
}
