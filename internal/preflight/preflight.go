// Package preflight verifies the environment before the store mutates disk:
// data-directory permissions and free space. The doctor command surfaces the
// same checks interactively.
package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Result captures a single environment check outcome.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckDataDir verifies that the directory exists and is readable/writable.
func CheckDataDir(path string) Result {
	const name = "Data directory"
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// FreeBytes returns the free space available to unprivileged callers on the
// filesystem holding path.
func FreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// CheckFreeSpace verifies that at least minBytes are free on the filesystem
// holding path. A minBytes of zero always passes.
func CheckFreeSpace(path string, minBytes uint64) Result {
	const name = "Free space"
	if minBytes == 0 {
		return Result{Name: name, Passed: true, Detail: "no minimum configured"}
	}
	free, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%d MiB free, %d MiB required", free>>20, minBytes>>20)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d MiB free", free>>20)}
}
