// Package resilience is a small toolkit of filesystem mutations used to
// provoke the failure modes a log-watching test harness needs to
// rehearse: files disappearing, directories going read-only, filesystems
// filling up. It depends on nothing in this module's core packages — a
// test wires it alongside a Watcher or Reader, never through one.
package resilience

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// FileExists reports whether path names an existing file or directory.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FileSize returns the size in bytes of the file at path.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("resilience: stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// TruncateFile resets the file at path to zero length without removing
// it, simulating log rotation's truncate-in-place strategy.
func TruncateFile(path string) error {
	if err := os.Truncate(path, 0); err != nil {
		return fmt.Errorf("resilience: truncate %s: %w", path, err)
	}
	return nil
}

// DeleteFile removes path. A file that is already gone is treated as
// success, since the caller's intent ("this file should not exist") is
// already satisfied.
func DeleteFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("resilience: remove %s: %w", path, err)
	}
	return nil
}

// CreateReadOnlyDir creates dir (and any missing parents) with no write
// permission for anyone, simulating a log directory the SUT has lost
// permission to write into.
func CreateReadOnlyDir(dir string) error {
	if err := os.MkdirAll(dir, 0o555); err != nil {
		return fmt.Errorf("resilience: mkdir %s: %w", dir, err)
	}
	// MkdirAll applies the mode only to directories it actually creates;
	// force it on the leaf even if dir already existed.
	if err := os.Chmod(dir, 0o555); err != nil {
		return fmt.Errorf("resilience: chmod %s: %w", dir, err)
	}
	return nil
}

// RemoveDir deletes dir and everything under it. The directory is made
// writable first so a prior CreateReadOnlyDir does not block removal.
func RemoveDir(dir string) error {
	_ = os.Chmod(dir, 0o755)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("resilience: remove %s: %w", dir, err)
	}
	return nil
}

// RemoveWritePermission strips write permission from path for everyone,
// leaving read permission intact, simulating a log file that has gone
// read-only underneath the SUT.
func RemoveWritePermission(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("resilience: stat %s: %w", path, err)
	}
	mode := info.Mode().Perm() &^ 0o222
	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("resilience: chmod %s: %w", path, err)
	}
	return nil
}

// AddWritePermission restores owner write permission on path.
func AddWritePermission(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("resilience: stat %s: %w", path, err)
	}
	mode := info.Mode().Perm() | 0o200
	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("resilience: chmod %s: %w", path, err)
	}
	return nil
}

// CreateSizedTmpfs mounts a tmpfs of sizeKiB kibibytes at dir, simulating
// a log partition filling up once the SUT writes past that size. The
// standard library has no mount(2) wrapper, so this is the one place in
// the toolkit that shells out.
func CreateSizedTmpfs(dir string, sizeKiB int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("resilience: mkdir %s: %w", dir, err)
	}
	cmd := exec.Command("mount", "-t", "tmpfs", "-o", fmt.Sprintf("size=%dk", sizeKiB), "tmpfs", dir)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("resilience: mount tmpfs at %s: %w: %s", dir, err, out)
	}
	return nil
}

// RemoveTmpfs unmounts a tmpfs previously created with CreateSizedTmpfs.
func RemoveTmpfs(dir string) error {
	cmd := exec.Command("umount", dir)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("resilience: umount %s: %w: %s", dir, err, out)
	}
	return nil
}
