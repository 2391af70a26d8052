// =============================================================================
// Registration Reconciler - File Manager Utility
// =============================================================================
//
// This module provides the file operations of a reconciliation run:
//   - All-or-nothing output writes (temporary file, then rename)
//   - Archival of the input ledgers after a successful run
//   - Directory management
//
// ARCHIVAL STRATEGY:
//   - Inputs are copied, never moved, so a run can be repeated
//   - Archived names carry the run timestamp: 20190301_101500_paypal.csv
//   - Failed runs archive nothing
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ArchiveTimestampFormat prefixes archived file names.
const ArchiveTimestampFormat = "20060102_150405"

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// AtomicWriteFile writes a file through a temporary sibling and renames it
// into place. If write fails, the destination is left untouched and the
// temporary file is removed.
//
// PARAMETERS:
//   - path: The destination file.
//   - write: Writes the complete file contents to w.
//
// RETURNS:
//   - An error if the directory cannot be created or any step fails.
func AtomicWriteFile(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmpPath := TempPath(path)
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err = write(tmp); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}

	return nil
}

// TempPath returns a unique hidden sibling path for path.
func TempPath(path string) string {
	name := fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.New().String())
	return filepath.Join(filepath.Dir(path), name)
}

// =============================================================================
// ARCHIVAL
// =============================================================================

// ArchiveFiles copies files into archiveDir, prefixing each name with the
// run timestamp.
//
// PARAMETERS:
//   - archiveDir: The archive directory. Created if missing.
//   - stamp: The run timestamp.
//   - paths: The files to archive.
//
// RETURNS:
//   - The archived paths, in the order given.
//   - An error for the first file that cannot be copied.
func ArchiveFiles(archiveDir string, stamp time.Time, paths ...string) ([]string, error) {
	if err := EnsureDir(archiveDir); err != nil {
		return nil, err
	}

	archived := make([]string, 0, len(paths))
	for _, p := range paths {
		dst := ArchivePath(archiveDir, stamp, p)
		if err := copyFile(p, dst); err != nil {
			return archived, fmt.Errorf("failed to archive %s: %w", p, err)
		}
		archived = append(archived, dst)
	}

	return archived, nil
}

// ArchivePath returns where filePath is archived for a run at stamp.
func ArchivePath(archiveDir string, stamp time.Time, filePath string) string {
	name := stamp.Format(ArchiveTimestampFormat) + "_" + filepath.Base(filePath)
	return filepath.Join(archiveDir, name)
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// EnsureDir creates dir and its parents if they don't exist.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}
