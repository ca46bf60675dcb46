// Package fsutil holds small file helpers shared by the config, render
// output, capture and feed cache writers.
package fsutil

import (
	"os"
	"path/filepath"
)

// Permissions used across monthcal. Private files hold credentials or feed
// URLs with embedded tokens; public files are the rendered page and preview.
const (
	PrivateDir  os.FileMode = 0o700
	PrivateFile os.FileMode = 0o600
	PublicDir   os.FileMode = 0o755
	PublicFile  os.FileMode = 0o644
)

// WriteFileAtomic writes data to a temp file next to path and renames it
// over path, so readers never observe a partial file. Missing parent
// directories are created with dirPerm.
func WriteFileAtomic(path string, data []byte, perm, dirPerm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".monthcal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
