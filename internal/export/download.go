package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirDownloader saves downloads into a local directory, standing in for
// the browser's download manager.
type DirDownloader struct {
	Dir string
}

// Path returns where a download named name is written.
func (d DirDownloader) Path(name string) string {
	return filepath.Join(d.Dir, filepath.Base(name))
}

// Download writes data to Dir/name through a temporary file renamed on
// success, so a failed write never leaves a truncated file behind.
// Existing files are replaced.
func (d DirDownloader) Download(name string, data []byte) error {
	dest := d.Path(name)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", filepath.Dir(dest), err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(dest), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
