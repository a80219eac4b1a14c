package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write replaces the document at path with data. The new content is written
// to a sibling temp file and renamed into place, so readers see either the
// previous generation or the new one, never a mix.
func Write(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	// CreateTemp uses 0600; the snapshot is meant to be read by people.
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
