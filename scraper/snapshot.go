package scraper

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteSnapshot saves rendered page markup for later inspection. An empty
// path disables the snapshot.
func WriteSnapshot(path, html string) error {
	if path == "" {
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
