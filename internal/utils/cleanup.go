package utils

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// RemoveLocal removes one stored file. A file that is already gone is not an error.
func RemoveLocal(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file %q: %w", path, err)
	}
	slog.Debug("removed local file", "path", path)
	return nil
}

// CleanupAll removes the full-resolution and preview files of an asset that
// did not make it to the result list.
func CleanupAll(fullPath, previewPath string) error {
	var errs []string

	for _, p := range []string{fullPath, previewPath} {
		if p == "" {
			continue
		}
		if err := RemoveLocal(p); err != nil {
			slog.Warn("cleanup failed", "error", err)
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %s", strings.Join(errs, " | "))
	}
	return nil
}
