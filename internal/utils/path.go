package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathUtil joins key under path and makes sure the parent directory exists.
func PathUtil(path string, key string) (string, error) {
	filePath := filepath.Join(path, key)

	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create directories: %w", err)
	}
	return filePath, nil
}
