package fileutil

import (
	"fmt"
	"os"
)

// EnsureDir creates dir (and any missing parents) if it does not exist.
func EnsureDir(dir string) *FileError {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("failed to create directory %s: %v", dir, err),
			Retryable: false,
			Cause:     ErrCausePathError,
		}
	}
	return nil
}
