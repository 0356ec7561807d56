package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CleanupFiles removes multiple files, ignoring errors
func CleanupFiles(paths ...string) {
	for _, path := range paths {
		_ = os.Remove(path)
	}
}

// ClipFileName builds the default output filename for a cut:
// {source stem}_{in}_{out}.mp4 with the timestamps made filename-safe.
func ClipFileName(sourcePath string, in, out time.Duration) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	clean := func(d time.Duration) string {
		s := FormatClock(d)
		s = strings.ReplaceAll(s, ":", "-")
		return strings.ReplaceAll(s, ".", "-")
	}
	return fmt.Sprintf("%s_%s_%s.mp4", stem, clean(in), clean(out))
}

// IsVideoFile reports whether the path carries a known video extension.
func IsVideoFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mkv", ".mov", ".avi", ".webm", ".m4v", ".mpg", ".mpeg", ".ts", ".m2ts", ".wmv":
		return true
	}
	return false
}
