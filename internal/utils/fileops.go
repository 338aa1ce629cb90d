package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// EnsureDir ensures a directory exists, creating it if necessary
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists reports whether path exists and is not a directory.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// RemoveQuietly deletes path, logging but otherwise ignoring failures.
// A missing file is not a failure.
func RemoveQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("Failed to remove %s: %v", path, err)
	}
}

// RemoveAllQuietly deletes a directory tree, logging failures. It reports
// whether the tree is gone.
func RemoveAllQuietly(path string) bool {
	if err := os.RemoveAll(path); err != nil {
		logrus.Warnf("Failed to remove %s: %v", path, err)
		return false
	}
	return true
}
