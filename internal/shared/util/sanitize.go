package util

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrInvalidFileName is returned for names that are empty or only dots.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName flattens a client file name into a single path segment.
// Separators become "_", so the result never names another directory.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if strings.Trim(s, ".") == "" {
		return "", ErrInvalidFileName
	}
	return s, nil
}

// CleanKey validates a relative storage key.
func CleanKey(key string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean(strings.TrimSpace(key)))
	if clean == "." || clean == "" || strings.HasPrefix(clean, "..") || strings.HasPrefix(clean, "/") {
		return "", ErrInvalidFileName
	}
	return clean, nil
}
