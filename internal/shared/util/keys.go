package util

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// NewObjectKey returns a collision-resistant storage key of the form
// <prefix>/<uuid><ext>, keeping only the original file extension.
func NewObjectKey(prefix, fileName string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))
	if strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	name := uuid.NewString() + ext
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
