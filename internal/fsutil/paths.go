package fsutil

import (
	"path/filepath"
	"strings"
)

// RelativeTo returns path relative to root, or path unchanged when it does
// not live under root.
func RelativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
