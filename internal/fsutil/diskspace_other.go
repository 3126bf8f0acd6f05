//go:build !(linux || darwin || freebsd || windows)

package fsutil

import "errors"

// FreeSpace is not implemented on this platform.
func FreeSpace(path string) (uint64, error) {
	return 0, errors.ErrUnsupported
}
