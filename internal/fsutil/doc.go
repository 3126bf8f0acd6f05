// Package fsutil provides the file primitives shared by the initializer and
// the synchronization engine: an mtime-preserving copy across afero
// filesystems, byte equality, a writable-directory probe, and free disk space.
package fsutil
