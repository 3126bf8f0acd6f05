package fsutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// ProbeFileName is created and removed to verify a directory is writable.
const ProbeFileName = ".rapid_test_write"

// CopyFile copies src on srcFS to dst on dstFS. Missing parent directories of
// dst are created. The source modification time is carried over to dst so
// later timestamp comparisons see the two as the same age; sources without a
// modification time (embedded files) leave dst at its write time.
func CopyFile(srcFS afero.Fs, src string, dstFS afero.Fs, dst string) error {
	return CopyFileAt(srcFS, src, dstFS, dst, time.Time{})
}

// CopyFileAt is CopyFile with a fallback modification time for sources that
// carry none. Copies of embedded files made with the same fallback compare
// as the same age.
func CopyFileAt(srcFS afero.Fs, src string, dstFS afero.Fs, dst string, fallback time.Time) error {
	info, err := srcFS.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	in, err := srcFS.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := dstFS.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	// Owner read/write is always granted so a later run can overwrite dst.
	out, err := dstFS.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm()|0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	mtime := info.ModTime()
	if mtime.IsZero() {
		mtime = fallback
	}
	if !mtime.IsZero() {
		if err := dstFS.Chtimes(dst, mtime, mtime); err != nil {
			return fmt.Errorf("preserving modification time: %w", err)
		}
	}
	return nil
}

// ModTime returns the modification time of path.
func ModTime(fsys afero.Fs, path string) (time.Time, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// IsFile reports whether path exists and is not a directory.
func IsFile(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && !info.IsDir()
}

// Identical reports whether a and b both exist and hold the same bytes.
func Identical(fsys afero.Fs, a, b string) (bool, error) {
	ia, err := fsys.Stat(a)
	if err != nil {
		return false, err
	}
	ib, err := fsys.Stat(b)
	if err != nil {
		return false, err
	}
	if ia.Size() != ib.Size() {
		return false, nil
	}

	da, err := afero.ReadFile(fsys, a)
	if err != nil {
		return false, err
	}
	db, err := afero.ReadFile(fsys, b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(da, db), nil
}

// ProbeWritable creates and deletes a probe file in dir.
func ProbeWritable(fsys afero.Fs, dir string) error {
	probe := filepath.Join(dir, ProbeFileName)
	f, err := fsys.Create(probe)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return fsys.Remove(probe)
}

// IsEmptyDir reports whether dir exists and has no entries.
func IsEmptyDir(fsys afero.Fs, dir string) bool {
	ok, err := afero.IsEmpty(fsys, dir)
	return err == nil && ok
}
