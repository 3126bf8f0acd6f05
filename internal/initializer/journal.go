package initializer

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rapid-labs/rapid/internal/fsutil"
	"github.com/spf13/afero"
)

type entryKind int

const (
	dirCreated entryKind = iota
	fileCreated
	fileReplaced
)

// entry is one side effect of a run. Replaced files keep their prior bytes
// so rollback can restore them.
type entry struct {
	kind      entryKind
	path      string
	prior     []byte
	priorMode os.FileMode
	priorTime time.Time
}

// journal is the ordered list of side effects of one run.
type journal struct {
	fs      afero.Fs
	entries []entry
}

func newJournal(fsys afero.Fs) *journal {
	return &journal{fs: fsys}
}

// recordDir notes that dir was created by this run.
func (j *journal) recordDir(dir string) {
	j.entries = append(j.entries, entry{kind: dirCreated, path: dir})
}

// recordWrite snapshots path before it is written.
func (j *journal) recordWrite(path string) error {
	info, err := j.fs.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		j.entries = append(j.entries, entry{kind: fileCreated, path: path})
		return nil
	}
	if err != nil {
		return err
	}
	prior, err := afero.ReadFile(j.fs, path)
	if err != nil {
		return fmt.Errorf("saving %s before overwrite: %w", path, err)
	}
	j.entries = append(j.entries, entry{
		kind:      fileReplaced,
		path:      path,
		prior:     prior,
		priorMode: info.Mode().Perm(),
		priorTime: info.ModTime(),
	})
	return nil
}

// dirs counts the directories this run created.
func (j *journal) dirs() int {
	n := 0
	for _, e := range j.entries {
		if e.kind == dirCreated {
			n++
		}
	}
	return n
}

// rollback undoes every entry, newest first: created files are deleted,
// replaced files get their prior contents back, and created directories are
// removed only when empty. Failures are returned, never raised.
func (j *journal) rollback() []error {
	var failures []error
	for i := len(j.entries) - 1; i >= 0; i-- {
		if err := j.undo(j.entries[i]); err != nil {
			failures = append(failures, err)
		}
	}
	return failures
}

func (j *journal) undo(e entry) error {
	switch e.kind {
	case fileCreated:
		if err := j.fs.Remove(e.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", e.path, err)
		}
	case fileReplaced:
		if err := afero.WriteFile(j.fs, e.path, e.prior, e.priorMode); err != nil {
			return fmt.Errorf("restoring %s: %w", e.path, err)
		}
		if err := j.fs.Chtimes(e.path, e.priorTime, e.priorTime); err != nil {
			return fmt.Errorf("restoring modification time of %s: %w", e.path, err)
		}
	case dirCreated:
		if !fsutil.IsEmptyDir(j.fs, e.path) {
			return nil
		}
		if err := j.fs.Remove(e.path); err != nil {
			return fmt.Errorf("removing directory %s: %w", e.path, err)
		}
	}
	return nil
}
