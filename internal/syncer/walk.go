package syncer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rapid-labs/rapid/internal/fsutil"
	"github.com/spf13/afero"
)

const (
	reasonCopied     = "file copied"
	reasonDryRun     = "would copy (dry run)"
	reasonNotNewer   = "target is newer or same age"
	reasonIdentical  = "files are identical"
	reasonNoSource   = "source file does not exist"
	reasonConflicted = "refused: conflicting edits"
)

// syncTree mirrors every regular file under src to the same relative path
// under dst. A missing src is a no-op: not every assistant uses every
// capability.
func (e *Engine) syncTree(src, dst string, force bool, res *Result) {
	ok, err := afero.DirExists(e.fs, src)
	if err != nil {
		res.addError(fmt.Sprintf("failed to read %s: %v", e.rel(src), err))
		return
	}
	if !ok {
		e.log.Debug().Str("path", src).Msg("source directory not found, skipping")
		return
	}

	walkErr := afero.Walk(e.fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			res.addError(fmt.Sprintf("failed to sync %s: %v", e.rel(path), err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			res.addError(fmt.Sprintf("failed to sync %s: %v", e.rel(path), err))
			return nil
		}

		op := e.syncFile(path, filepath.Join(dst, rel), force)
		res.add(op)
		if !op.Success {
			res.addError(fmt.Sprintf("failed to sync %s: %s", e.rel(op.Source), op.Reason))
		}
		return nil
	})
	if walkErr != nil {
		res.addError(fmt.Sprintf("failed to walk %s: %v", e.rel(src), walkErr))
	}
}

// syncFile copies src over dst when dst is missing, force is set, or src is
// strictly newer. I/O failures become an error operation.
func (e *Engine) syncFile(src, dst string, force bool) FileOperation {
	op := FileOperation{Source: src, Target: dst}

	copyNeeded, err := e.needsCopy(src, dst, force)
	if err != nil {
		return e.failOp(op, err)
	}
	if !copyNeeded {
		op.Outcome, op.Reason, op.Success = OutcomeSkip, reasonNotNewer, true
		return op
	}
	return e.copyOp(op)
}

func (e *Engine) needsCopy(src, dst string, force bool) (bool, error) {
	srcTime, err := fsutil.ModTime(e.fs, src)
	if err != nil {
		return false, err
	}
	dstTime, err := fsutil.ModTime(e.fs, dst)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return force || srcTime.After(dstTime), nil
}

// copyOp performs op's copy, or only records it on a dry run.
func (e *Engine) copyOp(op FileOperation) FileOperation {
	if e.dryRun {
		op.Outcome, op.Reason, op.Success = OutcomeCopy, reasonDryRun, true
		e.log.Debug().Str("source", op.Source).Str("target", op.Target).Msg("dry run: would copy")
		return op
	}
	if err := fsutil.CopyFile(e.fs, op.Source, e.fs, op.Target); err != nil {
		return e.failOp(op, err)
	}
	op.Outcome, op.Reason, op.Success = OutcomeCopy, reasonCopied, true
	e.log.Debug().Str("source", op.Source).Str("target", op.Target).Msg("copied")
	return op
}

func (e *Engine) failOp(op FileOperation, err error) FileOperation {
	op.Outcome, op.Reason, op.Success = OutcomeError, err.Error(), false
	e.log.Warn().Err(err).Str("source", op.Source).Str("target", op.Target).Msg("copy failed")
	return op
}

func (e *Engine) rel(path string) string {
	return fsutil.RelativeTo(e.root, path)
}
