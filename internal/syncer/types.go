package syncer

import (
	"github.com/rapid-labs/rapid/internal/fsutil"
)

// Outcome tags a FileOperation.
type Outcome string

const (
	OutcomeCopy  Outcome = "copy"
	OutcomeSkip  Outcome = "skip"
	OutcomeError Outcome = "error"
)

// Direction selects which side of a pair is the source.
type Direction int

const (
	// Forward copies canonical → assistant.
	Forward Direction = iota
	// Reverse consolidates assistant → canonical.
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "consolidate"
	}
	return "sync"
}

// FileOperation records what happened to one file.
type FileOperation struct {
	Source  string
	Target  string
	Outcome Outcome
	Reason  string
	Success bool
}

// RelativeSource returns Source relative to root, or Source when outside root.
func (op FileOperation) RelativeSource(root string) string {
	return fsutil.RelativeTo(root, op.Source)
}

// RelativeTarget returns Target relative to root, or Target when outside root.
func (op FileOperation) RelativeTarget(root string) string {
	return fsutil.RelativeTo(root, op.Target)
}

// Result aggregates the operations of one or more assistants.
type Result struct {
	Success      bool
	Operations   []FileOperation
	FilesCopied  int
	FilesSkipped int
	Errors       []string
	Warnings     []string
}

func newResult() *Result {
	return &Result{Success: true}
}

func failed(msg string) *Result {
	return &Result{Success: false, Errors: []string{msg}}
}

func (r *Result) add(op FileOperation) {
	r.Operations = append(r.Operations, op)
	switch {
	case op.Outcome == OutcomeCopy && op.Success:
		r.FilesCopied++
	case op.Outcome == OutcomeSkip:
		r.FilesSkipped++
	}
}

func (r *Result) addError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Success = false
}

// Merge folds other into r: counts are summed, operations, errors and
// warnings are concatenated.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Operations = append(r.Operations, other.Operations...)
	r.FilesCopied += other.FilesCopied
	r.FilesSkipped += other.FilesSkipped
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Success = len(r.Errors) == 0
}
