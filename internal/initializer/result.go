package initializer

import (
	"github.com/rapid-labs/rapid/internal/assistant"
	"github.com/rapid-labs/rapid/internal/fsutil"
)

// Category tags what kind of template a CopyOperation installed.
type Category string

const (
	CategoryAgent       Category = "agent"
	CategoryCommand     Category = "command"
	CategoryInstruction Category = "instruction"
)

// CopyOperation records one template copy. Source is relative to the
// template tree; Destination is absolute.
type CopyOperation struct {
	Source      string
	Destination string
	Category    Category
	Assistant   assistant.Name // empty when no assistant owns the copy
	Success     bool
	Error       string
}

// RelativeDestination returns Destination relative to root.
func (op CopyOperation) RelativeDestination(root string) string {
	return fsutil.RelativeTo(root, op.Destination)
}

// Result is the outcome of one Initialize call.
type Result struct {
	Success            bool
	Operations         []CopyOperation
	FilesCopied        int
	DirectoriesCreated int
	Errors             []string
	Warnings           []string
	// RolledBack is set when a failure caused this run's writes to be undone.
	RolledBack bool
}

// Summary groups a Result's operations for display.
type Summary struct {
	Total       int
	Successful  int
	Failed      int
	ByCategory  map[Category]int
	ByAssistant map[assistant.Name]int
}

// Summary counts operations by outcome, category and assistant.
func (r *Result) Summary() Summary {
	s := Summary{
		ByCategory:  map[Category]int{},
		ByAssistant: map[assistant.Name]int{},
	}
	for _, op := range r.Operations {
		s.Total++
		if op.Success {
			s.Successful++
		} else {
			s.Failed++
		}
		s.ByCategory[op.Category]++
		if op.Assistant != "" {
			s.ByAssistant[op.Assistant]++
		}
	}
	return s
}

func (r *Result) addWarning(msg string) {
	for _, w := range r.Warnings {
		if w == msg {
			return
		}
	}
	r.Warnings = append(r.Warnings, msg)
}
