package syncer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rapid-labs/rapid/internal/assistant"
	"github.com/rapid-labs/rapid/internal/branding"
	"github.com/rapid-labs/rapid/internal/logging"
	"github.com/spf13/afero"
)

var (
	// ErrCanonicalMissing means the project has no canonical directory yet.
	ErrCanonicalMissing = errors.New(branding.CanonicalDir() + " directory not found")
	// ErrAmbiguousLanguage means more than one instruction document exists in
	// the canonical instructions directory and no language was given.
	ErrAmbiguousLanguage = errors.New("multiple instruction documents found")
	// ErrConflict means two assistants changed their instruction files since
	// the last sync.
	ErrConflict = errors.New("conflicting instruction edits")
)

// ProgressFunc receives coarse progress, once per assistant.
type ProgressFunc func(message string, current, total int)

// Options configures an Engine.
type Options struct {
	// Fs defaults to the OS filesystem.
	Fs          afero.Fs
	ProjectRoot string
	// DryRun records operations without writing.
	DryRun bool
	// Language selects the instruction document explicitly instead of
	// detecting it from the canonical instructions directory.
	Language string
	Logger   *logging.Logger
	Progress ProgressFunc
}

// Engine reconciles the canonical directory with assistant directories.
// An Engine is not safe for concurrent use against the same project.
type Engine struct {
	fs        afero.Fs
	root      string
	canonical string
	dryRun    bool
	language  string
	log       *logging.Logger
	progress  ProgressFunc
}

// New creates an Engine for opts.ProjectRoot.
func New(opts Options) *Engine {
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(string, int, int) {}
	}
	return &Engine{
		fs:        fsys,
		root:      opts.ProjectRoot,
		canonical: assistant.CanonicalDirIn(opts.ProjectRoot),
		dryRun:    opts.DryRun,
		language:  opts.Language,
		log:       log.Sub("syncer"),
		progress:  progress,
	}
}

// SyncOne copies canonical content into one assistant's directories.
func (e *Engine) SyncOne(ctx context.Context, name assistant.Name, force bool) (*Result, error) {
	return e.runOne(ctx, name, Forward, force)
}

// ConsolidateOne copies one assistant's content back into the canonical
// directory, refusing instruction files that conflict with another assistant.
func (e *Engine) ConsolidateOne(ctx context.Context, name assistant.Name, force bool) (*Result, error) {
	return e.runOne(ctx, name, Reverse, force)
}

// SyncAll runs SyncOne for every non-canonical assistant.
func (e *Engine) SyncAll(ctx context.Context, force bool) *Result {
	return e.runAll(ctx, Forward, force)
}

// ConsolidateAll runs ConsolidateOne for every non-canonical assistant.
func (e *Engine) ConsolidateAll(ctx context.Context, force bool) *Result {
	return e.runAll(ctx, Reverse, force)
}

// runOne returns a Go error only for usage errors: an unknown assistant or
// the canonical profile itself. Every other failure is recorded in the Result.
func (e *Engine) runOne(ctx context.Context, name assistant.Name, dir Direction, force bool) (*Result, error) {
	p, err := assistant.Lookup(name)
	if err != nil {
		return nil, err
	}
	if p.IsCanonical() {
		return nil, fmt.Errorf("cannot %s %s: %w", dir, p.DisplayName, assistant.ErrCanonicalTarget)
	}
	if !e.canonicalExists() {
		return e.missingCanonical(), nil
	}

	e.progress(progressMessage(dir, p), 0, 1)
	res := e.runAssistant(ctx, p, dir, e.probeLanguage(), force)
	e.progress(doneMessage(dir), 1, 1)
	return res, nil
}

func (e *Engine) runAll(ctx context.Context, dir Direction, force bool) *Result {
	if !e.canonicalExists() {
		return e.missingCanonical()
	}

	targets := assistant.Targets()
	probe := e.probeLanguage()
	res := newResult()
	for i, p := range targets {
		if err := ctx.Err(); err != nil {
			res.addError(fmt.Sprintf("stopped before %s: %v", p.DisplayName, err))
			break
		}
		e.progress(progressMessage(dir, p), i, len(targets))
		res.Merge(e.runAssistant(ctx, p, dir, probe, force))
	}
	e.progress(doneMessage(dir), len(targets), len(targets))

	e.log.Info().
		Str("direction", dir.String()).
		Int("copied", res.FilesCopied).
		Int("skipped", res.FilesSkipped).
		Int("errors", len(res.Errors)).
		Msg("synchronization finished")
	return res
}

func (e *Engine) runAssistant(ctx context.Context, p assistant.Profile, dir Direction, probe *languageProbe, force bool) *Result {
	res := newResult()

	if p.SyncsAgents() {
		agentsDir, _ := p.AgentsDirIn(e.root)
		src, dst := orient(dir, filepath.Join(e.canonical, assistant.AgentsDir), agentsDir)
		e.syncTree(src, dst, force, res)
	}

	if p.CopyCommands && ctx.Err() == nil {
		src, dst := orient(dir, filepath.Join(e.canonical, p.CanonicalCommandsSubdir()), p.CommandsDirIn(e.root))
		e.syncTree(src, dst, force, res)
	}

	if p.SyncsInstructions() && ctx.Err() == nil {
		if dir == Forward {
			e.syncInstructions(p, probe, force, res)
		} else {
			e.consolidateInstructions(p, probe, force, res)
		}
	}

	e.log.Debug().
		Str("assistant", string(p.Name)).
		Str("direction", dir.String()).
		Int("operations", len(res.Operations)).
		Int("errors", len(res.Errors)).
		Msg("assistant processed")
	return res
}

func (e *Engine) canonicalExists() bool {
	ok, err := afero.DirExists(e.fs, e.canonical)
	return err == nil && ok
}

func (e *Engine) missingCanonical() *Result {
	msg := fmt.Sprintf("%v; run '%s init' first", ErrCanonicalMissing, branding.CLIName())
	e.log.Error().Str("path", e.canonical).Msg(msg)
	return failed(msg)
}

// orient returns (source, target) for a canonical/assistant pair.
func orient(dir Direction, canonical, assistantPath string) (string, string) {
	if dir == Reverse {
		return assistantPath, canonical
	}
	return canonical, assistantPath
}

func progressMessage(dir Direction, p assistant.Profile) string {
	if dir == Reverse {
		return "Consolidating from " + p.DisplayName
	}
	return "Syncing to " + p.DisplayName
}

func doneMessage(dir Direction) string {
	if dir == Reverse {
		return "Consolidation complete"
	}
	return "Update complete"
}
