package syncer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rapid-labs/rapid/internal/assistant"
	"github.com/rapid-labs/rapid/internal/branding"
	"github.com/rapid-labs/rapid/internal/fsutil"
	"github.com/spf13/afero"
)

// languageProbe is the outcome of inspecting the canonical instructions
// directory. It is resolved once per run and reported at most once.
type languageProbe struct {
	language string
	warning  string
	err      error
	reported bool
}

// DetectLanguage returns the stem of the single *.md document in the
// project's canonical instructions directory. It returns "" when there is
// none and ErrAmbiguousLanguage when there are several.
func DetectLanguage(fsys afero.Fs, projectRoot string) (string, error) {
	dir := filepath.Join(assistant.CanonicalDirIn(projectRoot), assistant.InstructionsDir)
	docs, err := instructionDocs(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", fsutil.RelativeTo(projectRoot, dir), err)
	}
	switch len(docs) {
	case 0:
		return "", nil
	case 1:
		return strings.TrimSuffix(docs[0], filepath.Ext(docs[0])), nil
	default:
		return "", fmt.Errorf("%w in %s (%s)", ErrAmbiguousLanguage,
			fsutil.RelativeTo(projectRoot, dir), strings.Join(docs, ", "))
	}
}

// probeLanguage resolves the active instruction document. An explicit
// language wins over detection.
func (e *Engine) probeLanguage() *languageProbe {
	if e.language != "" {
		return &languageProbe{language: e.language}
	}

	lang, err := DetectLanguage(e.fs, e.root)
	switch {
	case errors.Is(err, ErrAmbiguousLanguage):
		return &languageProbe{err: fmt.Errorf("%w; pass --language to choose one", err)}
	case err != nil:
		return &languageProbe{err: err}
	case lang == "":
		return &languageProbe{warning: fmt.Sprintf(
			"no instruction document found in %s; re-run '%s init' to enable instruction synchronization",
			e.rel(e.instructionsDir()), branding.CLIName())}
	}
	e.log.Debug().Str("language", lang).Msg("detected language from instructions")
	return &languageProbe{language: lang}
}

// report moves the probe's warning or error into res the first time it is
// needed and reports whether a language is available.
func (lp *languageProbe) report(res *Result) bool {
	if !lp.reported {
		lp.reported = true
		if lp.warning != "" {
			res.Warnings = append(res.Warnings, lp.warning)
		}
		if lp.err != nil {
			res.addError(lp.err.Error())
		}
	}
	return lp.language != ""
}

func instructionDocs(fsys afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var docs []string
	for _, entry := range entries {
		if entry.Mode().IsRegular() && strings.HasSuffix(entry.Name(), ".md") {
			docs = append(docs, entry.Name())
		}
	}
	sort.Strings(docs)
	return docs, nil
}

func (e *Engine) instructionsDir() string {
	return filepath.Join(e.canonical, assistant.InstructionsDir)
}

func (e *Engine) canonicalInstruction(lang string) string {
	return filepath.Join(e.instructionsDir(), lang+".md")
}

// syncInstructions copies the canonical instruction document to the
// assistant's instructions file.
func (e *Engine) syncInstructions(p assistant.Profile, probe *languageProbe, force bool, res *Result) {
	if !probe.report(res) {
		return
	}
	src := e.canonicalInstruction(probe.language)
	dst, _ := p.InstructionsPathIn(e.root)

	if !fsutil.IsFile(e.fs, src) {
		msg := fmt.Sprintf("instruction source not found: %s", e.rel(src))
		res.Warnings = append(res.Warnings, msg)
		e.log.Warn().Str("path", src).Msg("instruction source not found")
		return
	}

	op := e.syncInstructionFile(src, dst, force)
	res.add(op)
	if !op.Success {
		res.addError(fmt.Sprintf("failed to sync instructions to %s: %s", e.rel(dst), op.Reason))
	}
}

// consolidateInstructions copies the assistant's instructions file back to
// the canonical document unless another assistant's file also changed since
// the canonical copy was written.
func (e *Engine) consolidateInstructions(p assistant.Profile, probe *languageProbe, force bool, res *Result) {
	src, _ := p.InstructionsPathIn(e.root)
	if !fsutil.IsFile(e.fs, src) {
		return
	}
	if !probe.report(res) {
		return
	}
	dst := e.canonicalInstruction(probe.language)

	if other, ok := e.conflictingInstruction(p, src, dst); ok {
		msg := fmt.Sprintf("%v: %s and %s instruction files both changed since the last sync; reconcile them manually\n  - %s\n  - %s",
			ErrConflict, p.DisplayName, other.DisplayName, e.rel(src), e.rel(e.instructionsPath(other)))
		res.add(FileOperation{Source: src, Target: dst, Outcome: OutcomeError, Reason: reasonConflicted})
		res.addError(msg)
		e.log.Error().Str("assistant", string(p.Name)).Str("other", string(other.Name)).Msg("instruction conflict")
		return
	}

	op := e.syncInstructionFile(src, dst, force)
	res.add(op)
	if !op.Success {
		res.addError(fmt.Sprintf("failed to consolidate instructions from %s: %s", e.rel(src), op.Reason))
	}
}

// conflictingInstruction returns another instruction-bearing assistant whose
// file, like current, is strictly newer than the canonical document.
func (e *Engine) conflictingInstruction(current assistant.Profile, currentPath, canonicalPath string) (assistant.Profile, bool) {
	canonicalTime, err := fsutil.ModTime(e.fs, canonicalPath)
	if err != nil {
		return assistant.Profile{}, false
	}
	currentTime, err := fsutil.ModTime(e.fs, currentPath)
	if err != nil || !currentTime.After(canonicalTime) {
		return assistant.Profile{}, false
	}

	for _, other := range assistant.Targets() {
		if other.Name == current.Name || !other.SyncsInstructions() {
			continue
		}
		otherTime, err := fsutil.ModTime(e.fs, e.instructionsPath(other))
		if err != nil {
			continue
		}
		if otherTime.After(canonicalTime) {
			return other, true
		}
	}
	return assistant.Profile{}, false
}

func (e *Engine) instructionsPath(p assistant.Profile) string {
	path, _ := p.InstructionsPathIn(e.root)
	return path
}

// syncInstructionFile is syncFile plus a content-equality check: identical
// files are skipped even when timestamps say a copy is due.
func (e *Engine) syncInstructionFile(src, dst string, force bool) FileOperation {
	op := FileOperation{Source: src, Target: dst}

	if !fsutil.IsFile(e.fs, src) {
		op.Outcome, op.Reason = OutcomeError, reasonNoSource
		return op
	}
	if !fsutil.IsFile(e.fs, dst) {
		return e.copyOp(op)
	}

	if !force {
		copyNeeded, err := e.needsCopy(src, dst, false)
		if err != nil {
			return e.failOp(op, err)
		}
		if !copyNeeded {
			op.Outcome, op.Reason, op.Success = OutcomeSkip, reasonNotNewer, true
			return op
		}
	}

	same, err := fsutil.Identical(e.fs, src, dst)
	if err != nil {
		return e.failOp(op, err)
	}
	if same {
		op.Outcome, op.Reason, op.Success = OutcomeSkip, reasonIdentical, true
		return op
	}
	return e.copyOp(op)
}
