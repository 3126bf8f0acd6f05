package syncer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rapid-labs/rapid/internal/assistant"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "/proj"

var (
	t0 = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
	t2 = t0.Add(2 * time.Hour)
)

func p(parts ...string) string {
	return filepath.Join(append([]string{root}, parts...)...)
}

func write(t *testing.T, fsys afero.Fs, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0644))
	require.NoError(t, fsys.Chtimes(path, mtime, mtime))
}

func read(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	return string(data)
}

func mtime(t *testing.T, fsys afero.Fs, path string) time.Time {
	t.Helper()
	info, err := fsys.Stat(path)
	require.NoError(t, err)
	return info.ModTime()
}

// seed lays out an initialized python project: one agent, one command, one
// prompt and one instruction document, all at t0.
func seed(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	write(t, fsys, p(".rapid", "agents", "python", "python-code-agent.md"), "agent", t0)
	write(t, fsys, p(".rapid", "commands", "plan-feature.md"), "command", t0)
	write(t, fsys, p(".rapid", "prompts", "plan-feature.prompt.md"), "prompt", t0)
	write(t, fsys, p(".rapid", "instructions", "python.md"), "instructions", t0)
	return fsys
}

func newEngine(fsys afero.Fs) *Engine {
	return New(Options{Fs: fsys, ProjectRoot: root})
}

func opFor(t *testing.T, res *Result, target string) FileOperation {
	t.Helper()
	for _, op := range res.Operations {
		if op.Target == target {
			return op
		}
	}
	t.Fatalf("no operation targets %s", target)
	return FileOperation{}
}

func TestSyncOneCopiesMissingTargets(t *testing.T) {
	for _, force := range []bool{false, true} {
		fsys := seed(t)
		res, err := newEngine(fsys).SyncOne(context.Background(), assistant.ClaudeCode, force)
		require.NoError(t, err)

		assert.True(t, res.Success, "force=%v errors=%v", force, res.Errors)
		assert.Equal(t, 3, res.FilesCopied)
		assert.Equal(t, 0, res.FilesSkipped)
		assert.Equal(t, "agent", read(t, fsys, p(".claude", "agents", "python", "python-code-agent.md")))
		assert.Equal(t, "command", read(t, fsys, p(".claude", "commands", "plan-feature.md")))
		assert.Equal(t, "instructions", read(t, fsys, p(".claude", "CLAUDE.md")))
		assert.True(t, mtime(t, fsys, p(".claude", "commands", "plan-feature.md")).Equal(t0))
	}
}

func TestSyncOneCopilotUsesPrompts(t *testing.T) {
	fsys := seed(t)
	res, err := newEngine(fsys).SyncOne(context.Background(), assistant.GitHubCopilot, false)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.FilesCopied)
	assert.Equal(t, "prompt", read(t, fsys, p(".github", "prompts", "plan-feature.prompt.md")))
	assert.Equal(t, "instructions", read(t, fsys, p(".github", "copilot-instructions.md")))

	exists, err := afero.DirExists(fsys, p(".github", "agents"))
	require.NoError(t, err)
	assert.False(t, exists, "copilot does not receive agents")
}

func TestSyncSkipsWhenTargetNotOlder(t *testing.T) {
	for name, targetTime := range map[string]time.Time{"same age": t0, "newer": t1} {
		t.Run(name, func(t *testing.T) {
			fsys := seed(t)
			target := p(".claude", "commands", "plan-feature.md")
			write(t, fsys, target, "local edit", targetTime)

			res, err := newEngine(fsys).SyncOne(context.Background(), assistant.ClaudeCode, false)
			require.NoError(t, err)

			op := opFor(t, res, target)
			assert.Equal(t, OutcomeSkip, op.Outcome)
			assert.Equal(t, "target is newer or same age", op.Reason)
			assert.True(t, op.Success)
			assert.Equal(t, "local edit", read(t, fsys, target))
		})
	}
}

func TestSyncCopiesWhenSourceNewer(t *testing.T) {
	fsys := seed(t)
	target := p(".claude", "commands", "plan-feature.md")
	write(t, fsys, target, "stale", t0.Add(-time.Minute))

	res, err := newEngine(fsys).SyncOne(context.Background(), assistant.ClaudeCode, false)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCopy, opFor(t, res, target).Outcome)
	assert.Equal(t, "command", read(t, fsys, target))
}

func TestSyncForceOverwritesNewerTargets(t *testing.T) {
	fsys := seed(t)
	command := p(".claude", "commands", "plan-feature.md")
	instructions := p(".claude", "CLAUDE.md")
	write(t, fsys, command, "local edit", t1)
	write(t, fsys, instructions, "local instructions", t1)

	res, err := newEngine(fsys).SyncOne(context.Background(), assistant.ClaudeCode, true)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, OutcomeCopy, opFor(t, res, command).Outcome)
	assert.Equal(t, OutcomeCopy, opFor(t, res, instructions).Outcome)
	assert.Equal(t, "command", read(t, fsys, command))
	assert.Equal(t, "instructions", read(t, fsys, instructions))
}

func TestSyncAllIsIdempotent(t *testing.T) {
	fsys := seed(t)
	eng := newEngine(fsys)

	first := eng.SyncAll(context.Background(), false)
	require.True(t, first.Success, first.Errors)
	assert.Equal(t, 5, first.FilesCopied)

	second := eng.SyncAll(context.Background(), false)
	assert.True(t, second.Success)
	assert.Equal(t, 0, second.FilesCopied)
	assert.Equal(t, len(second.Operations), second.FilesSkipped)
	for _, op := range second.Operations {
		assert.Equal(t, OutcomeSkip, op.Outcome, op.Target)
	}
}

func TestInstructionIdenticalContentIsSkipped(t *testing.T) {
	fsys := seed(t)
	target := p(".claude", "CLAUDE.md")
	write(t, fsys, target, "instructions", t0.Add(-time.Hour))

	res, err := newEngine(fsys).SyncOne(context.Background(), assistant.ClaudeCode, false)
	require.NoError(t, err)

	op := opFor(t, res, target)
	assert.Equal(t, OutcomeSkip, op.Outcome)
	assert.Equal(t, "files are identical", op.Reason)
	assert.True(t, op.Success)
	assert.True(t, mtime(t, fsys, target).Equal(t0.Add(-time.Hour)), "identical target must not be rewritten")
}

func TestInstructionIdenticalContentIsSkippedWhenForced(t *testing.T) {
	fsys := seed(t)
	target := p(".claude", "CLAUDE.md")
	write(t, fsys, target, "instructions", t1)

	res, err := newEngine(fsys).SyncOne(context.Background(), assistant.ClaudeCode, true)
	require.NoError(t, err)

	assert.Equal(t, "files are identical", opFor(t, res, target).Reason)
}

func TestConsolidateRefusesConflictingInstructions(t *testing.T) {
	fsys := seed(t)
	canonical := p(".rapid", "instructions", "python.md")
	claude := p(".claude", "CLAUDE.md")
	copilot := p(".github", "copilot-instructions.md")
	write(t, fsys, claude, "claude edit", t1)
	write(t, fsys, copilot, "copilot edit", t2)

	res, err := newEngine(fsys).ConsolidateOne(context.Background(), assistant.ClaudeCode, false)
	require.NoError(t, err)

	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], ErrConflict.Error())
	assert.Contains(t, res.Errors[0], filepath.Join(".claude", "CLAUDE.md"))
	assert.Contains(t, res.Errors[0], filepath.Join(".github", "copilot-instructions.md"))

	op := opFor(t, res, canonical)
	assert.Equal(t, OutcomeError, op.Outcome)
	assert.False(t, op.Success)

	assert.Equal(t, "instructions", read(t, fsys, canonical))
	assert.True(t, mtime(t, fsys, canonical).Equal(t0))
}

func TestConsolidateAllReportsConflictForBothAssistants(t *testing.T) {
	fsys := seed(t)
	write(t, fsys, p(".claude", "CLAUDE.md"), "claude edit", t1)
	write(t, fsys, p(".github", "copilot-instructions.md"), "copilot edit", t2)

	res := newEngine(fsys).ConsolidateAll(context.Background(), false)

	assert.False(t, res.Success)
	assert.Len(t, res.Errors, 2)
	assert.Equal(t, "instructions", read(t, fsys, p(".rapid", "instructions", "python.md")))
}

func TestConsolidateCopiesSingleEditedInstruction(t *testing.T) {
	fsys := seed(t)
	canonical := p(".rapid", "instructions", "python.md")
	write(t, fsys, p(".claude", "CLAUDE.md"), "claude edit", t1)
	write(t, fsys, p(".github", "copilot-instructions.md"), "instructions", t0)

	res, err := newEngine(fsys).ConsolidateOne(context.Background(), assistant.ClaudeCode, false)
	require.NoError(t, err)

	assert.True(t, res.Success, res.Errors)
	assert.Equal(t, OutcomeCopy, opFor(t, res, canonical).Outcome)
	assert.Equal(t, "claude edit", read(t, fsys, canonical))
	assert.True(t, mtime(t, fsys, canonical).Equal(t1))
}

func TestConsolidateCopiesAssistantTrees(t *testing.T) {
	fsys := seed(t)
	write(t, fsys, p(".github", "prompts", "new.prompt.md"), "new prompt", t1)
	write(t, fsys, p(".claude", "agents", "python", "python-code-agent.md"), "tuned agent", t1)

	res := newEngine(fsys).ConsolidateAll(context.Background(), false)

	assert.True(t, res.Success, res.Errors)
	assert.Equal(t, "new prompt", read(t, fsys, p(".rapid", "prompts", "new.prompt.md")))
	assert.Equal(t, "tuned agent", read(t, fsys, p(".rapid", "agents", "python", "python-code-agent.md")))
	assert.Equal(t, "prompt", read(t, fsys, p(".rapid", "prompts", "plan-feature.prompt.md")))
}

func TestMissingCanonicalDirectory(t *testing.T) {
	ctx := context.Background()
	entryPoints := map[string]func(*testing.T, *Engine) *Result{
		"SyncOne": func(t *testing.T, e *Engine) *Result {
			res, err := e.SyncOne(ctx, assistant.ClaudeCode, false)
			require.NoError(t, err)
			return res
		},
		"ConsolidateOne": func(t *testing.T, e *Engine) *Result {
			res, err := e.ConsolidateOne(ctx, assistant.GitHubCopilot, false)
			require.NoError(t, err)
			return res
		},
		"SyncAll":        func(_ *testing.T, e *Engine) *Result { return e.SyncAll(ctx, true) },
		"ConsolidateAll": func(_ *testing.T, e *Engine) *Result { return e.ConsolidateAll(ctx, true) },
	}

	for name, run := range entryPoints {
		t.Run(name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			write(t, fsys, p(".claude", "CLAUDE.md"), "orphan", t0)

			res := run(t, newEngine(fsys))

			assert.False(t, res.Success)
			require.Len(t, res.Errors, 1)
			assert.Contains(t, res.Errors[0], ".rapid directory not found")
			assert.Empty(t, res.Operations)
		})
	}
}

func TestCanonicalAssistantIsRejected(t *testing.T) {
	eng := newEngine(seed(t))

	res, err := eng.SyncOne(context.Background(), assistant.RapidOnly, false)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, assistant.ErrCanonicalTarget)

	res, err = eng.ConsolidateOne(context.Background(), assistant.RapidOnly, false)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, assistant.ErrCanonicalTarget)

	_, err = eng.SyncOne(context.Background(), assistant.Name("cursor"), false)
	assert.ErrorIs(t, err, assistant.ErrUnknownAssistant)
}

func TestAmbiguousLanguageIsAnError(t *testing.T) {
	fsys := seed(t)
	write(t, fsys, p(".rapid", "instructions", "angular.md"), "angular", t0)

	res := newEngine(fsys).SyncAll(context.Background(), false)

	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], ErrAmbiguousLanguage.Error())
	assert.Contains(t, res.Errors[0], "angular.md, python.md")
	assert.Equal(t, 3, res.FilesCopied, "trees still sync")

	exists, err := afero.Exists(fsys, p(".claude", "CLAUDE.md"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExplicitLanguageResolvesAmbiguity(t *testing.T) {
	fsys := seed(t)
	write(t, fsys, p(".rapid", "instructions", "angular.md"), "angular", t0)

	eng := New(Options{Fs: fsys, ProjectRoot: root, Language: "angular"})
	res := eng.SyncAll(context.Background(), false)

	assert.True(t, res.Success, res.Errors)
	assert.Equal(t, "angular", read(t, fsys, p(".claude", "CLAUDE.md")))
	assert.Equal(t, "angular", read(t, fsys, p(".github", "copilot-instructions.md")))
}

func TestNoInstructionDocumentWarnsOnce(t *testing.T) {
	fsys := seed(t)
	require.NoError(t, fsys.Remove(p(".rapid", "instructions", "python.md")))

	res := newEngine(fsys).SyncAll(context.Background(), false)

	assert.True(t, res.Success)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "rapid init")
	assert.Equal(t, 3, res.FilesCopied)
}

func TestDryRunWritesNothing(t *testing.T) {
	fsys := seed(t)
	eng := New(Options{Fs: fsys, ProjectRoot: root, DryRun: true})

	res := eng.SyncAll(context.Background(), false)

	assert.True(t, res.Success)
	assert.Equal(t, 5, res.FilesCopied)
	for _, dir := range []string{".claude", ".github"} {
		exists, err := afero.Exists(fsys, p(dir))
		require.NoError(t, err)
		assert.False(t, exists, dir)
	}
}

func TestMissingSourceTreeIsSilent(t *testing.T) {
	fsys := seed(t)
	require.NoError(t, fsys.RemoveAll(p(".rapid", "prompts")))

	res, err := newEngine(fsys).SyncOne(context.Background(), assistant.GitHubCopilot, false)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Operations, 1)
	assert.Equal(t, p(".github", "copilot-instructions.md"), res.Operations[0].Target)
}

// failingFs refuses writes to one path.
type failingFs struct {
	afero.Fs
	path string
}

func (f failingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if name == f.path && flag&os.O_WRONLY != 0 {
		return nil, &os.PathError{Op: "open", Path: name, Err: errors.New("disk on fire")}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func TestCopyFailureDoesNotAbortSiblings(t *testing.T) {
	base := seed(t)
	write(t, base, p(".rapid", "agents", "python", "python-planning-agent.md"), "planner", t0)
	fsys := failingFs{Fs: base, path: p(".claude", "agents", "python", "python-code-agent.md")}

	res, err := newEngine(fsys).SyncOne(context.Background(), assistant.ClaudeCode, false)
	require.NoError(t, err)

	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "failed to sync "+filepath.Join(".rapid", "agents", "python", "python-code-agent.md"))
	assert.Contains(t, res.Errors[0], "disk on fire")

	op := opFor(t, res, p(".claude", "agents", "python", "python-code-agent.md"))
	assert.Equal(t, OutcomeError, op.Outcome)
	assert.Equal(t, "planner", read(t, base, p(".claude", "agents", "python", "python-planning-agent.md")))
	assert.Equal(t, 3, res.FilesCopied)
}

func TestProgressIsReportedPerAssistant(t *testing.T) {
	type call struct {
		msg            string
		current, total int
	}
	var calls []call
	eng := New(Options{
		Fs:          seed(t),
		ProjectRoot: root,
		Progress: func(msg string, current, total int) {
			calls = append(calls, call{msg, current, total})
		},
	})

	eng.SyncAll(context.Background(), false)

	assert.Equal(t, []call{
		{"Syncing to Claude Code", 0, 2},
		{"Syncing to GitHub Copilot", 1, 2},
		{"Update complete", 2, 2},
	}, calls)
}

func TestCancelledContextStopsBetweenAssistants(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newEngine(seed(t)).SyncAll(ctx, false)

	assert.False(t, res.Success)
	assert.Empty(t, res.Operations)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], context.Canceled.Error())
}

func TestResultMerge(t *testing.T) {
	a := &Result{Success: true, FilesCopied: 2, FilesSkipped: 1, Operations: make([]FileOperation, 3)}
	b := &Result{Success: false, FilesCopied: 1, Operations: make([]FileOperation, 2), Errors: []string{"boom"}, Warnings: []string{"careful"}}

	a.Merge(b)

	assert.False(t, a.Success)
	assert.Equal(t, 3, a.FilesCopied)
	assert.Equal(t, 1, a.FilesSkipped)
	assert.Len(t, a.Operations, 5)
	assert.Equal(t, []string{"boom"}, a.Errors)
	assert.Equal(t, []string{"careful"}, a.Warnings)
}

func TestFileOperationRelativePaths(t *testing.T) {
	op := FileOperation{Source: p(".rapid", "commands", "a.md"), Target: "/elsewhere/a.md"}
	assert.Equal(t, filepath.Join(".rapid", "commands", "a.md"), op.RelativeSource(root))
	assert.Equal(t, "/elsewhere/a.md", op.RelativeTarget(root))
}

func TestDetectLanguage(t *testing.T) {
	fsys := seed(t)
	lang, err := DetectLanguage(fsys, root)
	require.NoError(t, err)
	assert.Equal(t, "python", lang)

	write(t, fsys, p(".rapid", "instructions", "generic.md"), "generic", t0)
	_, err = DetectLanguage(fsys, root)
	assert.ErrorIs(t, err, ErrAmbiguousLanguage)

	lang, err = DetectLanguage(afero.NewMemMapFs(), root)
	require.NoError(t, err)
	assert.Empty(t, lang)
}
