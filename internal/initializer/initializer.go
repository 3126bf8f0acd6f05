package initializer

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/rapid-labs/rapid/internal/assistant"
	"github.com/rapid-labs/rapid/internal/fsutil"
	"github.com/rapid-labs/rapid/internal/logging"
	"github.com/rapid-labs/rapid/internal/templates"
	"github.com/spf13/afero"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// DefaultAttempts is how many times a single copy is tried.
	DefaultAttempts = 3
	// DefaultRetryDelay separates copy attempts.
	DefaultRetryDelay = 500 * time.Millisecond
	// MinFreeBytes is the free disk space required before writing.
	MinFreeBytes = 10 * 1024 * 1024
)

var printer = message.NewPrinter(language.English)

// ProgressFunc receives coarse progress, once per assistant.
type ProgressFunc func(message string, current, total int)

// Options configures an Initializer.
type Options struct {
	// Fs defaults to the OS filesystem.
	Fs          afero.Fs
	ProjectRoot string
	Templates   *templates.Source
	DryRun      bool
	// Force runs even when environment validation fails.
	Force bool
	// CLIVersion is checked against the catalog's requires constraint.
	CLIVersion string
	Logger     *logging.Logger
}

// Initializer copies templates into a project.
type Initializer struct {
	fs        afero.Fs
	root      string
	canonical string
	tmpl      *templates.Source
	dryRun    bool
	force     bool
	version   string
	log       *logging.Logger

	// Attempts and RetryDelay control per-file retries.
	Attempts   int
	RetryDelay time.Duration
	// FreeSpace reports free bytes on the volume holding a path.
	FreeSpace func(path string) (uint64, error)
	// Now stamps copies of templates that carry no modification time.
	Now func() time.Time
}

// New creates an Initializer for opts.ProjectRoot.
func New(opts Options) *Initializer {
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Initializer{
		fs:         fsys,
		root:       opts.ProjectRoot,
		canonical:  assistant.CanonicalDirIn(opts.ProjectRoot),
		tmpl:       opts.Templates,
		dryRun:     opts.DryRun,
		force:      opts.Force,
		version:    opts.CLIVersion,
		log:        log.Sub("initializer"),
		Attempts:   DefaultAttempts,
		RetryDelay: DefaultRetryDelay,
		FreeSpace:  fsutil.FreeSpace,
		Now:        time.Now,
	}
}

// run holds the state of one Initialize call. Every embedded template copied
// during the run gets stamp as its modification time, so a fresh project
// syncs as unchanged.
type run struct {
	ctx     context.Context
	cfg     *Config
	journal *journal
	result  *Result
	stamp   time.Time
	// docWritten is set once the canonical instruction document is copied.
	docWritten bool
}

// Initialize installs templates for lang into the project for every
// assistant, plus the canonical one. A Go error is returned only for an
// invalid request; everything else is reported in the Result.
func (in *Initializer) Initialize(ctx context.Context, lang templates.Language, assistants []assistant.Name, progress ProgressFunc) (*Result, error) {
	if in.tmpl == nil {
		return nil, errors.New("no template source configured")
	}
	cfg, err := NewConfig(in.fs, lang, assistants, in.root)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(string, int, int) {}
	}

	in.log.Info().
		Str("language", string(cfg.Language)).
		Strs("assistants", names(cfg.Assistants)).
		Bool("dry_run", in.dryRun).
		Msg("starting initialization")

	if ok, issues := in.ValidateEnvironment(); !ok {
		if !in.force {
			for _, issue := range issues {
				in.log.Error().Msg(issue)
			}
			return &Result{Success: false, Errors: issues}, nil
		}
		in.log.Warn().Strs("issues", issues).Msg("environment validation failed, continuing because of --force")
	}

	r := &run{
		ctx:     ctx,
		cfg:     cfg,
		journal: newJournal(in.fs),
		result:  &Result{Success: true},
		stamp:   in.Now(),
	}

	if in.version != "" {
		if err := in.tmpl.Catalog.CheckCompatibility(in.version); err != nil {
			r.result.addWarning(err.Error())
		}
	}

	if err := in.ensureCanonical(r); err != nil {
		r.result.Errors = append(r.result.Errors, err.Error())
	} else {
		total := len(cfg.Assistants)
		for i, name := range cfg.Assistants {
			if err := ctx.Err(); err != nil {
				r.result.Errors = append(r.result.Errors, fmt.Sprintf("initialization stopped: %v", err))
				break
			}
			p, _ := assistant.Lookup(name)
			progress("Configuring "+p.DisplayName, i, total)
			in.installFor(r, p)
		}
		progress("Initialization complete", total, total)
	}

	return in.finish(r), nil
}

func (in *Initializer) finish(r *run) *Result {
	res := r.result
	for _, op := range res.Operations {
		if op.Success {
			res.FilesCopied++
		} else if op.Error != "" {
			res.Errors = append(res.Errors, op.Error)
		}
	}
	res.DirectoriesCreated = r.journal.dirs()
	res.Success = len(res.Errors) == 0

	if !res.Success && !in.dryRun {
		in.log.Warn().Int("entries", len(r.journal.entries)).Msg("rolling back")
		for _, err := range r.journal.rollback() {
			in.log.Error().Err(err).Msg("rollback step failed")
		}
		res.RolledBack = true
	}

	in.log.Info().
		Bool("success", res.Success).
		Int("files_copied", res.FilesCopied).
		Int("directories_created", res.DirectoriesCreated).
		Int("errors", len(res.Errors)).
		Msg("initialization finished")
	return res
}

// ensureCanonical creates .rapid and its fixed subdirectories.
func (in *Initializer) ensureCanonical(r *run) error {
	for _, sub := range []string{"", assistant.AgentsDir, assistant.CommandsDir, assistant.PromptsDir, assistant.InstructionsDir} {
		if err := in.ensureDir(r, filepath.Join(in.canonical, sub)); err != nil {
			return err
		}
	}
	return nil
}

// ensureDir creates dir and any missing parents, journaling each one.
func (in *Initializer) ensureDir(r *run, dir string) error {
	if in.dryRun {
		return nil
	}
	var missing []string
	for d := dir; ; d = filepath.Dir(d) {
		ok, err := afero.DirExists(in.fs, d)
		if err != nil {
			return fmt.Errorf("checking %s: %w", d, err)
		}
		if ok || d == filepath.Dir(d) {
			break
		}
		missing = append(missing, d)
	}
	for i := len(missing) - 1; i >= 0; i-- {
		if err := in.fs.Mkdir(missing[i], 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", missing[i], err)
		}
		r.journal.recordDir(missing[i])
		in.log.Debug().Str("path", missing[i]).Msg("created directory")
	}
	return nil
}

func (in *Initializer) installFor(r *run, p assistant.Profile) {
	if p.SyncsAgents() {
		in.installAgents(r, p)
	}
	if p.CopyCommands {
		in.installCommands(r, p)
	}
	in.installInstructions(r, p)
}

func (in *Initializer) installAgents(r *run, p assistant.Profile) {
	lang := r.cfg.Language
	files, err := in.tmpl.AgentFiles(lang)
	if err != nil {
		r.result.Errors = append(r.result.Errors, err.Error())
		return
	}
	if len(files) == 0 {
		r.result.addWarning(fmt.Sprintf("%s has no agent templates yet; commands and instructions were installed without agents", lang.DisplayName()))
		return
	}

	agentsDir, _ := p.AgentsDirIn(in.root)
	for _, src := range files {
		dst := filepath.Join(agentsDir, string(lang), path.Base(src))
		in.copy(r, src, dst, CategoryAgent, p.Name)
	}
}

// installCommands copies the full command set into the canonical directory
// and then into the assistant's own directory.
func (in *Initializer) installCommands(r *run, p assistant.Profile) {
	subdir := p.CanonicalCommandsSubdir()
	files, err := in.tmpl.CommandFiles(subdir)
	if err != nil {
		r.result.Errors = append(r.result.Errors, err.Error())
		return
	}

	canonicalDir := filepath.Join(in.canonical, subdir)
	for _, src := range files {
		in.copy(r, src, filepath.Join(canonicalDir, path.Base(src)), CategoryCommand, p.Name)
	}

	assistantDir := p.CommandsDirIn(in.root)
	if assistantDir == canonicalDir {
		return
	}
	for _, src := range files {
		in.copy(r, src, filepath.Join(assistantDir, path.Base(src)), CategoryCommand, p.Name)
	}
}

// installInstructions copies the language's instruction document into the
// canonical instructions directory, unless one is already there, and then to
// the assistant's instructions file.
func (in *Initializer) installInstructions(r *run, p assistant.Profile) {
	if !p.SyncsInstructions() && !p.IsCanonical() {
		return
	}
	src, name, err := in.tmpl.InstructionFile(r.cfg.Language)
	if err != nil {
		r.result.addWarning(err.Error())
		return
	}

	stamp := r.stamp
	canonicalDoc := filepath.Join(in.canonical, assistant.InstructionsDir, name)
	switch {
	case in.dryRun || (!r.docWritten && !fsutil.IsFile(in.fs, canonicalDoc)):
		in.copy(r, src, canonicalDoc, CategoryInstruction, p.Name)
		r.docWritten = true
	case r.docWritten:
	default:
		in.log.Debug().Str("path", canonicalDoc).Msg("canonical instruction document already present")
		// The kept canonical document must stay newer than the fresh
		// assistant copy, so the next sync refreshes the assistant file.
		if mtime, err := fsutil.ModTime(in.fs, canonicalDoc); err == nil && !mtime.After(stamp) {
			stamp = mtime.Add(-time.Second)
		}
	}

	if dst, ok := p.InstructionsPathIn(in.root); ok && p.SyncsInstructions() {
		in.copyAt(r, src, dst, CategoryInstruction, p.Name, stamp)
	}
}

func (in *Initializer) copy(r *run, src, dst string, cat Category, owner assistant.Name) {
	in.copyAt(r, src, dst, cat, owner, r.stamp)
}

// copyAt installs one template file, retrying transient failures. A missing
// template fails at once. Templates without a modification time are stamped
// with stamp.
func (in *Initializer) copyAt(r *run, src, dst string, cat Category, owner assistant.Name, stamp time.Time) {
	op := CopyOperation{Source: src, Destination: dst, Category: cat, Assistant: owner}
	defer func() { r.result.Operations = append(r.result.Operations, op) }()

	if !fsutil.IsFile(in.tmpl.FS, src) {
		op.Error = fmt.Sprintf("template not found: %s", src)
		in.log.Error().Str("source", src).Msg("template not found")
		return
	}
	if in.dryRun {
		op.Success = true
		in.log.Info().Str("source", src).Str("destination", dst).Msg("dry run: would copy")
		return
	}

	if err := in.ensureDir(r, filepath.Dir(dst)); err != nil {
		op.Error = err.Error()
		return
	}
	if err := r.journal.recordWrite(dst); err != nil {
		op.Error = err.Error()
		return
	}

	attempts := max(in.Attempts, 1)
	var err error
retry:
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fsutil.CopyFileAt(in.tmpl.FS, src, in.fs, dst, stamp); err == nil {
			break
		}
		if attempt < attempts {
			in.log.Warn().Err(err).Int("attempt", attempt).Str("destination", dst).Msg("copy failed, retrying")
			select {
			case <-r.ctx.Done():
				err = r.ctx.Err()
				break retry
			case <-time.After(in.RetryDelay):
			}
		}
	}
	if err != nil {
		op.Error = fmt.Sprintf("copying %s to %s: %v", src, fsutil.RelativeTo(in.root, dst), err)
		in.log.Error().Err(err).Int("attempts", attempts).Str("destination", dst).Msg("copy failed")
		return
	}

	op.Success = true
	in.log.Info().Str("source", src).Str("destination", dst).Msg("copied")
}

// ValidateEnvironment checks the preconditions for writing into the project
// and returns one message per violation.
func (in *Initializer) ValidateEnvironment() (bool, []string) {
	var issues []string

	info, err := in.fs.Stat(in.root)
	switch {
	case err != nil:
		issues = append(issues, fmt.Sprintf("project directory does not exist: %s", in.root))
	case !info.IsDir():
		issues = append(issues, fmt.Sprintf("project path is not a directory: %s", in.root))
	default:
		if err := fsutil.ProbeWritable(in.fs, in.root); err != nil {
			issues = append(issues, fmt.Sprintf("no write permission in project directory: %v", err))
		}
		if issue := in.checkDiskSpace(); issue != "" {
			issues = append(issues, issue)
		}
	}

	if in.tmpl == nil || !in.tmpl.Exists() {
		location := "<none>"
		if in.tmpl != nil {
			location = in.tmpl.Location
		}
		issues = append(issues, fmt.Sprintf("templates directory not found in %s", location))
	}

	return len(issues) == 0, issues
}

func (in *Initializer) checkDiskSpace() string {
	if in.FreeSpace == nil {
		return ""
	}
	free, err := in.FreeSpace(in.root)
	if errors.Is(err, errors.ErrUnsupported) {
		return ""
	}
	if err != nil {
		return fmt.Sprintf("could not check disk space: %v", err)
	}
	if free < MinFreeBytes {
		return printer.Sprintf("insufficient disk space: %.1f MB available, %d MB required",
			float64(free)/(1024*1024), MinFreeBytes/(1024*1024))
	}
	return ""
}

func names(list []assistant.Name) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = string(n)
	}
	return out
}
