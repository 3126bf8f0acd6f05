package status

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rapid-labs/rapid/internal/assistant"
	"github.com/rapid-labs/rapid/internal/branding"
	"github.com/rapid-labs/rapid/internal/syncer"
	"github.com/spf13/afero"
)

// StaleLogAge is how old a log file must be before it is suggested for cleanup.
const StaleLogAge = 30 * 24 * time.Hour

// Entry is one top-level item of the canonical directory.
type Entry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	// Files counts regular files below a directory, recursively.
	Files int `json:"files"`
}

// LogFile is a *.log file in the canonical directory.
type LogFile struct {
	Name string
	Age  time.Duration
}

// Report describes a project's installation.
type Report struct {
	ProjectRoot string
	Initialized bool
	Entries     []Entry
	Agents      int
	Commands    int
	Prompts     int
	// Assistants lists non-canonical assistants whose base directory exists.
	Assistants []assistant.Profile
	Language   string
	LogFiles   []LogFile
	Issues     []string
	// Suggestions are advisory and never make a report unhealthy.
	Suggestions []string
}

// Healthy reports whether the project is initialized with no issues.
func (r *Report) Healthy() bool {
	return r.Initialized && len(r.Issues) == 0
}

// Options configures Inspect.
type Options struct {
	Fs          afero.Fs
	ProjectRoot string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Inspect builds a Report for opts.ProjectRoot. An uninitialized project is
// not an error; the report says so.
func Inspect(opts Options) (*Report, error) {
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	r := &Report{ProjectRoot: opts.ProjectRoot}
	canonical := assistant.CanonicalDirIn(opts.ProjectRoot)
	ok, err := afero.DirExists(fsys, canonical)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", canonical, err)
	}
	if !ok {
		return r, nil
	}
	r.Initialized = true

	entries, err := afero.ReadDir(fsys, canonical)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", canonical, err)
	}
	for _, info := range entries {
		e := Entry{Name: info.Name(), IsDir: info.IsDir()}
		if e.IsDir {
			e.Files = countFiles(fsys, filepath.Join(canonical, e.Name), "")
		} else if strings.HasSuffix(e.Name, ".log") {
			r.LogFiles = append(r.LogFiles, LogFile{Name: e.Name, Age: now().Sub(info.ModTime())})
		}
		r.Entries = append(r.Entries, e)
	}
	sort.Slice(r.Entries, func(i, j int) bool { return r.Entries[i].Name < r.Entries[j].Name })

	r.Agents = countFiles(fsys, filepath.Join(canonical, assistant.AgentsDir), ".md")
	r.Commands = countFiles(fsys, filepath.Join(canonical, assistant.CommandsDir), ".md")
	r.Prompts = countFiles(fsys, filepath.Join(canonical, assistant.PromptsDir), ".md")

	for _, p := range assistant.Targets() {
		if ok, _ := afero.DirExists(fsys, filepath.Join(opts.ProjectRoot, p.BaseDir)); ok {
			r.Assistants = append(r.Assistants, p)
		}
	}

	r.Language, err = syncer.DetectLanguage(fsys, opts.ProjectRoot)
	switch {
	case errors.Is(err, syncer.ErrAmbiguousLanguage):
		r.Issues = append(r.Issues, err.Error())
	case err != nil:
		return nil, err
	case r.Language == "":
		r.Issues = append(r.Issues, "No instruction document in "+filepath.Join(branding.CanonicalDir(), assistant.InstructionsDir))
	}

	r.checkEmpty(fsys, canonical)
	for _, lf := range r.LogFiles {
		if lf.Age > StaleLogAge {
			r.Suggestions = append(r.Suggestions,
				fmt.Sprintf("Old log file: %s (%d days old)", lf.Name, int(lf.Age.Hours()/24)))
		}
	}
	return r, nil
}

func (r *Report) checkEmpty(fsys afero.Fs, canonical string) {
	for _, sub := range []string{assistant.AgentsDir, assistant.CommandsDir} {
		dir := filepath.Join(canonical, sub)
		ok, _ := afero.DirExists(fsys, dir)
		if !ok {
			r.Issues = append(r.Issues, fmt.Sprintf("Missing %s directory", filepath.Join(branding.CanonicalDir(), sub)))
			continue
		}
		if empty, _ := afero.IsEmpty(fsys, dir); empty {
			r.Issues = append(r.Issues, fmt.Sprintf("%s directory is empty", strings.ToUpper(sub[:1])+sub[1:]))
		}
	}
}

// countFiles counts regular files under dir whose names end in suffix.
func countFiles(fsys afero.Fs, dir, suffix string) int {
	n := 0
	_ = afero.Walk(fsys, dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() && strings.HasSuffix(info.Name(), suffix) {
			n++
		}
		return nil
	})
	return n
}

// MissingDirs lists canonical subdirectories that do not exist.
func MissingDirs(fsys afero.Fs, projectRoot string) []string {
	canonical := assistant.CanonicalDirIn(projectRoot)
	var missing []string
	for _, sub := range []string{assistant.AgentsDir, assistant.CommandsDir, assistant.PromptsDir, assistant.InstructionsDir} {
		dir := filepath.Join(canonical, sub)
		if ok, _ := afero.DirExists(fsys, dir); !ok {
			missing = append(missing, dir)
		}
	}
	return missing
}

// Fix creates missing canonical subdirectories of an initialized project and
// returns the ones it created.
func Fix(fsys afero.Fs, projectRoot string) ([]string, error) {
	if ok, _ := afero.DirExists(fsys, assistant.CanonicalDirIn(projectRoot)); !ok {
		return nil, syncer.ErrCanonicalMissing
	}
	var created []string
	for _, dir := range MissingDirs(fsys, projectRoot) {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return created, fmt.Errorf("creating %s: %w", dir, err)
		}
		created = append(created, dir)
	}
	return created, nil
}
