package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/rapid-labs/rapid/internal/assistant"
	"github.com/spf13/afero"
)

// CatalogFile is the catalog's name at the root of a template tree.
const CatalogFile = "catalog.yaml"

//go:embed files
var embedded embed.FS

// Source is a template tree plus its catalog. Paths inside FS are
// slash-separated and relative to the tree root: agents/<language>/<file>, commands/<file>,
// prompts/<file>, instructions/<file>.
type Source struct {
	FS      afero.Fs
	Catalog *Catalog
	// Location describes where the tree lives, for messages.
	Location string
}

// Embedded returns the template tree compiled into the binary.
func Embedded() (*Source, error) {
	sub, err := fs.Sub(embedded, "files")
	if err != nil {
		return nil, fmt.Errorf("opening embedded templates: %w", err)
	}
	return newSource(afero.FromIOFS{FS: sub}, "embedded templates")
}

// Open returns the on-disk template tree rooted at dir. The tree must carry
// its own catalog.yaml.
func Open(dir string) (*Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening template directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template path %s is not a directory", dir)
	}
	return newSource(afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), dir)), dir)
}

// Load picks the on-disk tree when dir is set and the embedded tree otherwise.
func Load(dir string) (*Source, error) {
	if dir == "" {
		return Embedded()
	}
	return Open(dir)
}

// NewSource wraps an arbitrary filesystem, reading catalog.yaml from its root.
func NewSource(fsys afero.Fs, location string) (*Source, error) {
	return newSource(fsys, location)
}

func newSource(fsys afero.Fs, location string) (*Source, error) {
	data, err := afero.ReadFile(fsys, CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s from %s: %w", CatalogFile, location, err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	return &Source{FS: fsys, Catalog: c, Location: location}, nil
}

// AgentsRoot is the tree-relative agents directory; its presence is the
// initializer's "template tree exists" precondition.
func (s *Source) AgentsRoot() string {
	return assistant.AgentsDir
}

// Exists reports whether the agents directory of the tree is present.
func (s *Source) Exists() bool {
	ok, err := afero.DirExists(s.FS, s.AgentsRoot())
	return err == nil && ok
}

// AgentFiles returns tree-relative paths of lang's agent templates.
func (s *Source) AgentFiles(lang Language) ([]string, error) {
	t, err := s.Catalog.For(lang)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.Agents))
	for i, name := range t.Agents {
		out[i] = path.Join(assistant.AgentsDir, string(lang), name)
	}
	return out, nil
}

// HasAgentTemplates reports whether lang has at least one agent template.
func (s *Source) HasAgentTemplates(lang Language) bool {
	t, err := s.Catalog.For(lang)
	return err == nil && len(t.Agents) > 0
}

// InstructionFile returns the tree-relative path of lang's instruction
// document and its file name.
func (s *Source) InstructionFile(lang Language) (file, name string, err error) {
	t, err := s.Catalog.For(lang)
	if err != nil {
		return "", "", err
	}
	if t.Instructions == "" {
		return "", "", fmt.Errorf("no instruction template defined for %s", lang)
	}
	return path.Join(assistant.InstructionsDir, t.Instructions), t.Instructions, nil
}

// CommandFiles lists every *.md template under subdir ("commands" or
// "prompts"), sorted by name. A missing subdir yields no files.
func (s *Source) CommandFiles(subdir string) ([]string, error) {
	entries, err := afero.ReadDir(s.FS, subdir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s templates: %w", subdir, err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		out = append(out, path.Join(subdir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
