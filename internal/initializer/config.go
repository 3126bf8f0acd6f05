package initializer

import (
	"errors"
	"fmt"

	"github.com/rapid-labs/rapid/internal/assistant"
	"github.com/rapid-labs/rapid/internal/templates"
	"github.com/spf13/afero"
)

// ErrNoAssistants is returned when no assistant was selected.
var ErrNoAssistants = errors.New("at least one assistant must be selected")

// Config is a validated initialization request. The canonical assistant is
// always present in Assistants.
type Config struct {
	Language    templates.Language
	Assistants  []assistant.Name
	ProjectPath string
}

// NewConfig validates the request and appends the canonical assistant when
// it is missing.
func NewConfig(fsys afero.Fs, lang templates.Language, assistants []assistant.Name, projectPath string) (*Config, error) {
	if _, err := templates.ParseLanguage(string(lang)); err != nil {
		return nil, err
	}
	if len(assistants) == 0 {
		return nil, ErrNoAssistants
	}
	for _, name := range assistants {
		if _, err := assistant.Lookup(name); err != nil {
			return nil, err
		}
	}

	info, err := fsys.Stat(projectPath)
	if err != nil {
		return nil, fmt.Errorf("project path does not exist: %s", projectPath)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path is not a directory: %s", projectPath)
	}

	return &Config{
		Language:    lang,
		Assistants:  assistant.EnsureCanonical(assistants),
		ProjectPath: projectPath,
	}, nil
}
