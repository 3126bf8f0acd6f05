package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rapid-labs/rapid/internal/assistant"
	"github.com/rapid-labs/rapid/internal/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points $HOME at a temp dir and returns (home, project).
func isolate(t *testing.T) (string, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home, t.TempDir()
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadDefaults(t *testing.T) {
	_, project := isolate(t)

	s, err := Load(project)
	require.NoError(t, err)
	assert.Equal(t, "python", s.Language)
	assert.Equal(t, []string{"claude_code", "rapid_only"}, s.Assistants)
	assert.False(t, s.Verbose)
	assert.Equal(t, "info", s.LogLevel)
	assert.Empty(t, s.TemplatesDir)
}

func TestLoadLayering(t *testing.T) {
	home, project := isolate(t)

	write(t, filepath.Join(home, ".rapidrc.yaml"), "defaults:\n  language: angular\n  verbose: true\nlog:\n  level: debug\n")
	write(t, filepath.Join(project, ".rapidrc.yaml"), "defaults:\n  language: generic\n")

	s, err := Load(project)
	require.NoError(t, err)
	assert.Equal(t, "generic", s.Language, "project file overrides global")
	assert.True(t, s.Verbose, "global value survives when project omits it")
	assert.Equal(t, "debug", s.LogLevel)

	t.Setenv("RAPID_DEFAULTS_LANGUAGE", "see-sharp")
	s, err = Load(project)
	require.NoError(t, err)
	assert.Equal(t, "see-sharp", s.Language, "environment overrides files")
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	_, project := isolate(t)
	write(t, filepath.Join(project, ".rapidrc.yaml"), "defaults: [unterminated\n")

	_, err := Load(project)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestSetGetReset(t *testing.T) {
	_, project := isolate(t)
	path := ProjectPath(project)

	require.NoError(t, Set(path, KeyLanguage, "angular"))
	require.NoError(t, Set(path, KeyAssistants, []string{"github_copilot", "rapid_only"}))

	raw, err := ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, raw, "defaults")

	lang, err := Get(project, KeyLanguage)
	require.NoError(t, err)
	assert.Equal(t, "angular", lang)

	assistants, err := Get(project, KeyAssistants)
	require.NoError(t, err)
	assert.Equal(t, "github_copilot,rapid_only", assistants)

	removed, err := Reset(path)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = Reset(path)
	require.NoError(t, err)
	assert.False(t, removed)

	lang, err = Get(project, KeyLanguage)
	require.NoError(t, err)
	assert.Equal(t, "python", lang)
}

func TestReadFileMissing(t *testing.T) {
	_, project := isolate(t)

	raw, err := ReadFile(ProjectPath(project))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestPath(t *testing.T) {
	home, project := isolate(t)

	assert.Equal(t, filepath.Join(home, ".rapidrc.yaml"), Path(true, project))
	assert.Equal(t, filepath.Join(project, ".rapidrc.yaml"), Path(false, project))
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		raw     string
		want    any
		wantErr error
	}{
		{"language", KeyLanguage, "Angular", "angular", nil},
		{"unknown language", KeyLanguage, "cobol", nil, templates.ErrUnknownLanguage},
		{"assistants", KeyAssistants, "claude-code, github-copilot", []string{"claude_code", "github_copilot"}, nil},
		{"unknown assistant", KeyAssistants, "claude-code,vim", nil, assistant.ErrUnknownAssistant},
		{"verbose", KeyVerbose, "true", true, nil},
		{"log level", KeyLogLevel, "WARN", "warn", nil},
		{"unknown key", "defaults.color", "blue", nil, ErrUnknownKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.key, tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []struct{ key, raw string }{
		{KeyAssistants, " , "},
		{KeyVerbose, "maybe"},
		{KeyLogLevel, "loud"},
	} {
		_, err := ParseValue(bad.key, bad.raw)
		assert.Error(t, err, "%s=%q", bad.key, bad.raw)
	}

	dir, err := ParseValue(KeyTemplatesDir, "tmpl")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir.(string)))
}
