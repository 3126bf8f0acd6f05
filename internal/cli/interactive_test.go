package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/rapid-labs/rapid/internal/assistant"
	"github.com/rapid-labs/rapid/internal/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reader(input string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(input))
}

func TestSelectFromList(t *testing.T) {
	items := []string{"alpha", "beta", "gamma"}

	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"explicit choice", "3\n", 2, false},
		{"default on empty line", "\n", 1, false},
		{"last line without newline", "1", 0, false},
		{"out of range", "4\n", 0, true},
		{"not a number", "beta\n", 0, true},
		{"no input", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := selectFromList(reader(tt.input), &out, "Pick one:", items, 1)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "  2) beta")
			assert.Contains(t, out.String(), "(default 2)")
		})
	}
}

func TestSelectMany(t *testing.T) {
	items := []string{"alpha", "beta", "gamma"}

	got, err := selectMany(reader("3, 1,3\n"), &bytes.Buffer{}, "Pick:", items, []int{0})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, got)

	got, err = selectMany(reader("\n"), &bytes.Buffer{}, "Pick:", items, []int{0, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, got)

	_, err = selectMany(reader("1,9\n"), &bytes.Buffer{}, "Pick:", items, nil)
	assert.Error(t, err)
}

func TestConfirm(t *testing.T) {
	for input, want := range map[string]bool{
		"\n":    true,
		"y\n":   true,
		"YES\n": true,
		"n\n":   false,
		"no\n":  false,
	} {
		got, err := confirm(reader(input), &bytes.Buffer{}, "Proceed?")
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
	}

	_, err := confirm(reader(""), &bytes.Buffer{}, "Proceed?")
	assert.Error(t, err)
}

func TestPromptInitUsesDefaults(t *testing.T) {
	def := initSelection{
		Language:   templates.Python,
		Assistants: []assistant.Name{assistant.ClaudeCode, assistant.RapidOnly},
	}

	var out bytes.Buffer
	sel, err := promptInit(reader("\n\n"), &out, def)
	require.NoError(t, err)
	assert.Equal(t, templates.Python, sel.Language)
	assert.Equal(t, def.Assistants, sel.Assistants)
	assert.Contains(t, out.String(), "(default 2)")
	assert.Contains(t, out.String(), "(default 1,3)")
}

func TestPromptInitSelections(t *testing.T) {
	sel, err := promptInit(reader("4\n2,1\n"), &bytes.Buffer{}, initSelection{Language: templates.Python})
	require.NoError(t, err)
	assert.Equal(t, templates.SeeSharp, sel.Language)
	assert.Equal(t, []assistant.Name{assistant.GitHubCopilot, assistant.ClaudeCode}, sel.Assistants)
}
