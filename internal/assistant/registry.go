package assistant

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rapid-labs/rapid/internal/branding"
)

// Name identifies a supported assistant integration.
type Name string

const (
	ClaudeCode    Name = "claude_code"
	GitHubCopilot Name = "github_copilot"
	RapidOnly     Name = "rapid_only"
)

// Subdirectories of the canonical directory.
const (
	AgentsDir       = "agents"
	CommandsDir     = "commands"
	PromptsDir      = "prompts"
	InstructionsDir = "instructions"
)

var (
	// ErrUnknownAssistant is returned for names that have no profile.
	ErrUnknownAssistant = errors.New("unknown assistant")
	// ErrCanonicalTarget is returned when the canonical store is used as a
	// synchronization target or consolidation source.
	ErrCanonicalTarget = errors.New("the canonical directory cannot be a sync target or source")
)

// Profile describes an assistant's on-disk layout and which template
// categories it receives.
type Profile struct {
	Name             Name
	DisplayName      string
	Description      string
	BaseDir          string
	AgentsPath       string // empty: the assistant does not receive agents
	CommandsPath     string
	InstructionsFile string // empty: no single instructions file
	CopyAgents       bool
	CopyCommands     bool
	CopyInstructions bool
}

// order fixes iteration order for All and Targets.
var order = []Name{ClaudeCode, GitHubCopilot, RapidOnly}

// profiles is the immutable profile table indexed by Name.
var profiles = map[Name]Profile{
	ClaudeCode: {
		Name:             ClaudeCode,
		DisplayName:      "Claude Code",
		Description:      "Anthropic's Claude AI coding assistant",
		BaseDir:          ".claude",
		AgentsPath:       "agents",
		CommandsPath:     "commands",
		InstructionsFile: "CLAUDE.md",
		CopyAgents:       true,
		CopyCommands:     true,
		CopyInstructions: true,
	},
	GitHubCopilot: {
		Name:             GitHubCopilot,
		DisplayName:      "GitHub Copilot",
		Description:      "GitHub's AI pair programmer",
		BaseDir:          ".github",
		CommandsPath:     "prompts",
		InstructionsFile: "copilot-instructions.md",
		CopyCommands:     true,
		CopyInstructions: true,
	},
	RapidOnly: {
		Name:         RapidOnly,
		DisplayName:  branding.CanonicalDir() + " only",
		Description:  "Basic " + branding.DisplayName() + " framework files only",
		BaseDir:      branding.CanonicalDir(),
		AgentsPath:   AgentsDir,
		CommandsPath: CommandsDir,
		CopyAgents:   true,
		CopyCommands: true,
	},
}

// aliases are the short names accepted by `update --agent`.
var aliases = map[string]Name{
	"claude":  ClaudeCode,
	"copilot": GitHubCopilot,
}

// All returns every assistant name, canonical last.
func All() []Name {
	return append([]Name(nil), order...)
}

// Lookup returns the profile for name.
func Lookup(name Name) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownAssistant, string(name))
	}
	return p, nil
}

// Targets returns every profile except the canonical one.
func Targets() []Profile {
	var out []Profile
	for _, n := range order {
		if p := profiles[n]; !p.IsCanonical() {
			out = append(out, p)
		}
	}
	return out
}

// Parse converts user input such as "claude-code" or "github_copilot" to a Name.
func Parse(s string) (Name, error) {
	n := Name(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if _, ok := profiles[n]; !ok {
		return "", fmt.Errorf("%w: %q (valid: %s)", ErrUnknownAssistant, s, strings.Join(CLINames(), ", "))
	}
	return n, nil
}

// ParseList parses each entry with Parse.
func ParseList(items []string) ([]Name, error) {
	out := make([]Name, 0, len(items))
	for _, s := range items {
		n, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// ResolveAlias resolves an `update --agent` value. "all" (or empty) reports
// all=true. Full assistant names are accepted as well as the short aliases.
func ResolveAlias(s string) (name Name, all bool, err error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" || key == "all" {
		return "", true, nil
	}
	if n, ok := aliases[key]; ok {
		return n, false, nil
	}
	n, err := Parse(key)
	if err != nil {
		return "", false, fmt.Errorf("%w: %q (available: %s)", ErrUnknownAssistant, s, strings.Join(AliasNames(), ", "))
	}
	return n, false, nil
}

// AliasNames lists the accepted short aliases, including "all".
func AliasNames() []string {
	return []string{"claude", "copilot", "all"}
}

// CLINames lists assistant names in their dashed CLI form.
func CLINames() []string {
	out := make([]string, 0, len(order))
	for _, n := range order {
		out = append(out, n.CLIName())
	}
	return out
}

// CLIName returns the dashed form, e.g. "claude-code".
func (n Name) CLIName() string {
	return strings.ReplaceAll(string(n), "_", "-")
}

// EnsureCanonical returns names without duplicates and with RapidOnly
// appended when absent.
func EnsureCanonical(names []Name) []Name {
	seen := make(map[Name]bool, len(names)+1)
	out := make([]Name, 0, len(names)+1)
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	if !seen[RapidOnly] {
		out = append(out, RapidOnly)
	}
	return out
}

// IsCanonical reports whether p is the canonical store itself.
func (p Profile) IsCanonical() bool {
	return p.Name == RapidOnly
}

// AgentsDirIn returns <root>/<base>/<agents>, or false when the assistant has
// no agents directory.
func (p Profile) AgentsDirIn(root string) (string, bool) {
	if p.AgentsPath == "" {
		return "", false
	}
	return filepath.Join(root, p.BaseDir, p.AgentsPath), true
}

// CommandsDirIn returns <root>/<base>/<commands>.
func (p Profile) CommandsDirIn(root string) string {
	return filepath.Join(root, p.BaseDir, p.CommandsPath)
}

// InstructionsPathIn returns <root>/<base>/<instructions file>, or false when
// the assistant has none.
func (p Profile) InstructionsPathIn(root string) (string, bool) {
	if p.InstructionsFile == "" {
		return "", false
	}
	return filepath.Join(root, p.BaseDir, p.InstructionsFile), true
}

// CanonicalCommandsSubdir is the canonical subdirectory mirrored by this
// assistant's commands directory: "prompts" for prompt-based assistants,
// "commands" otherwise.
func (p Profile) CanonicalCommandsSubdir() string {
	if p.CommandsPath == PromptsDir {
		return PromptsDir
	}
	return CommandsDir
}

// SyncsAgents reports whether agents flow between this assistant and the
// canonical directory.
func (p Profile) SyncsAgents() bool {
	return p.CopyAgents && p.AgentsPath != ""
}

// SyncsInstructions reports whether this assistant carries an instructions file.
func (p Profile) SyncsInstructions() bool {
	return p.CopyInstructions && p.InstructionsFile != ""
}

// Validate checks the profile invariants.
func (p Profile) Validate() error {
	if p.BaseDir == "" {
		return fmt.Errorf("assistant %s: base directory is required", p.Name)
	}
	if p.AgentsPath == "" && p.CopyAgents {
		return fmt.Errorf("assistant %s: copies agents without an agents directory", p.Name)
	}
	if p.InstructionsFile == "" && p.CopyInstructions {
		return fmt.Errorf("assistant %s: copies instructions without an instructions file", p.Name)
	}
	return nil
}

// CanonicalDirIn returns <root>/.rapid.
func CanonicalDirIn(root string) string {
	return filepath.Join(root, branding.CanonicalDir())
}
