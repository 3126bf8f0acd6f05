// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed. Hard defaults apply when a key is missing.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName      string `yaml:"cli_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	CanonicalDir string `yaml:"canonical_dir"`
	RCFile       string `yaml:"rc_file"`
	EnvPrefix    string `yaml:"env_prefix"`
	GoModule     string `yaml:"go_module"`
}

func load() {
	once.Do(func() {
		defaults = brand{
			CLIName:      "rapid",
			DisplayName:  "RAPID",
			Description:  "Scaffold and synchronize AI coding-assistant templates",
			CanonicalDir: ".rapid",
			RCFile:       ".rapidrc.yaml",
			EnvPrefix:    "RAPID",
			GoModule:     "github.com/rapid-labs/rapid",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "rapid").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "RAPID").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// CanonicalDir returns the project-level source-of-truth directory (e.g., ".rapid").
func CanonicalDir() string { load(); return defaults.CanonicalDir }

// RCFile returns the settings file name used both in $HOME and in a project root.
func RCFile() string { load(); return defaults.RCFile }

// EnvPrefix returns the environment variable prefix (e.g., "RAPID").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("templates_dir") → "RAPID_TEMPLATES_DIR".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
