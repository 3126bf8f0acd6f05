package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rapid-labs/rapid/internal/assistant"
	"github.com/rapid-labs/rapid/internal/branding"
	"github.com/rapid-labs/rapid/internal/templates"
	"github.com/spf13/viper"
)

const fileType = "yaml"

// Keys understood by Load and Set.
const (
	KeyLanguage     = "defaults.language"
	KeyAssistants   = "defaults.assistants"
	KeyVerbose      = "defaults.verbose"
	KeyLogLevel     = "log.level"
	KeyTemplatesDir = "templates.dir"
)

// ErrUnknownKey is returned for keys that Set does not accept.
var ErrUnknownKey = errors.New("unknown config key")

// Keys lists every settable key in display order.
func Keys() []string {
	return []string{KeyLanguage, KeyAssistants, KeyVerbose, KeyLogLevel, KeyTemplatesDir}
}

var logLevels = []string{"trace", "debug", "info", "warn", "error", "silent"}

// Settings is the merged view of defaults, rc files, and environment.
type Settings struct {
	Language     string
	Assistants   []string
	Verbose      bool
	LogLevel     string
	TemplatesDir string
}

// GlobalPath returns the path to the user-level rc file (~/.rapidrc.yaml).
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.RCFile())
	}
	return filepath.Join(home, branding.RCFile())
}

// ProjectPath returns the path to the project-level rc file.
func ProjectPath(projectRoot string) string {
	return filepath.Join(projectRoot, branding.RCFile())
}

// Path picks the global or project rc file.
func Path(global bool, projectRoot string) string {
	if global {
		return GlobalPath()
	}
	return ProjectPath(projectRoot)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType(fileType)
	v.SetDefault(KeyLanguage, "python")
	v.SetDefault(KeyAssistants, []string{"claude_code", "rapid_only"})
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyTemplatesDir, "")
	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load merges built-in defaults, the global rc file, the project rc file, and
// RAPID_* environment variables, in increasing precedence. Missing rc files
// are not an error.
func Load(projectRoot string) (*Settings, error) {
	v := newViper()

	for _, path := range []string{GlobalPath(), ProjectPath(projectRoot)} {
		if err := mergeFile(v, path); err != nil {
			return nil, err
		}
	}

	return &Settings{
		Language:     v.GetString(KeyLanguage),
		Assistants:   v.GetStringSlice(KeyAssistants),
		Verbose:      v.GetBool(KeyVerbose),
		LogLevel:     v.GetString(KeyLogLevel),
		TemplatesDir: v.GetString(KeyTemplatesDir),
	}, nil
}

func mergeFile(v *viper.Viper, path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening config file %s: %w", path, err)
	}
	defer f.Close()

	if err := v.MergeConfig(f); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// ReadFile returns the raw settings stored in a single rc file, without
// defaults or environment overrides. A missing file yields an empty map.
func ReadFile(path string) (map[string]any, error) {
	v := viper.New()
	v.SetConfigType(fileType)
	if err := mergeFile(v, path); err != nil {
		return nil, err
	}
	return v.AllSettings(), nil
}

// Get returns the effective value for key as a string.
func Get(projectRoot, key string) (string, error) {
	v := newViper()
	for _, path := range []string{GlobalPath(), ProjectPath(projectRoot)} {
		if err := mergeFile(v, path); err != nil {
			return "", err
		}
	}
	if slice := v.GetStringSlice(key); len(slice) > 1 {
		return strings.Join(slice, ","), nil
	}
	return v.GetString(key), nil
}

// Set writes a key into the rc file at path, preserving existing keys.
func Set(path, key string, value any) error {
	v := viper.New()
	v.SetConfigType(fileType)
	if err := mergeFile(v, path); err != nil {
		return err
	}

	v.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// Reset deletes the rc file at path. It reports whether a file was removed.
func Reset(path string) (bool, error) {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("removing config file %s: %w", path, err)
	}
	return true, nil
}

// ParseValue validates raw for key and converts it to the type stored in the
// rc file. Assistants are given comma-separated.
func ParseValue(key, raw string) (any, error) {
	switch key {
	case KeyLanguage:
		lang, err := templates.ParseLanguage(raw)
		if err != nil {
			return nil, err
		}
		return string(lang), nil
	case KeyAssistants:
		var items []string
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		if len(items) == 0 {
			return nil, errors.New("at least one assistant is required")
		}
		names, err := assistant.ParseList(items)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(names))
		for i, n := range names {
			out[i] = string(n)
		}
		return out, nil
	case KeyVerbose:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q for %s", raw, key)
		}
		return b, nil
	case KeyLogLevel:
		level := strings.ToLower(strings.TrimSpace(raw))
		for _, l := range logLevels {
			if l == level {
				return level, nil
			}
		}
		return nil, fmt.Errorf("invalid log level %q (valid: %s)", raw, strings.Join(logLevels, ", "))
	case KeyTemplatesDir:
		if raw == "" {
			return "", nil
		}
		abs, err := filepath.Abs(raw)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", raw, err)
		}
		return abs, nil
	default:
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}
}
