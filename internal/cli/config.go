package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/rapid-labs/rapid/internal/branding"
	"github.com/rapid-labs/rapid/internal/config"
	"github.com/spf13/cobra"
)

var configGlobal bool

func init() {
	configCmd.PersistentFlags().BoolVar(&configGlobal, "global", false, "Use the global rc file in $HOME instead of the project one")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configResetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage default settings",
	Long: `Read and write ` + branding.DisplayName() + ` settings stored in ` + branding.RCFile() + `.

Settings are layered: built-in defaults, then ~/` + branding.RCFile() + `, then the project's
` + branding.RCFile() + `, then ` + branding.EnvVar("*") + ` environment variables.

Keys: ` + strings.Join(config.Keys(), ", "),
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Example: `  rapid config set defaults.language angular
  rapid config set defaults.assistants claude-code,github-copilot --global`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		key, raw := args[0], args[1]
		value, err := config.ParseValue(key, raw)
		if err != nil {
			return err
		}
		path := config.Path(configGlobal, root)
		if err := config.Set(path, key, value); err != nil {
			return fmt.Errorf("setting config key %q: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s (%s)\n", key, formatValue(value), path)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get an effective configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !slices.Contains(config.Keys(), args[0]) {
			return fmt.Errorf("%w: %q (valid: %s)", config.ErrUnknownKey, args[0], strings.Join(config.Keys(), ", "))
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}
		value, err := config.Get(root, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the rc file so defaults apply again",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		path := config.Path(configGlobal, root)
		removed, err := config.Reset(path)
		if err != nil {
			return err
		}
		if removed {
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration reset (%s deleted)\n", path)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No configuration file to reset")
		}
		return nil
	},
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	root, err := projectRoot()
	if err != nil {
		return err
	}
	settings, err := config.Load(root)
	if err != nil {
		return err
	}

	assistants := make([]string, len(settings.Assistants))
	for i, a := range settings.Assistants {
		assistants[i] = strings.ReplaceAll(a, "_", "-")
	}
	templatesDir := settings.TemplatesDir
	if templatesDir == "" {
		templatesDir = "embedded"
	}

	fmt.Fprintf(out, "%s configuration\n", branding.DisplayName())
	tw := newTable(out)
	fmt.Fprintln(tw, "SETTING\tKEY\tVALUE")
	fmt.Fprintf(tw, "Default language\t%s\t%s\n", config.KeyLanguage, settings.Language)
	fmt.Fprintf(tw, "Default assistants\t%s\t%s\n", config.KeyAssistants, strings.Join(assistants, ", "))
	fmt.Fprintf(tw, "Verbose\t%s\t%t\n", config.KeyVerbose, settings.Verbose)
	fmt.Fprintf(tw, "Log level\t%s\t%s\n", config.KeyLogLevel, settings.LogLevel)
	fmt.Fprintf(tw, "Templates\t%s\t%s\n", config.KeyTemplatesDir, templatesDir)
	tw.Flush()

	fmt.Fprintln(out)
	for _, f := range []struct{ label, path string }{
		{"Global", config.GlobalPath()},
		{"Project", config.ProjectPath(root)},
	} {
		state := "not found"
		if _, err := os.Stat(f.path); err == nil {
			state = "loaded"
		}
		fmt.Fprintf(out, "%s file: %s (%s)\n", f.label, f.path, state)
	}
	return nil
}

func formatValue(v any) string {
	if items, ok := v.([]string); ok {
		return strings.Join(items, ",")
	}
	return fmt.Sprint(v)
}
