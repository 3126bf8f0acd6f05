package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rapid-labs/rapid/internal/branding"
	"github.com/rapid-labs/rapid/internal/fsutil"
	"github.com/rapid-labs/rapid/internal/status"
	"github.com/rapid-labs/rapid/internal/syncer"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	statusFix  bool
	statusJSON bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the " + branding.DisplayName() + " state of a project",
	Long: `Report what is installed in ` + branding.CanonicalDir() + `/, which assistant directories are present,
the detected instruction language, and any health issues.

Exits with status 1 when the project has not been initialized.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFix, "fix", false, "Create missing "+branding.CanonicalDir()+" subdirectories")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(statusCmd)
}

// statusOutput is the JSON form of a status report.
type statusOutput struct {
	ProjectRoot string         `json:"project_root"`
	Initialized bool           `json:"initialized"`
	Entries     []status.Entry `json:"entries,omitempty"`
	Agents      int            `json:"agents"`
	Commands    int            `json:"commands"`
	Prompts     int            `json:"prompts"`
	Assistants  []string       `json:"assistants"`
	Language    string         `json:"language,omitempty"`
	LogFiles    []string       `json:"log_files,omitempty"`
	Issues      []string       `json:"issues"`
	Suggestions []string       `json:"suggestions"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	root, err := projectRoot()
	if err != nil {
		return err
	}
	fsys := afero.NewOsFs()

	if statusFix {
		created, err := status.Fix(fsys, root)
		if errors.Is(err, syncer.ErrCanonicalMissing) {
			return fmt.Errorf("%w; run '%s init' first", err, branding.CLIName())
		}
		if err != nil {
			return err
		}
		for _, dir := range created {
			fmt.Fprintf(out, "  [FIX ] created %s\n", fsutil.RelativeTo(root, dir))
		}
	}

	report, err := status.Inspect(status.Options{Fs: fsys, ProjectRoot: root})
	if err != nil {
		return err
	}

	if statusJSON {
		data, err := json.MarshalIndent(toStatusOutput(report), "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling status: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		report.Render(out)
	}

	if !report.Initialized {
		return errReported
	}
	return nil
}

func toStatusOutput(r *status.Report) statusOutput {
	o := statusOutput{
		ProjectRoot: r.ProjectRoot,
		Initialized: r.Initialized,
		Entries:     r.Entries,
		Agents:      r.Agents,
		Commands:    r.Commands,
		Prompts:     r.Prompts,
		Assistants:  []string{},
		Language:    r.Language,
		Issues:      append([]string{}, r.Issues...),
		Suggestions: append([]string{}, r.Suggestions...),
	}
	for _, p := range r.Assistants {
		o.Assistants = append(o.Assistants, string(p.Name))
	}
	for _, lf := range r.LogFiles {
		o.LogFiles = append(o.LogFiles, lf.Name)
	}
	return o
}
