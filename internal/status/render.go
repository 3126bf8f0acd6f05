package status

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rapid-labs/rapid/internal/branding"
)

// Render writes r in the doctor-style [ OK ]/[MISS]/[WARN] format.
func (r *Report) Render(w io.Writer) {
	canonical := branding.CanonicalDir()
	fmt.Fprintf(w, "%s status: %s\n", branding.DisplayName(), r.ProjectRoot)

	if !r.Initialized {
		fmt.Fprintf(w, "  [MISS] %s not found\n", canonical)
		fmt.Fprintf(w, "         Run '%s init' to initialize this project\n", branding.CLIName())
		return
	}
	fmt.Fprintf(w, "  [ OK ] %s is initialized\n\n", canonical)

	fmt.Fprintf(w, "%s/\n", canonical)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range r.Entries {
		if e.IsDir {
			fmt.Fprintf(tw, "  %s/\t%d file(s)\n", e.Name, e.Files)
		} else {
			fmt.Fprintf(tw, "  %s\t\n", e.Name)
		}
	}
	tw.Flush()

	fmt.Fprintln(w, "\nInstallation:")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Agent templates\t%d\n", r.Agents)
	fmt.Fprintf(tw, "  Command templates\t%d\n", r.Commands)
	fmt.Fprintf(tw, "  Prompt templates\t%d\n", r.Prompts)
	fmt.Fprintf(tw, "  Assistant configs\t%s\n", r.assistantList())
	fmt.Fprintf(tw, "  Language\t%s\n", orNone(r.Language))
	fmt.Fprintf(tw, "  Log files\t%d\n", len(r.LogFiles))
	tw.Flush()

	fmt.Fprintln(w, "\nHealth:")
	for _, issue := range r.Issues {
		fmt.Fprintf(w, "  [WARN] %s\n", issue)
	}
	for _, s := range r.Suggestions {
		fmt.Fprintf(w, "  [INFO] %s\n", s)
	}
	if len(r.Issues) == 0 {
		fmt.Fprintln(w, "  [ OK ] No issues found")
	}
}

func (r *Report) assistantList() string {
	if len(r.Assistants) == 0 {
		return "None"
	}
	parts := make([]string, len(r.Assistants))
	for i, p := range r.Assistants {
		parts[i] = fmt.Sprintf("%s (%s)", p.DisplayName, p.BaseDir)
	}
	return strings.Join(parts, ", ")
}

func orNone(s string) string {
	if s == "" {
		return "none detected"
	}
	return s
}
