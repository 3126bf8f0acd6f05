package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/rapid-labs/rapid/internal/assistant"
	"github.com/rapid-labs/rapid/internal/branding"
	"github.com/rapid-labs/rapid/internal/config"
	"github.com/rapid-labs/rapid/internal/templates"
	"github.com/spf13/cobra"
)

var listJSON bool

var listTopics = []string{"languages", "assistants", "templates"}

var listCmd = &cobra.Command{
	Use:       "list <" + strings.Join(listTopics, "|") + ">",
	Short:     "List supported languages, assistants or templates",
	Args:      cobra.ExactArgs(1),
	ValidArgs: listTopics,
	RunE:      runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

type languageEntry struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	HasTemplates bool     `json:"has_templates"`
	Agents       []string `json:"agents"`
	Instructions string   `json:"instructions,omitempty"`
}

type assistantEntry struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Directory    string `json:"directory"`
	Instructions string `json:"instructions,omitempty"`
}

type templatesEntry struct {
	Location  string          `json:"location"`
	Languages []languageEntry `json:"languages"`
	Commands  []string        `json:"commands"`
	Prompts   []string        `json:"prompts"`
}

func runList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	switch strings.ToLower(args[0]) {
	case "languages":
		src, err := loadTemplates()
		if err != nil {
			return err
		}
		entries := languageEntries(src)
		if listJSON {
			return writeJSON(out, entries)
		}
		tw := newTable(out)
		fmt.Fprintln(tw, "CODE\tNAME\tTEMPLATES\tSTATUS")
		for _, e := range entries {
			mark, state := "✓", "Available"
			if !e.HasTemplates {
				mark, state = "✗", "Coming soon"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Code, e.Name, mark, state)
		}
		tw.Flush()
		fmt.Fprintf(out, "\nUse with: %s init --language <code>\n", branding.CLIName())

	case "assistants":
		entries := assistantEntries()
		if listJSON {
			return writeJSON(out, entries)
		}
		tw := newTable(out)
		fmt.Fprintln(tw, "CODE\tNAME\tDIRECTORY\tDESCRIPTION")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Code, e.Name, e.Directory, e.Description)
		}
		tw.Flush()
		fmt.Fprintf(out, "\nUse with: %s init --assistant <code> (repeatable)\n", branding.CLIName())

	case "templates":
		src, err := loadTemplates()
		if err != nil {
			return err
		}
		entry, err := templateEntry(src)
		if err != nil {
			return err
		}
		if listJSON {
			return writeJSON(out, entry)
		}
		renderTemplates(out, entry)

	default:
		return fmt.Errorf("unknown list topic %q (valid: %s)", args[0], strings.Join(listTopics, ", "))
	}
	return nil
}

// loadTemplates opens the template tree configured for the current project.
func loadTemplates() (*templates.Source, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	settings, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	src, err := templates.Load(settings.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	return src, nil
}

func languageEntries(src *templates.Source) []languageEntry {
	var entries []languageEntry
	for _, lang := range templates.Languages() {
		e := languageEntry{
			Code:         string(lang),
			Name:         lang.DisplayName(),
			HasTemplates: src.HasAgentTemplates(lang),
			Agents:       []string{},
		}
		if files, err := src.AgentFiles(lang); err == nil {
			for _, f := range files {
				e.Agents = append(e.Agents, path.Base(f))
			}
		}
		if _, name, err := src.InstructionFile(lang); err == nil {
			e.Instructions = name
		}
		entries = append(entries, e)
	}
	return entries
}

func assistantEntries() []assistantEntry {
	var entries []assistantEntry
	for _, n := range assistant.All() {
		p, _ := assistant.Lookup(n)
		entries = append(entries, assistantEntry{
			Code:         n.CLIName(),
			Name:         p.DisplayName,
			Description:  p.Description,
			Directory:    p.BaseDir,
			Instructions: p.InstructionsFile,
		})
	}
	return entries
}

func templateEntry(src *templates.Source) (*templatesEntry, error) {
	e := &templatesEntry{
		Location:  src.Location,
		Languages: languageEntries(src),
		Commands:  []string{},
		Prompts:   []string{},
	}
	for _, target := range []struct {
		subdir string
		into   *[]string
	}{
		{assistant.CommandsDir, &e.Commands},
		{assistant.PromptsDir, &e.Prompts},
	} {
		files, err := src.CommandFiles(target.subdir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			*target.into = append(*target.into, path.Base(f))
		}
	}
	return e, nil
}

func renderTemplates(w io.Writer, e *templatesEntry) {
	fmt.Fprintf(w, "Templates (%s)\n\n", e.Location)
	for _, lang := range e.Languages {
		fmt.Fprintln(w, lang.Name)
		if len(lang.Agents) == 0 {
			fmt.Fprintln(w, "  No agent templates yet")
		} else {
			fmt.Fprintln(w, "  Agents:")
			for _, a := range lang.Agents {
				fmt.Fprintf(w, "    • %s\n", a)
			}
		}
		if lang.Instructions != "" {
			fmt.Fprintf(w, "  Instructions: %s\n", lang.Instructions)
		}
		fmt.Fprintln(w)
	}
	printer.Fprintf(w, "Commands: %d\n", len(e.Commands))
	for _, c := range e.Commands {
		fmt.Fprintf(w, "  • %s\n", c)
	}
	printer.Fprintf(w, "Prompts: %d\n", len(e.Prompts))
	for _, p := range e.Prompts {
		fmt.Fprintf(w, "  • %s\n", p)
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
