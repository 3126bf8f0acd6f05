package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rapid-labs/rapid/internal/assistant"
	"github.com/rapid-labs/rapid/internal/branding"
	"github.com/rapid-labs/rapid/internal/initializer"
	"github.com/rapid-labs/rapid/internal/templates"
	"github.com/spf13/cobra"
)

var (
	initLanguage    string
	initAssistants  []string
	initInteractive bool
	initForce       bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Install templates into a project",
	Long: `Install agent, command and instruction templates for a language into the
project's ` + branding.CanonicalDir() + ` directory and into each selected assistant's directory.

The canonical ` + branding.CanonicalDir() + ` target is always included. Without --language or
--assistant the configured defaults are used (see '` + branding.CLIName() + ` config show').
Any failed copy rolls back everything the run wrote.`,
	Example: `  rapid init -l python -a claude-code
  rapid init -l angular -a claude-code -a github-copilot -f
  rapid init --interactive`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initLanguage, "language", "l", "", "Language ("+strings.Join(templates.LanguageNames(), ", ")+")")
	initCmd.Flags().StringSliceVarP(&initAssistants, "assistant", "a", nil, "Assistant to configure, repeatable ("+strings.Join(assistant.CLINames(), ", ")+")")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Choose language and assistants from menus")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Skip confirmation and environment checks")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	root, err := projectRoot()
	if err != nil {
		return err
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("project path does not exist or is not a directory: %s", root)
	}

	s, err := openSession(cmd, root, false)
	if err != nil {
		return err
	}
	defer s.close()

	sel, err := resolveInitSelection(s)
	if err != nil {
		return err
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	if initInteractive {
		sel, err = promptInit(reader, out, *sel)
		if err != nil {
			return err
		}
	}
	sel.Assistants = assistant.EnsureCanonical(sel.Assistants)

	printInitSummary(out, root, sel)

	if !initForce && !flagDryRun {
		ok, err := confirm(reader, out, "Proceed with initialization?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Initialization cancelled.")
			return nil
		}
	}

	if !flagDryRun {
		s.setupLog(cmd, true)
	}

	src, err := templates.Load(s.settings.TemplatesDir)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	in := initializer.New(initializer.Options{
		ProjectRoot: root,
		Templates:   src,
		DryRun:      flagDryRun,
		Force:       initForce,
		CLIVersion:  buildVersion,
		Logger:      s.log,
	})

	var (
		res    *initializer.Result
		runErr error
	)
	withProgress(out, func(report func(string, int, int)) {
		res, runErr = in.Initialize(cmd.Context(), sel.Language, sel.Assistants, report)
	})
	if runErr != nil {
		return runErr
	}

	printInitResult(out, root, res, s.verbose)
	if !res.Success {
		return errReported
	}
	return nil
}

// resolveInitSelection combines flags with configured defaults.
func resolveInitSelection(s *session) (*initSelection, error) {
	langName := initLanguage
	if langName == "" {
		langName = s.settings.Language
	}
	lang, err := templates.ParseLanguage(langName)
	if err != nil {
		return nil, err
	}

	names := initAssistants
	if len(names) == 0 {
		names = s.settings.Assistants
	}
	assistants, err := assistant.ParseList(names)
	if err != nil {
		return nil, err
	}
	return &initSelection{Language: lang, Assistants: assistants}, nil
}

func printInitSummary(w io.Writer, root string, sel *initSelection) {
	labels := make([]string, 0, len(sel.Assistants))
	for _, n := range sel.Assistants {
		p, _ := assistant.Lookup(n)
		labels = append(labels, p.DisplayName)
	}

	fmt.Fprintf(w, "\n%s initialization\n", branding.DisplayName())
	tw := newTable(w)
	fmt.Fprintf(tw, "  Project\t%s\n", root)
	fmt.Fprintf(tw, "  Language\t%s (%s)\n", sel.Language.DisplayName(), sel.Language)
	fmt.Fprintf(tw, "  Assistants\t%s\n", strings.Join(labels, ", "))
	fmt.Fprintf(tw, "  Mode\t%s\n", mode(flagDryRun))
	tw.Flush()
	fmt.Fprintln(w)
}

func printInitResult(w io.Writer, root string, res *initializer.Result, verbose bool) {
	if res.Success {
		if flagDryRun {
			fmt.Fprintf(w, "\n✓ Dry run complete, nothing was written\n")
			printer.Fprintf(w, "  Files that would be copied: %d\n", res.FilesCopied)
		} else {
			fmt.Fprintf(w, "\n✓ %s initialized\n", branding.DisplayName())
			printer.Fprintf(w, "  Files copied: %d\n", res.FilesCopied)
			printer.Fprintf(w, "  Directories created: %d\n", res.DirectoriesCreated)
		}
	} else {
		fmt.Fprintf(w, "\n✗ Initialization failed\n")
		if res.RolledBack {
			fmt.Fprintln(w, "  All changes from this run were rolled back.")
		}
		printList(w, "Errors", res.Errors)
	}

	if verbose && len(res.Operations) > 0 {
		sum := res.Summary()
		fmt.Fprintln(w)
		tw := newTable(w)
		fmt.Fprintln(tw, "STATUS\tCATEGORY\tASSISTANT\tDESTINATION")
		for _, op := range res.Operations {
			status := "OK"
			if !op.Success {
				status = "FAILED"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", status, op.Category, op.Assistant, op.RelativeDestination(root))
		}
		tw.Flush()
		printer.Fprintf(w, "\n%d operations: %d agents, %d commands, %d instructions (%d failed)\n",
			sum.Total,
			sum.ByCategory[initializer.CategoryAgent],
			sum.ByCategory[initializer.CategoryCommand],
			sum.ByCategory[initializer.CategoryInstruction],
			sum.Failed)
	}

	printList(w, "Warnings", res.Warnings)
}
