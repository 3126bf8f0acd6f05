package cli

import (
	"fmt"
	"io"

	"github.com/rapid-labs/rapid/internal/assistant"
	"github.com/rapid-labs/rapid/internal/branding"
	"github.com/rapid-labs/rapid/internal/syncer"
	"github.com/rapid-labs/rapid/internal/templates"
	"github.com/spf13/cobra"
)

var (
	updateAgent    string
	updateForce    bool
	updateReverse  bool
	updateLanguage string
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Synchronize " + branding.CanonicalDir() + " with assistant directories",
	Long: `Synchronize files between ` + branding.CanonicalDir() + `/ and the assistant directories (.claude/, .github/).

By default files flow FROM ` + branding.CanonicalDir() + `/ TO the assistants. With --reverse, edits
made in an assistant directory are consolidated back into ` + branding.CanonicalDir() + `/.

A file is only copied when its source is newer than its target, unless --force
is given. Instruction files edited in more than one assistant since the last
sync are refused and must be merged by hand.`,
	Example: `  rapid update                          # update all assistants from .rapid/
  rapid update --agent claude           # update only Claude Code
  rapid update --reverse                # consolidate all changes into .rapid/
  rapid update --reverse --agent claude # consolidate only Claude Code changes
  rapid update --force --reverse        # force consolidation`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVarP(&updateAgent, "agent", "a", "all", "Assistant to synchronize (claude, copilot, all)")
	updateCmd.Flags().BoolVarP(&updateForce, "force", "f", false, "Copy even when the target is newer")
	updateCmd.Flags().BoolVarP(&updateReverse, "reverse", "r", false, "Consolidate changes from assistant directories into "+branding.CanonicalDir()+"/")
	updateCmd.Flags().StringVarP(&updateLanguage, "language", "l", "", "Instruction language to use when "+branding.CanonicalDir()+"/instructions holds several")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	root, err := projectRoot()
	if err != nil {
		return err
	}
	name, all, err := assistant.ResolveAlias(updateAgent)
	if err != nil {
		return err
	}
	if updateLanguage != "" {
		if _, err := templates.ParseLanguage(updateLanguage); err != nil {
			return err
		}
	}

	s, err := openSession(cmd, root, canonicalExists(root) && !flagDryRun)
	if err != nil {
		return err
	}
	defer s.close()

	dir := syncer.Forward
	if updateReverse {
		dir = syncer.Reverse
	}
	if flagDryRun || s.verbose {
		printUpdateSummary(out, name, all, dir)
	}

	var (
		res    *syncer.Result
		runErr error
	)
	withProgress(out, func(report func(string, int, int)) {
		engine := syncer.New(syncer.Options{
			ProjectRoot: root,
			DryRun:      flagDryRun,
			Language:    updateLanguage,
			Logger:      s.log,
			Progress:    report,
		})
		ctx := cmd.Context()
		switch {
		case all && dir == syncer.Forward:
			res = engine.SyncAll(ctx, updateForce)
		case all:
			res = engine.ConsolidateAll(ctx, updateForce)
		case dir == syncer.Forward:
			res, runErr = engine.SyncOne(ctx, name, updateForce)
		default:
			res, runErr = engine.ConsolidateOne(ctx, name, updateForce)
		}
	})
	if runErr != nil {
		return runErr
	}

	printUpdateResult(out, root, res, dir, s.verbose)
	if !res.Success {
		return errReported
	}
	return nil
}

func printUpdateSummary(w io.Writer, name assistant.Name, all bool, dir syncer.Direction) {
	operation := "Update"
	direction := "FROM " + branding.CanonicalDir() + "/ TO assistants"
	if dir == syncer.Reverse {
		operation = "Consolidation"
		direction = "FROM assistants TO " + branding.CanonicalDir() + "/"
	}
	target := "All assistants"
	if !all {
		if p, err := assistant.Lookup(name); err == nil {
			target = p.DisplayName
		}
	}

	fmt.Fprintf(w, "\n%s summary\n", operation)
	tw := newTable(w)
	fmt.Fprintf(tw, "  Target\t%s\n", target)
	fmt.Fprintf(tw, "  Direction\t%s\n", direction)
	fmt.Fprintf(tw, "  Force\t%s\n", yesNo(updateForce))
	fmt.Fprintf(tw, "  Mode\t%s\n", mode(flagDryRun))
	tw.Flush()
	fmt.Fprintln(w)
}

func printUpdateResult(w io.Writer, root string, res *syncer.Result, dir syncer.Direction, verbose bool) {
	operation := "Update"
	if dir == syncer.Reverse {
		operation = "Consolidation"
	}

	if res.Success {
		fmt.Fprintf(w, "\n✓ %s completed\n", operation)
	} else {
		fmt.Fprintf(w, "\n✗ %s failed\n", operation)
	}
	if flagDryRun {
		printer.Fprintf(w, "  Files that would be copied: %d\n", res.FilesCopied)
	} else {
		printer.Fprintf(w, "  Files copied: %d\n", res.FilesCopied)
	}
	printer.Fprintf(w, "  Files skipped: %d\n", res.FilesSkipped)

	printList(w, "Errors", res.Errors)
	printList(w, "Warnings", res.Warnings)

	if verbose && len(res.Operations) > 0 {
		fmt.Fprintln(w)
		tw := newTable(w)
		fmt.Fprintln(tw, "ACTION\tSOURCE\tTARGET\tREASON")
		for _, op := range res.Operations {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.Outcome, op.RelativeSource(root), op.RelativeTarget(root), op.Reason)
		}
		tw.Flush()
		errs := 0
		for _, op := range res.Operations {
			if !op.Success {
				errs++
			}
		}
		printer.Fprintf(w, "\n%d operations, %d errors\n", len(res.Operations), errs)
	}
}
