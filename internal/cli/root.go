package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rapid-labs/rapid/internal/assistant"
	"github.com/rapid-labs/rapid/internal/branding"
	"github.com/rapid-labs/rapid/internal/config"
	"github.com/rapid-labs/rapid/internal/logging"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	flagVerbose bool
	flagDryRun  bool
	flagPath    string
)

// errReported marks a failure whose details were already written to the
// command's output; Execute only sets the exit code for it.
var errReported = errors.New("command failed")

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` installs AI coding-assistant templates into a project and keeps the
canonical ` + branding.CanonicalDir() + ` directory in step with each assistant's own directory
(.claude, .github).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Show per-file operations and debug logging")
	pf.BoolVar(&flagDryRun, "dry-run", false, "Show what would be done without writing anything")
	pf.StringVarP(&flagPath, "path", "p", "", "Project directory (default: current directory)")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}

// projectRoot resolves --path, or the working directory, to an absolute path.
func projectRoot() (string, error) {
	p := flagPath
	if p == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving project path %s: %w", p, err)
	}
	return abs, nil
}

// session bundles what every project-scoped command needs.
type session struct {
	root     string
	settings *config.Settings
	verbose  bool
	log      *logging.Logger
	closeLog func()
}

// openSession loads settings for the project at root and sets up
// diagnostics. When withFile is set, the run is appended to the canonical
// directory's log.
func openSession(cmd *cobra.Command, root string, withFile bool) (*session, error) {
	settings, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	s := &session{
		root:     root,
		settings: settings,
		verbose:  flagVerbose || settings.Verbose,
		closeLog: func() {},
	}
	s.setupLog(cmd, withFile)
	return s, nil
}

// setupLog (re)builds the session logger. Console output is added only in
// verbose mode; a log file that cannot be opened is skipped.
func (s *session) setupLog(cmd *cobra.Command, withFile bool) {
	s.closeLog()
	s.closeLog = func() {}

	level := s.settings.LogLevel
	var console io.Writer
	if s.verbose {
		level = "debug"
		console = cmd.ErrOrStderr()
	}

	var file io.Writer
	if withFile {
		f, err := logging.OpenFile(assistant.CanonicalDirIn(s.root))
		if err == nil {
			file = f
			s.closeLog = func() { f.Close() }
		} else if s.verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: diagnostic log unavailable: %v\n", err)
		}
	}

	if file == nil && console == nil {
		s.log = logging.Nop()
		return
	}
	s.log = logging.New(logging.Tee(file, console), level).WithRunID()
	s.log.Debug().
		Str("command", cmd.CommandPath()).
		Str("project", s.root).
		Bool("dry_run", flagDryRun).
		Msg("starting")
}

// close releases the log file, if any.
func (s *session) close() {
	s.closeLog()
}

// canonicalExists reports whether the project has been initialized.
func canonicalExists(root string) bool {
	info, err := os.Stat(assistant.CanonicalDirIn(root))
	return err == nil && info.IsDir()
}
