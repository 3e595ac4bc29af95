package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/venvterm/internal/config"
	"github.com/fakeyudi/venvterm/internal/shell"
	"github.com/fakeyudi/venvterm/internal/venv"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// workspace is the absolute workspace root, populated in PersistentPreRunE.
var workspace string

// logger is the diagnostic logger shared by all commands.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var (
	workspaceFlag string
	debugFlag     bool
)

var rootCmd = &cobra.Command{
	Use:          "venvterm",
	Short:        "Activate a workspace's Python virtual environment in new terminals",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(cmd.ErrOrStderr(), debugFlag || os.Getenv("VENVTERM_DEBUG") != "")

		root, err := resolveWorkspace(workspaceFlag)
		if err != nil {
			return err
		}
		workspace = root

		// Load and merge config files.
		loaded, err := config.Load(workspace)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&workspaceFlag, "workspace", "", "workspace root (default: $VENVTERM_WORKSPACE or the current directory)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// newLogger returns a text slog logger on w. Only warnings are shown unless
// debug is set, since w is usually the user's terminal.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func resolveWorkspace(flag string) (string, error) {
	root := flag
	if root == "" {
		root = os.Getenv("VENVTERM_WORKSPACE")
	}
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving workspace: %w", err)
		}
		root = cwd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving workspace: %w", err)
	}
	return abs, nil
}

// dialectFor picks the shell dialect: an explicit name wins, then the
// configured override, then the host default.
func dialectFor(name string) (shell.Dialect, error) {
	if name == "" {
		name = cfg.Shell
	}
	if name != "" {
		return shell.ForName(name)
	}
	return shell.Detect(runtime.GOOS, os.Getenv("SHELL")), nil
}

// layoutFor returns the venv layout to scan for. Without POSIX support only
// the PowerShell sentinel script counts.
func layoutFor(d shell.Dialect) venv.Layout {
	if !cfg.Posix() {
		return venv.ReferenceLayout
	}
	return venv.LayoutFor(d.ScriptCandidates())
}
