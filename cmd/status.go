package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/venvterm/internal/shell"
	"github.com/fakeyudi/venvterm/internal/venv"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the workspace environment and the terminal session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dialect, err := dialectFor("")
		if err != nil {
			return err
		}

		script, found, err := venv.NewLocator(layoutFor(dialect), logger).Locate(workspace)
		var scanErr *venv.ScanError
		if err != nil && !errors.As(err, &scanErr) {
			return err
		}
		if !found {
			script = "(none)"
		}

		registry, err := newRegistry()
		if err != nil {
			return err
		}
		state, err := registry.Snapshot()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Workspace: %s\n", workspace)
		fmt.Fprintf(out, "Environment: %s\n", script)
		fmt.Fprintf(out, "Preference: %s\n", cfg.Preference())
		fmt.Fprintf(out, "Shell: %s\n", dialect.Name())
		fmt.Fprintf(out, "POSIX support: %t\n", cfg.Posix())
		fmt.Fprintf(out, "Open terminals: %d\n", state.OpenCount())
		fmt.Fprintf(out, "Activate all: %t\n", state.ActivateAll())
		fmt.Fprintf(out, "Plugin installed: %t\n", shell.IsInstalled(dialect.Name()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
