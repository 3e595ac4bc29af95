package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/venvterm/internal/venv"
)

var (
	locateShell string
	locateWatch bool
)

var locateCmd = &cobra.Command{
	Use:   "locate [dir]",
	Short: "Print the activation script of the workspace's virtual environment",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := workspace
		if len(args) == 1 {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			root = abs
		}

		dialect, err := dialectFor(locateShell)
		if err != nil {
			return err
		}
		locator := venv.NewLocator(layoutFor(dialect), logger)

		if locateWatch {
			return watchWorkspace(cmd, locator, root)
		}

		script, found, err := locator.Locate(root)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no virtual environment found in %s", root)
		}
		fmt.Fprintln(cmd.OutOrStdout(), script)
		return nil
	},
}

// watchWorkspace prints the located script every time it changes.
func watchWorkspace(cmd *cobra.Command, locator *venv.Locator, root string) error {
	cached, err := venv.NewCachedLocator(locator, root)
	if err != nil {
		return err
	}
	defer cached.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	report := func(r venv.Result) {
		if r.Found {
			fmt.Fprintln(cmd.OutOrStdout(), r.Script)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "(none)")
		}
	}
	script, found, err := cached.Locate(root)
	if err != nil {
		return err
	}
	report(venv.Result{Script: script, Found: found})
	return cached.Run(ctx, report)
}

func init() {
	locateCmd.Flags().StringVar(&locateShell, "shell", "", "shell whose activation script to look for (bash, zsh, fish, pwsh)")
	locateCmd.Flags().BoolVar(&locateWatch, "watch", false, "keep running and print changes")
	rootCmd.AddCommand(locateCmd)
}
