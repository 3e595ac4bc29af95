package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/venvterm/internal/config"
	"github.com/fakeyudi/venvterm/internal/shell"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure venvterm (re-run anytime to edit settings)",
	// Bypass the normal PersistentPreRunE so setup works with a broken config.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd)
	},
}

// runSetup runs the interactive setup wizard and installs the plugin it asked for.
func runSetup(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	// Existing settings become the defaults; a broken file starts fresh.
	existing, err := config.LoadGlobal()
	if err != nil {
		fmt.Fprintf(out, "  ⚠ Ignoring existing config: %v\n", err)
		existing = nil
	}

	res, err := config.RunSetup(cmd.InOrStdin(), out, existing)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	if err := config.SaveGlobal(&res.Config); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintln(out, "  ✓ Config saved.")

	if res.PluginShell != "" {
		if err := shell.Install(out, res.PluginShell); err != nil {
			fmt.Fprintf(out, "  ⚠ Plugin install failed: %v\n", err)
			fmt.Fprintln(out, "    You can retry with: venvterm setup")
		}
	}

	fmt.Fprintln(out, "  Setup complete. New terminals in a workspace with a venv will now be offered activation.")
	fmt.Fprintln(out)
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
