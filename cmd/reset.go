package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget all registered terminals and the activate-all choice",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := newRegistry()
		if err != nil {
			return err
		}
		if err := registry.Reset(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "session cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
