package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/venvterm/internal/coordinator"
	"github.com/fakeyudi/venvterm/internal/hookhost"
	"github.com/fakeyudi/venvterm/internal/host"
	"github.com/fakeyudi/venvterm/internal/session"
	"github.com/fakeyudi/venvterm/internal/shell"
	"github.com/fakeyudi/venvterm/internal/tui"
	"github.com/fakeyudi/venvterm/internal/venv"
)

// Environment variables the shell plugins use to remember their terminal.
const (
	envTerminalID  = "VENVTERM_TERMINAL_ID"
	envTerminalPID = "VENVTERM_TERMINAL_PID"
)

var (
	hookShell string
	hookPID   int
	hookID    string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Entry points called by the shell plugins",
}

var hookOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Report a new terminal and print the shell text to evaluate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dialect, err := dialectFor(hookShell)
		if err != nil {
			return err
		}
		pid := hookPID
		if pid <= 0 {
			pid = os.Getppid()
		}

		registry, err := newRegistry()
		if err != nil {
			return err
		}
		rec, err := registry.Open(pid, dialect.Name(), workspace)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, dialect.SetEnv(envTerminalID, rec.ID))
		fmt.Fprintln(out, dialect.SetEnv(envTerminalPID, strconv.Itoa(pid)))

		term := hookhost.NewTerminal(rec.ID, out)
		defer term.Close()

		coord := newCoordinator(cmd, dialect, registry, term)
		outcome := coord.OnTerminalOpened(cmd.Context(), term)
		coord.Wait()
		logger.Debug("hook open", "terminal", rec.ID, "outcome", outcome)
		return nil
	},
}

var hookCloseCmd = &cobra.Command{
	Use:   "close",
	Short: "Report that a terminal closed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		id := hookID
		if id == "" {
			id = os.Getenv(envTerminalID)
		}
		if id == "" {
			return fmt.Errorf("no terminal id (pass --id or set %s)", envTerminalID)
		}

		registry, err := newRegistry()
		if err != nil {
			return err
		}
		remaining, err := registry.Close(id)
		if err != nil {
			return err
		}
		dialect, err := dialectFor(hookShell)
		if err != nil {
			return err
		}
		newCoordinator(cmd, dialect, registry, nil).OnTerminalClosed(remaining)
		logger.Debug("hook close", "terminal", id, "remaining", remaining)
		return nil
	},
}

var hookInitCmd = &cobra.Command{
	Use:   "init <shell>",
	Short: "Print the shell plugin for eval-style installation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := shell.Plugin(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), src)
		return nil
	},
}

func newRegistry() (*session.Registry, error) {
	store, err := session.NewStore()
	if err != nil {
		return nil, err
	}
	return session.NewRegistry(store, logger), nil
}

// newCoordinator wires a coordinator for the current workspace. Prompts and
// notifications go to stderr so stdout stays evaluable.
func newCoordinator(cmd *cobra.Command, dialect shell.Dialect, registry *session.Registry, term host.Terminal) *coordinator.Coordinator {
	return coordinator.New(workspace, cfg, dialect, coordinator.Deps{
		Locator:   venv.NewLocator(layoutFor(dialect), logger),
		Session:   registry,
		Terminals: session.Terminals(registry, term),
		Notifier:  &tui.Notifier{Out: cmd.ErrOrStderr()},
		Prompter:  &tui.Prompt{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()},
		Logger:    logger,
	})
}

func init() {
	hookCmd.PersistentFlags().StringVar(&hookShell, "shell", "", "shell running the hook (bash, zsh, fish, pwsh)")
	hookOpenCmd.Flags().IntVar(&hookPID, "pid", 0, "process id of the shell (default: parent process)")
	hookCloseCmd.Flags().StringVar(&hookID, "id", "", "terminal id printed by hook open (default: $"+envTerminalID+")")
	hookCmd.AddCommand(hookOpenCmd, hookCloseCmd, hookInitCmd)
	rootCmd.AddCommand(hookCmd)
}
