package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/venvterm/internal/coordinator"
	"github.com/fakeyudi/venvterm/internal/host"
	"github.com/fakeyudi/venvterm/internal/ptyhost"
	"github.com/fakeyudi/venvterm/internal/session"
)

var shellPath string

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open a shell in the workspace, offering to activate its virtual environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolveShellPath(shellPath)
		dialect, err := dialectFor(path)
		if err != nil {
			return err
		}

		registry, err := newRegistry()
		if err != nil {
			return err
		}
		rec, err := registry.Open(os.Getpid(), dialect.Name(), workspace)
		if err != nil {
			return err
		}
		release := func() { closeTerminal(registry, rec.ID) }

		// The plugin inside the PTY must not register the terminal twice,
		// nor close it on exit: the PID never matches.
		env := append(os.Environ(), envTerminalID+"="+rec.ID, envTerminalPID+"=0")
		term, err := ptyhost.Spawn(path, workspace, env)
		if err != nil {
			release()
			return fmt.Errorf("starting %s: %w", path, err)
		}

		coord := newCoordinator(cmd, dialect, registry, term)

		// stdin belongs to the prompt until the open event is handled.
		opened := make(chan struct{})
		var once sync.Once
		coord.SetOpenedFunc(func(t host.Terminal, outcome coordinator.Outcome) {
			logger.Debug("shell opened", "terminal", rec.ID, "outcome", outcome)
			once.Do(func() { close(opened) })
		})

		ran := make(chan error, 1)
		go func() { ran <- coord.Run(cmd.Context(), ptyhost.Watch(term, release)) }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		select {
		case <-opened:
		case <-term.Done():
		case <-ctx.Done():
		}
		attachErr := term.Attach(ctx, os.Stdin, cmd.OutOrStdout())

		// Closed is delivered once the shell is gone; Run returns after it.
		term.Close()
		if err := <-ran; err != nil {
			logger.Warn("terminal events", "error", err)
		}
		coord.Wait()
		return attachErr
	},
}

// closeTerminal unregisters id, logging rather than failing.
func closeTerminal(registry *session.Registry, id string) {
	if _, err := registry.Close(id); err != nil {
		logger.Warn("closing terminal", "terminal", id, "error", err)
	}
}

// resolveShellPath returns flag, then $SHELL, then the platform default.
func resolveShellPath(flag string) string {
	if flag != "" {
		return flag
	}
	if s := os.Getenv("SHELL"); s != "" && runtime.GOOS != "windows" {
		return s
	}
	if cfg.Shell != "" {
		return cfg.Shell
	}
	if runtime.GOOS == "windows" {
		return "powershell.exe"
	}
	return "/bin/sh"
}

func init() {
	shellCmd.Flags().StringVar(&shellPath, "shell", "", "shell to run (default: $SHELL)")
	rootCmd.AddCommand(shellCmd)
}
