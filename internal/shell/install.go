// Package shell knows the shell dialects venvterm types into and installs the
// startup plugins that report new terminals to venvterm.
package shell

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// PluginPath returns the path where the plugin file should be written.
func PluginPath(shell string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	name := "venvterm.plugin." + shell
	if shell == "pwsh" {
		name = "venvterm.plugin.ps1"
	}
	return filepath.Join(home, ".config", "venvterm", name), nil
}

// Plugin returns the plugin source for shell.
func Plugin(shell string) (string, error) {
	switch shell {
	case "zsh":
		return ZshPlugin, nil
	case "bash":
		return BashPlugin, nil
	case "fish":
		return FishPlugin, nil
	case "pwsh":
		return PwshPlugin, nil
	default:
		return "", fmt.Errorf("unsupported shell for plugin: %s (supported: zsh, bash, fish, pwsh)", shell)
	}
}

// Install writes the plugin file for the given shell and prints the source
// instruction the user needs to add to their rc file.
func Install(w io.Writer, shell string) error {
	content, err := Plugin(shell)
	if err != nil {
		return err
	}
	path, err := PluginPath(shell)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing plugin file: %w", err)
	}

	rcFile := rcFileName(shell)
	fmt.Fprintf(w, "\n  ✓ Plugin written to %s\n", path)
	fmt.Fprintf(w, "\n  Add this line to your %s:\n", rcFile)
	fmt.Fprintf(w, "    %s\n", SourceLine(shell, path))
	fmt.Fprintf(w, "\n  Then open a new terminal.\n\n")
	return nil
}

// SourceLine returns the rc-file line that loads the plugin at path.
func SourceLine(shell, path string) string {
	if shell == "pwsh" {
		return ". " + psQuote(path)
	}
	return "source " + path
}

// IsInstalled reports whether the plugin file exists on disk.
func IsInstalled(shell string) bool {
	path, err := PluginPath(shell)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func rcFileName(shell string) string {
	switch shell {
	case "zsh":
		return "~/.zshrc"
	case "bash":
		return "~/.bashrc"
	case "fish":
		return "~/.config/fish/config.fish"
	case "pwsh":
		return "$PROFILE"
	default:
		return "~/." + shell + "rc"
	}
}
