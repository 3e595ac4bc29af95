package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SetupResult is what the setup wizard collected.
type SetupResult struct {
	Config Config
	// PluginShell is the shell to install the startup plugin for, or "" to
	// skip installation.
	PluginShell string
}

// RunSetup runs the interactive setup wizard on r and w.
// If existing is non-nil, it is used as the default for each prompt (edit mode).
func RunSetup(r io.Reader, w io.Writer, existing *Config) (*SetupResult, error) {
	br := bufio.NewReader(r)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(w, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(w, "%s: ", prompt)
		}
		line, err := br.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askBool := func(prompt string, defaultVal bool) (bool, error) {
		def := "n"
		if defaultVal {
			def = "y"
		}
		ans, err := ask(prompt+" (y/n)", def)
		if err != nil {
			return false, err
		}
		ans = strings.ToLower(ans)
		return ans == "y" || ans == "yes", nil
	}

	cfg := Defaults()
	if existing != nil {
		cfg = Merge(existing, nil)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(w, "  │        venvterm — setup         │")
	fmt.Fprintln(w, "  └─────────────────────────────────┘")
	fmt.Fprintln(w)

	for {
		ans, err := ask("  Activate venvs in new terminals (ask/always/never)", string(cfg.Preference()))
		if err != nil {
			return nil, err
		}
		p, perr := ParsePreference(ans)
		if perr == nil {
			cfg.ActivationPreference = p
			break
		}
		fmt.Fprintf(w, "  %v\n", perr)
	}

	show, err := askBool("  Show a notification after each activation", cfg.ShowDetail())
	if err != nil {
		return nil, err
	}
	cfg.ShowDetailNotification = boolPtr(show)

	posix, err := askBool("  Activate in non-PowerShell shells (bash, zsh, fish)", cfg.Posix())
	if err != nil {
		return nil, err
	}
	cfg.PosixSupport = boolPtr(posix)

	res := &SetupResult{Config: cfg}
	install, err := askBool("  Install the shell startup plugin", true)
	if err != nil {
		return nil, err
	}
	if install {
		shell, err := ask("  Shell (bash/zsh/fish/pwsh)", detectShell())
		if err != nil {
			return nil, err
		}
		res.PluginShell = shell
	}

	fmt.Fprintln(w)
	return res, nil
}

// detectShell returns the base name of the current shell.
func detectShell() string {
	shell := filepath.Base(os.Getenv("SHELL"))
	switch shell {
	case "zsh", "bash", "fish":
		return shell
	}
	return "bash"
}
