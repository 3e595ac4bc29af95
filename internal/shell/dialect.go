package shell

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Dialect knows how to express venvterm's commands in one shell language.
type Dialect interface {
	Name() string
	// ActivateCommand returns the line that sources script in the current shell.
	ActivateCommand(script string) string
	ClearCommand() string
	// SetEnv returns a line exporting name=value to the current shell.
	SetEnv(name, value string) string
	// ScriptCandidates lists activation script paths relative to a venv
	// directory that this shell can source, in preference order.
	ScriptCandidates() []string
}

// PowerShell covers Windows PowerShell and pwsh.
type PowerShell struct{}

func (PowerShell) Name() string { return "pwsh" }

func (PowerShell) ActivateCommand(script string) string {
	return "& " + psQuote(script)
}

func (PowerShell) ClearCommand() string { return "cls" }

func (PowerShell) SetEnv(name, value string) string {
	return fmt.Sprintf("$env:%s = %s", name, psQuote(value))
}

func (PowerShell) ScriptCandidates() []string {
	return []string{
		filepath.Join("Scripts", "Activate.ps1"),
		filepath.Join("bin", "Activate.ps1"),
	}
}

// Posix covers sh, bash and zsh.
type Posix struct {
	// Shell is the concrete shell name, used only for display.
	Shell string
}

func (p Posix) Name() string {
	if p.Shell == "" {
		return "sh"
	}
	return p.Shell
}

func (Posix) ActivateCommand(script string) string {
	return ". " + shQuote(script)
}

func (Posix) ClearCommand() string { return "clear" }

func (Posix) SetEnv(name, value string) string {
	return fmt.Sprintf("export %s=%s", name, shQuote(value))
}

func (Posix) ScriptCandidates() []string {
	return []string{
		filepath.Join("bin", "activate"),
		filepath.Join("Scripts", "activate"),
	}
}

// Fish is the fish shell.
type Fish struct{}

func (Fish) Name() string { return "fish" }

func (Fish) ActivateCommand(script string) string {
	return "source " + fishQuote(script)
}

func (Fish) ClearCommand() string { return "clear" }

func (Fish) SetEnv(name, value string) string {
	return fmt.Sprintf("set -gx %s %s", name, fishQuote(value))
}

func (Fish) ScriptCandidates() []string {
	return []string{filepath.Join("bin", "activate.fish")}
}

// IsPowerShell reports whether d is the PowerShell dialect.
func IsPowerShell(d Dialect) bool {
	_, ok := d.(PowerShell)
	return ok
}

// ForName resolves a shell name such as "bash" or "pwsh" to its dialect.
// A full path is accepted; only its base name is used.
func ForName(name string) (Dialect, error) {
	base := strings.ToLower(filepath.Base(name))
	base = strings.TrimSuffix(base, ".exe")
	switch base {
	case "pwsh", "powershell":
		return PowerShell{}, nil
	case "bash", "zsh", "sh", "dash", "ksh":
		return Posix{Shell: base}, nil
	case "fish":
		return Fish{}, nil
	default:
		return nil, fmt.Errorf("unsupported shell: %s (supported: bash, zsh, sh, fish, pwsh)", name)
	}
}

// Detect picks a dialect for the host: PowerShell on Windows, otherwise the
// shell named by $SHELL, falling back to POSIX sh.
func Detect(goos, shellEnv string) Dialect {
	if goos == "windows" {
		return PowerShell{}
	}
	if shellEnv != "" {
		if d, err := ForName(shellEnv); err == nil {
			return d
		}
	}
	return Posix{Shell: "sh"}
}

func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func fishQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}
