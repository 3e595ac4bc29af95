package cmd

import (
	"strings"
	"testing"
)

func TestLocateFound(t *testing.T) {
	isolate(t)
	root, script := newWorkspace(t, ".venv")

	out, errOut, err := executeCommand(rootCmd, "locate", "--workspace", root, "--shell", "bash")
	if err != nil {
		t.Fatalf("locate: %v\n%s", err, errOut)
	}
	// script=$(venvterm locate) must capture the path.
	if strings.TrimSpace(out) != script {
		t.Errorf("stdout: got %q, want %q", strings.TrimSpace(out), script)
	}
	if errOut != "" {
		t.Errorf("stderr: got %q, want nothing", errOut)
	}
}

func TestLocateDirArgument(t *testing.T) {
	isolate(t)
	root, script := newWorkspace(t, "env")
	other := t.TempDir()

	out, _, err := executeCommand(rootCmd, "locate", root, "--workspace", other, "--shell", "zsh")
	if err != nil {
		t.Fatalf("locate: %v\n%s", err, out)
	}
	if !strings.Contains(out, script) {
		t.Errorf("expected %q in output, got %q", script, out)
	}
}

func TestLocateNotFound(t *testing.T) {
	isolate(t)
	root, _ := newWorkspace(t, "")

	_, _, err := executeCommand(rootCmd, "locate", "--workspace", root, "--shell", "bash")
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if !strings.Contains(err.Error(), "no virtual environment found") {
		t.Errorf("unexpected error: %v", err)
	}
}

// Without POSIX support only Scripts/Activate.ps1 counts, so a bin/activate
// venv is invisible.
func TestLocatePosixSupportOff(t *testing.T) {
	isolate(t)
	root, _ := newWorkspace(t, ".venv")
	writeFile(t, root+"/.venvtermconfig", `{"posix_support": false}`)

	_, _, err := executeCommand(rootCmd, "locate", "--workspace", root, "--shell", "bash")
	if err == nil {
		t.Fatal("expected no environment with posix_support off")
	}
}
