package cmd

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestStatusReportsEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("VENVTERM_PREFERENCE", "always")
	root, script := newWorkspace(t, ".venv")

	out, _, err := executeCommand(rootCmd, "status", "--workspace", root)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{
		"Workspace: " + root,
		"Environment: " + script,
		"Preference: always",
		"Open terminals: 0",
		"Activate all: false",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestStatusNoEnvironment(t *testing.T) {
	isolate(t)
	root, _ := newWorkspace(t, "")

	out, _, err := executeCommand(rootCmd, "status", "--workspace", root)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Environment: (none)") {
		t.Errorf("expected no environment, got:\n%s", out)
	}
}

// Status counts accuracy: the open terminal count matches the registry.
func TestStatusCountsAccuracy(t *testing.T) {
	isolate(t)
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 10).Draw(rt, "n")
		flag := rapid.Bool().Draw(rt, "flag")

		t.Setenv("HOME", t.TempDir())
		t.Setenv("XDG_DATA_HOME", t.TempDir())
		root := t.TempDir()

		registry, err := newRegistry()
		if err != nil {
			rt.Fatalf("newRegistry: %v", err)
		}
		for i := 0; i < n; i++ {
			if _, err := registry.Open(os.Getpid(), "bash", root); err != nil {
				rt.Fatalf("Open: %v", err)
			}
		}
		registry.SetActivateAll(flag)

		out, _, err := executeCommand(rootCmd, "status", "--workspace", root)
		if err != nil {
			rt.Fatalf("status command error: %v", err)
		}

		wantCount := fmt.Sprintf("Open terminals: %d", n)
		wantFlag := fmt.Sprintf("Activate all: %t", flag)
		if !strings.Contains(out, wantCount) {
			rt.Errorf("expected output to contain %q, got:\n%s", wantCount, out)
		}
		if !strings.Contains(out, wantFlag) {
			rt.Errorf("expected output to contain %q, got:\n%s", wantFlag, out)
		}
	})
}

func TestReset(t *testing.T) {
	isolate(t)
	root, _ := newWorkspace(t, "")

	registry, err := newRegistry()
	if err != nil {
		t.Fatalf("newRegistry: %v", err)
	}
	if _, err := registry.Open(os.Getpid(), "zsh", root); err != nil {
		t.Fatalf("Open: %v", err)
	}
	registry.SetActivateAll(true)

	out, _, err := executeCommand(rootCmd, "reset", "--workspace", root)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !strings.Contains(out, "session cleared") {
		t.Errorf("unexpected output: %q", out)
	}
	s := loadRegistry(t)
	if s.OpenCount() != 0 || s.ActivateAll() {
		t.Errorf("session not cleared: %d terminals, flag %t", s.OpenCount(), s.ActivateAll())
	}
}
