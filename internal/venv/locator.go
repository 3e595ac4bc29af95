// Package venv finds Python virtual environments inside a workspace.
//
// A directory is a virtual environment when it directly contains the
// pyvenv.cfg marker and one of the layout's activation scripts. Only the
// immediate children of the workspace root are considered.
package venv

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// MarkerFile is the configuration file every venv writes at its top level.
const MarkerFile = "pyvenv.cfg"

// ErrWorkspaceUnavailable is returned when no workspace root is configured.
var ErrWorkspaceUnavailable = errors.New("no workspace folder configured")

// ScanError is returned when the workspace root itself cannot be listed.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scanning workspace %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Layout describes what a qualifying directory must contain.
type Layout struct {
	Marker string
	// Scripts are activation script paths relative to the candidate
	// directory, checked in order.
	Scripts []string
}

// ReferenceLayout recognizes only the Windows PowerShell activation script.
// It is used as a sentinel on every platform unless POSIX support is on.
var ReferenceLayout = Layout{
	Marker:  MarkerFile,
	Scripts: []string{filepath.Join("Scripts", "Activate.ps1")},
}

// LayoutFor returns a layout that accepts the given script paths, falling
// back to ReferenceLayout when scripts is empty.
func LayoutFor(scripts []string) Layout {
	if len(scripts) == 0 {
		return ReferenceLayout
	}
	return Layout{Marker: MarkerFile, Scripts: scripts}
}

// Locator scans a workspace root one level deep.
type Locator struct {
	Layout Layout
	Logger *slog.Logger
}

// NewLocator returns a Locator for layout. A nil logger discards output.
func NewLocator(layout Layout, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if layout.Marker == "" {
		layout.Marker = MarkerFile
	}
	return &Locator{Layout: layout, Logger: logger}
}

// Locate returns the activation script of the first child directory of root
// that qualifies. Children are visited in os.ReadDir order, which is sorted
// by name, so the result is deterministic for a given tree.
//
// Errors reading an individual child are treated as "does not qualify".
func (l *Locator) Locate(root string) (string, bool, error) {
	if root == "" {
		return "", false, ErrWorkspaceUnavailable
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", false, &ScanError{Root: root, Err: err}
	}

	for _, entry := range entries {
		dir := filepath.Join(root, entry.Name())
		if !isDir(dir, entry) {
			continue
		}
		if script, ok := l.qualify(dir); ok {
			l.logger().Debug("virtual environment found", "dir", dir, "script", script)
			return script, true, nil
		}
	}

	l.logger().Debug("no virtual environment found", "root", root)
	return "", false, nil
}

// qualify reports whether dir holds the marker and an activation script.
func (l *Locator) qualify(dir string) (string, bool) {
	marker := l.Layout.Marker
	if marker == "" {
		marker = MarkerFile
	}
	if !isFile(filepath.Join(dir, marker)) {
		return "", false
	}
	for _, rel := range l.Layout.Scripts {
		script := filepath.Join(dir, rel)
		if isFile(script) {
			return script, true
		}
	}
	return "", false
}

func (l *Locator) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.Logger
}

// isDir follows symlinks so a linked venv still counts.
func isDir(path string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
