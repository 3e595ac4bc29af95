// Package hookhost is the terminal host used by the shell plugins. The
// plugin evaluates whatever venvterm prints on stdout, so "typing into the
// terminal" means writing a line to that stream.
package hookhost

import (
	"fmt"
	"io"
	"sync"

	"github.com/fakeyudi/venvterm/internal/host"
)

// Terminal writes submitted text to W, one command per line.
type Terminal struct {
	id string

	mu     sync.Mutex
	w      io.Writer
	closed bool
}

// NewTerminal returns a Terminal with the given registry id.
func NewTerminal(id string, w io.Writer) *Terminal {
	return &Terminal{id: id, w: w}
}

func (t *Terminal) ID() string { return t.id }

// Show is a no-op; the shell running the hook is already in front.
func (t *Terminal) Show() error { return nil }

func (t *Terminal) SendText(text string, newline bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return host.ErrTerminalClosed
	}
	if newline {
		text += "\n"
	}
	_, err := fmt.Fprint(t.w, text)
	return err
}

// Close makes later sends fail with host.ErrTerminalClosed. Call it once
// the output has been handed to the shell.
func (t *Terminal) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}
