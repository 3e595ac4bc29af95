// Package ptyhost runs an interactive shell under a pseudo-terminal so
// venvterm can type into it the way an editor's integrated terminal would.
package ptyhost

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/fakeyudi/venvterm/internal/host"
)

// drainTimeout bounds how long Attach waits for output after the shell
// exits; a background job holding the PTY open would otherwise block it.
const drainTimeout = time.Second

// Terminal is a shell process attached to a PTY. It implements host.Terminal.
type Terminal struct {
	id  string
	cmd *exec.Cmd
	ptm *os.File

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	err    error
}

// Spawn starts shellPath in dir with env under a new PTY.
func Spawn(shellPath, dir string, env []string) (*Terminal, error) {
	cmd := exec.Command(shellPath)
	cmd.Dir = dir
	cmd.Env = env

	ptm, err := pty.Start(cmd)
	if err != nil {
		return nil, err
	}

	t := &Terminal{
		id:   uuid.New().String(),
		cmd:  cmd,
		ptm:  ptm,
		done: make(chan struct{}),
	}
	go func() {
		err := cmd.Wait()
		t.mu.Lock()
		t.closed = true
		t.err = err
		t.mu.Unlock()
		close(t.done)
	}()
	return t, nil
}

func (t *Terminal) ID() string { return t.id }

// Show is a no-op: the PTY is always the foreground of its attached TTY.
func (t *Terminal) Show() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return host.ErrTerminalClosed
	}
	return nil
}

// SendText types text into the shell. A newline is sent as a carriage
// return, as a keyboard would.
func (t *Terminal) SendText(text string, newline bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return host.ErrTerminalClosed
	}
	if newline {
		text += "\r"
	}
	if _, err := io.WriteString(t.ptm, text); err != nil {
		if errors.Is(err, os.ErrClosed) {
			return host.ErrTerminalClosed
		}
		return err
	}
	return nil
}

// Done is closed when the shell exits.
func (t *Terminal) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the shell exits and returns its exit error.
func (t *Terminal) Wait() error {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Close kills the shell if it is still running and releases the PTY.
func (t *Terminal) Close() error {
	t.mu.Lock()
	running := !t.closed
	t.closed = true
	t.mu.Unlock()
	if running && t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	return t.ptm.Close()
}

// Attach connects in and out to the shell until it exits or ctx is
// cancelled. When in is a terminal it is switched to raw mode and its size
// is mirrored onto the PTY.
func (t *Terminal) Attach(ctx context.Context, in *os.File, out io.Writer) error {
	if term.IsTerminal(int(in.Fd())) {
		state, err := term.MakeRaw(int(in.Fd()))
		if err != nil {
			return err
		}
		defer term.Restore(int(in.Fd()), state)

		_ = pty.InheritSize(in, t.ptm)
		stop := watchResize(in, t.ptm)
		defer stop()
	}

	// Drain PTY output until the shell exits.
	copied := make(chan struct{})
	go func() {
		_, _ = io.Copy(out, t.ptm)
		close(copied)
	}()
	go func() {
		_, _ = io.Copy(ptyWriter{t}, in)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
	}
	// Let the last output reach the user before returning.
	select {
	case <-copied:
	case <-ctx.Done():
	case <-time.After(drainTimeout):
	}
	return nil
}

// ptyWriter forwards keyboard input while the shell is alive.
type ptyWriter struct{ t *Terminal }

func (w ptyWriter) Write(p []byte) (int, error) {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()
	if w.t.closed {
		return 0, host.ErrTerminalClosed
	}
	return w.t.ptm.Write(p)
}
