// Package host declares the collaborators venvterm talks to when a terminal
// opens or closes. The hook and PTY hosts implement them; tests use the fakes
// in hosttest.
package host

import (
	"context"
	"errors"
)

// ErrTerminalClosed is returned by Terminal.SendText once the underlying
// shell session has gone away.
var ErrTerminalClosed = errors.New("terminal closed")

// Terminal is an interactive shell session venvterm can type into.
type Terminal interface {
	ID() string
	// Show brings the terminal to the foreground where the host supports it.
	Show() error
	// SendText submits text to the shell. When newline is true the text is
	// followed by a line break so the shell executes it.
	SendText(text string, newline bool) error
}

// Terminals is the host's view of all open terminal sessions.
type Terminals interface {
	// Active returns the focused terminal, or nil when none is focused.
	Active() Terminal
	Create() (Terminal, error)
	Count() int
}

// Notifier shows user-visible messages.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

// Choice is one labelled option of a prompt.
type Choice struct {
	Key   string
	Label string
}

// ChoiceDismissed is returned by a Prompter when the user closes the prompt
// without picking anything.
var ChoiceDismissed = Choice{Key: "dismissed"}

// Prompter asks the user to pick one of a fixed set of options.
type Prompter interface {
	Choose(ctx context.Context, message string, choices []Choice) (Choice, error)
}

// EventKind distinguishes terminal lifecycle events.
type EventKind int

const (
	TerminalOpened EventKind = iota
	TerminalClosed
)

func (k EventKind) String() string {
	switch k {
	case TerminalOpened:
		return "opened"
	case TerminalClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is delivered by an EventSource. Terminal is nil for close events.
type Event struct {
	Kind     EventKind
	Terminal Terminal
}

// EventSource delivers terminal lifecycle events in order. The channel is
// closed when the host shuts down.
type EventSource interface {
	Events() <-chan Event
}
