// Package hosttest provides in-memory host collaborators for tests.
package hosttest

import (
	"context"
	"sync"

	"github.com/fakeyudi/venvterm/internal/host"
)

// Terminal records every line sent to it.
type Terminal struct {
	Name string

	mu      sync.Mutex
	lines   []string
	shown   int
	closed  bool
	sendErr error
}

// NewTerminal returns an open fake terminal.
func NewTerminal(name string) *Terminal {
	return &Terminal{Name: name}
}

func (t *Terminal) ID() string { return t.Name }

func (t *Terminal) Show() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return host.ErrTerminalClosed
	}
	t.shown++
	return nil
}

func (t *Terminal) SendText(text string, newline bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	if t.closed {
		return host.ErrTerminalClosed
	}
	t.lines = append(t.lines, text)
	return nil
}

// FailWith makes every later SendText return err.
func (t *Terminal) FailWith(err error) {
	t.mu.Lock()
	t.sendErr = err
	t.mu.Unlock()
}

// Close simulates the user disposing of the terminal.
func (t *Terminal) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

// Lines returns a copy of the text sent so far.
func (t *Terminal) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

// Shown reports how many times Show succeeded.
func (t *Terminal) Shown() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shown
}

// Terminals is a fixed set of fake terminals.
type Terminals struct {
	mu       sync.Mutex
	Focused  *Terminal
	Open     []*Terminal
	CreateFn func() (*Terminal, error)
}

func (ts *Terminals) Active() host.Terminal {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.Focused == nil {
		return nil
	}
	return ts.Focused
}

func (ts *Terminals) Create() (host.Terminal, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	var t *Terminal
	if ts.CreateFn != nil {
		var err error
		if t, err = ts.CreateFn(); err != nil {
			return nil, err
		}
	} else {
		t = NewTerminal("created")
	}
	ts.Open = append(ts.Open, t)
	return t, nil
}

func (ts *Terminals) Count() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.Open)
}

// Notifier collects messages instead of showing them.
type Notifier struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (n *Notifier) Info(msg string) {
	n.mu.Lock()
	n.infos = append(n.infos, msg)
	n.mu.Unlock()
}

func (n *Notifier) Error(msg string) {
	n.mu.Lock()
	n.errors = append(n.errors, msg)
	n.mu.Unlock()
}

func (n *Notifier) Infos() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.infos...)
}

func (n *Notifier) Errors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errors...)
}

// Prompter answers every prompt with Answer (matched by choice key) and
// counts how often it was asked.
type Prompter struct {
	Answer string
	Err    error

	mu    sync.Mutex
	calls int
	last  []host.Choice
}

func (p *Prompter) Choose(ctx context.Context, message string, choices []host.Choice) (host.Choice, error) {
	p.mu.Lock()
	p.calls++
	p.last = choices
	p.mu.Unlock()
	if p.Err != nil {
		return host.ChoiceDismissed, p.Err
	}
	for _, c := range choices {
		if c.Key == p.Answer {
			return c, nil
		}
	}
	return host.ChoiceDismissed, nil
}

// Calls reports how many prompts were shown.
func (p *Prompter) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// LastChoices returns the options offered by the most recent prompt.
func (p *Prompter) LastChoices() []host.Choice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Source is a channel-backed host.EventSource.
type Source chan host.Event

func (s Source) Events() <-chan host.Event { return s }
