package session

import (
	"errors"
	"io"
	"log/slog"

	"github.com/fakeyudi/venvterm/internal/host"
)

// Registry reads and writes the shared session on every call so several
// venvterm processes see each other's terminals. It implements the
// coordinator's SessionContext.
type Registry struct {
	store  Store
	logger *slog.Logger
	alive  func(pid int) bool
}

// NewRegistry returns a Registry over store. A nil logger discards output.
func NewRegistry(store Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{store: store, logger: logger, alive: ProcessAlive}
}

// SetProcessCheck replaces the liveness check used to prune terminals.
func (r *Registry) SetProcessCheck(alive func(pid int) bool) {
	r.alive = alive
}

// Snapshot loads the current session with dead terminals pruned.
func (r *Registry) Snapshot() (*State, error) {
	s, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	if n := s.Prune(r.alive); n > 0 {
		r.logger.Debug("pruned dead terminals", "count", n)
	}
	return s, nil
}

// Open registers a terminal owned by pid.
func (r *Registry) Open(pid int, shell, workspace string) (Terminal, error) {
	var t Terminal
	err := r.update(func(s *State) {
		t = s.Open(pid, shell, workspace)
	})
	return t, err
}

// Close unregisters the terminal and returns how many remain open.
func (r *Registry) Close(id string) (int, error) {
	remaining := 0
	err := r.update(func(s *State) {
		if !s.Close(id) {
			r.logger.Debug("closing unknown terminal", "id", id)
		}
		remaining = s.OpenCount()
	})
	return remaining, err
}

// Count returns the number of live terminals, or 0 if the session cannot be
// read.
func (r *Registry) Count() int {
	s, err := r.Snapshot()
	if err != nil {
		r.logger.Warn("reading session", "error", err)
		return 0
	}
	return s.OpenCount()
}

// ActivateAll reports the session flag. Read errors count as false.
func (r *Registry) ActivateAll() bool {
	s, err := r.Snapshot()
	if err != nil {
		r.logger.Warn("reading session", "error", err)
		return false
	}
	return s.ActivateAll()
}

// SetActivateAll persists the session flag. Write errors are logged; the
// flag then simply does not carry over to other terminals.
func (r *Registry) SetActivateAll(v bool) {
	if err := r.update(func(s *State) { s.SetActivateAll(v) }); err != nil {
		r.logger.Warn("saving session", "error", err)
	}
}

// Reset forgets every terminal and the flag.
func (r *Registry) Reset() error {
	return r.store.Delete()
}

func (r *Registry) update(fn func(*State)) error {
	s, err := r.Snapshot()
	if err != nil {
		return err
	}
	fn(s)
	return r.store.Save(s)
}

// errNoCreate is returned by Terminals.Create: venvterm only ever types into
// the terminal that reported itself.
var errNoCreate = errors.New("this host cannot open new terminals")

// terminals adapts a Registry and the current terminal to host.Terminals.
type terminals struct {
	registry *Registry
	focused  host.Terminal
}

// Terminals returns a host.Terminals whose only reachable terminal is
// focused and whose count comes from the registry.
func Terminals(r *Registry, focused host.Terminal) host.Terminals {
	return &terminals{registry: r, focused: focused}
}

func (t *terminals) Active() host.Terminal {
	return t.focused
}

func (t *terminals) Create() (host.Terminal, error) {
	if t.focused != nil {
		return t.focused, nil
	}
	return nil, errNoCreate
}

func (t *terminals) Count() int {
	return t.registry.Count()
}
