// Package session persists the set of open terminals and the
// "activate in all terminals" flag shared by every venvterm process.
//
// A session spans from the moment no terminals are open to the next such
// moment; the flag never survives that boundary.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Terminal records one open terminal.
type Terminal struct {
	ID        string    `json:"id"`
	PID       int       `json:"pid"`
	Shell     string    `json:"shell"`
	Workspace string    `json:"workspace"`
	OpenedAt  time.Time `json:"opened_at"`
}

// State is the persisted session.
type State struct {
	mu sync.Mutex

	ActivateAllTerminals bool       `json:"activate_all_terminals"`
	Terminals            []Terminal `json:"terminals"`
}

// NewState returns an empty session.
func NewState() *State {
	return &State{Terminals: []Terminal{}}
}

// ActivateAll reports whether the user opted in to activating every
// terminal for the rest of the session.
func (s *State) ActivateAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ActivateAllTerminals
}

// SetActivateAll records the user's choice.
func (s *State) SetActivateAll(v bool) {
	s.mu.Lock()
	s.ActivateAllTerminals = v
	s.mu.Unlock()
}

// Open registers a new terminal and returns it.
func (s *State) Open(pid int, shell, workspace string) Terminal {
	t := Terminal{
		ID:        uuid.New().String(),
		PID:       pid,
		Shell:     shell,
		Workspace: workspace,
		OpenedAt:  time.Now(),
	}
	s.mu.Lock()
	s.Terminals = append(s.Terminals, t)
	s.mu.Unlock()
	return t
}

// Close unregisters the terminal with id and reports whether it was open.
// When the last terminal closes the session flag is reset.
func (s *State) Close(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.Terminals {
		if t.ID == id {
			s.Terminals = append(s.Terminals[:i], s.Terminals[i+1:]...)
			s.resetIfEmpty()
			return true
		}
	}
	return false
}

// OpenCount returns the number of registered terminals.
func (s *State) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Terminals)
}

// List returns a copy of the registered terminals.
func (s *State) List() []Terminal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Terminal(nil), s.Terminals...)
}

// Prune drops terminals whose process is no longer alive and returns how
// many were removed. Terminals without a PID are kept.
func (s *State) Prune(alive func(pid int) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.Terminals[:0]
	removed := 0
	for _, t := range s.Terminals {
		if t.PID > 0 && !alive(t.PID) {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	s.Terminals = kept
	if removed > 0 {
		s.resetIfEmpty()
	}
	return removed
}

func (s *State) resetIfEmpty() {
	if len(s.Terminals) == 0 {
		s.ActivateAllTerminals = false
	}
}
