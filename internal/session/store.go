package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store loads and saves the shared session.
type Store interface {
	Save(s *State) error
	// Load returns an empty State when nothing has been saved yet.
	Load() (*State, error)
	Delete() error
}

type fileStore struct {
	path string
}

// NewStore returns the Store at $XDG_DATA_HOME/venvterm/session.json,
// falling back to ~/.local/share when XDG_DATA_HOME is unset.
func NewStore() (Store, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, fmt.Errorf("session directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session directory: %w", err)
	}
	return &fileStore{path: filepath.Join(dir, "session.json")}, nil
}

func dataDir() (string, error) {
	if base := os.Getenv("XDG_DATA_HOME"); base != "" {
		return filepath.Join(base, "venvterm"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "venvterm"), nil
}

// Save replaces the session file. Readers in other processes see either the
// old or the new contents, never a partial write.
func (f *fileStore) Save(s *State) error {
	s.mu.Lock()
	data, err := json.Marshal(s)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := replaceFile(f.path, data); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (f *fileStore) Load() (*State, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	s := NewState()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", f.path, err)
	}
	if s.Terminals == nil {
		s.Terminals = []Terminal{}
	}
	return s, nil
}

func (f *fileStore) Delete() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}

// replaceFile writes data next to path and renames it into place.
func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*")
	if err != nil {
		return err
	}
	name := tmp.Name()

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
