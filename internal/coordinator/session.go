package coordinator

import "sync"

// SessionContext holds the "activate in all future terminals" flag. It is
// passed to the Coordinator explicitly so tests and hosts control its
// lifetime.
type SessionContext interface {
	ActivateAll() bool
	SetActivateAll(bool)
}

// MemorySession is a SessionContext that lives for the current process.
type MemorySession struct {
	mu          sync.Mutex
	activateAll bool
}

func (s *MemorySession) ActivateAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activateAll
}

func (s *MemorySession) SetActivateAll(v bool) {
	s.mu.Lock()
	s.activateAll = v
	s.mu.Unlock()
}
