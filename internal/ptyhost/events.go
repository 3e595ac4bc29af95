package ptyhost

import "github.com/fakeyudi/venvterm/internal/host"

// source reports the lifecycle of one PTY terminal.
type source struct {
	events chan host.Event
}

func (s *source) Events() <-chan host.Event { return s.events }

// Watch returns an EventSource for t. It delivers Opened at once and Closed
// after the shell has exited and release has returned, then closes the
// channel. release may be nil.
func Watch(t *Terminal, release func()) host.EventSource {
	s := &source{events: make(chan host.Event, 2)}
	s.events <- host.Event{Kind: host.TerminalOpened, Terminal: t}
	go func() {
		<-t.Done()
		if release != nil {
			release()
		}
		s.events <- host.Event{Kind: host.TerminalClosed}
		close(s.events)
	}()
	return s
}
