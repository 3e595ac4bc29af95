//go:build !windows

package ptyhost

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
)

// watchResize copies the size of tty onto ptm whenever the window changes.
func watchResize(tty, ptm *os.File) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	go func() {
		for range ch {
			_ = pty.InheritSize(tty, ptm)
		}
	}()
	return func() {
		signal.Stop(ch)
		close(ch)
	}
}
