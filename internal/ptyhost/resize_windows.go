//go:build windows

package ptyhost

import "os"

func watchResize(tty, ptm *os.File) (stop func()) {
	return func() {}
}
