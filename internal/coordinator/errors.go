package coordinator

import (
	"errors"
	"fmt"
)

// ErrShellUnsupported is returned by Activate when the terminal's shell is
// not PowerShell and POSIX support is switched off.
var ErrShellUnsupported = errors.New("activation is disabled for this shell")

// ActivationSendError wraps a failure to deliver text to a terminal.
type ActivationSendError struct {
	Terminal string
	Err      error
}

func (e *ActivationSendError) Error() string {
	if e.Terminal == "" {
		return fmt.Sprintf("activating virtual environment: %v", e.Err)
	}
	return fmt.Sprintf("activating virtual environment in terminal %s: %v", e.Terminal, e.Err)
}

func (e *ActivationSendError) Unwrap() error {
	return e.Err
}
