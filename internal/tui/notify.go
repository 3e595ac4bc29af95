package tui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoTagStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("82"))

	errorTagStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)

// Notifier is a host.Notifier that prints one styled line per message.
type Notifier struct {
	mu  sync.Mutex
	Out io.Writer
}

// NewNotifier writes to stderr.
func NewNotifier() *Notifier {
	return &Notifier{Out: os.Stderr}
}

func (n *Notifier) Info(msg string) {
	n.print(infoTagStyle.Render("venvterm"), msg)
}

func (n *Notifier) Error(msg string) {
	n.print(errorTagStyle.Render("venvterm error"), msg)
}

func (n *Notifier) print(tag, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.Out, "%s %s\r\n", tag, msg)
}
