// Package tui renders venvterm's prompt and notifications in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	"github.com/fakeyudi/venvterm/internal/host"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	messageStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	bulletStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// ── Key bindings ─────────────────

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Dismiss key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k", "shift+tab"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j", "tab"), key.WithHelp("↓/j", "down")),
	Select:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select")),
	Dismiss: key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("esc", "dismiss")),
}

// ── Model ────────────────────

// promptModel is the Bubble Tea model for a single choice prompt.
type promptModel struct {
	message string
	choices []host.Choice
	cursor  int
	chosen  int // -1 until the user picks
	done    bool
}

func newPromptModel(message string, choices []host.Choice) promptModel {
	return promptModel{message: message, choices: choices, chosen: -1}
}

func (m promptModel) Init() tea.Cmd { return nil }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || m.done {
		return m, nil
	}

	switch {
	case key.Matches(km, keys.Dismiss):
		m.done = true
		return m, tea.Quit
	case key.Matches(km, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, keys.Down):
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case key.Matches(km, keys.Select):
		if len(m.choices) > 0 {
			m.chosen = m.cursor
		}
		m.done = true
		return m, tea.Quit
	default:
		// Digits pick an option directly.
		s := km.String()
		if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			if i := int(s[0] - '1'); i < len(m.choices) {
				m.cursor = i
				m.chosen = i
				m.done = true
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m promptModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("venvterm"))
	b.WriteString(" ")
	b.WriteString(messageStyle.Render(m.message))
	b.WriteString("\n\n")
	for i, c := range m.choices {
		label := fmt.Sprintf("%d. %s", i+1, c.Label)
		if i == m.cursor {
			b.WriteString(bulletStyle.Render("› ") + selectedRowStyle.Render(label))
		} else {
			b.WriteString("  " + rowStyle.Render(label))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(strings.Join([]string{
		keys.Up.Help().Key + " " + keys.Up.Help().Desc,
		keys.Down.Help().Key + " " + keys.Down.Help().Desc,
		keys.Select.Help().Key + " " + keys.Select.Help().Desc,
		keys.Dismiss.Help().Key + " " + keys.Dismiss.Help().Desc,
	}, " • ")))
	b.WriteString("\n")
	return b.String()
}

// result returns the chosen option or host.ChoiceDismissed.
func (m promptModel) result() host.Choice {
	if m.chosen < 0 || m.chosen >= len(m.choices) {
		return host.ChoiceDismissed
	}
	return m.choices[m.chosen]
}

// ErrNotInteractive is returned by Prompt.Choose when its input is not a
// terminal.
var ErrNotInteractive = errors.New("prompt input is not a terminal")

// Prompt is a host.Prompter that asks in the terminal.
type Prompt struct {
	In  io.Reader
	Out io.Writer
}

// NewPrompt reads keys from stdin and draws on stderr, leaving stdout free
// for text the shell evaluates.
func NewPrompt() *Prompt {
	return &Prompt{In: os.Stdin, Out: os.Stderr}
}

// Choose runs the prompt until the user picks an option or dismisses it.
func (p *Prompt) Choose(ctx context.Context, message string, choices []host.Choice) (host.Choice, error) {
	if f, ok := p.In.(*os.File); ok && !term.IsTerminal(f.Fd()) {
		return host.ChoiceDismissed, ErrNotInteractive
	}

	prog := tea.NewProgram(newPromptModel(message, choices),
		tea.WithContext(ctx),
		tea.WithInput(p.In),
		tea.WithOutput(p.Out),
	)
	final, err := prog.Run()
	if err != nil {
		return host.ChoiceDismissed, err
	}
	m, ok := final.(promptModel)
	if !ok {
		return host.ChoiceDismissed, nil
	}
	return m.result(), nil
}
