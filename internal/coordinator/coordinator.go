// Package coordinator decides whether a newly opened terminal gets the
// workspace's virtual environment activated, and does the activation.
package coordinator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fakeyudi/venvterm/internal/config"
	"github.com/fakeyudi/venvterm/internal/host"
	"github.com/fakeyudi/venvterm/internal/shell"
	"github.com/fakeyudi/venvterm/internal/venv"
)

// PromptMessage is shown when the preference is "ask".
const PromptMessage = "Python virtual environment detected. What would you like to do?"

// The three answers offered by the prompt.
var (
	ChoiceActivateAll  = host.Choice{Key: "all", Label: "Activate in all future terminals"}
	ChoiceActivateOnce = host.Choice{Key: "once", Label: "Activate in this terminal only"}
	ChoiceSkip         = host.Choice{Key: "skip", Label: "Don't activate"}
)

// Choices returns the prompt options in display order.
func Choices() []host.Choice {
	return []host.Choice{ChoiceActivateAll, ChoiceActivateOnce, ChoiceSkip}
}

// Outcome summarizes what OnTerminalOpened did.
type Outcome int

const (
	OutcomeNoEnvironment Outcome = iota
	OutcomeDisabled
	OutcomeUnsupported
	OutcomeSkipped
	OutcomeActivated
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoEnvironment:
		return "no-environment"
	case OutcomeDisabled:
		return "disabled"
	case OutcomeUnsupported:
		return "unsupported"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeActivated:
		return "activated"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Locator finds the activation script for a workspace root.
type Locator interface {
	Locate(root string) (string, bool, error)
}

// Deps are the collaborators a Coordinator needs. Logger may be nil.
type Deps struct {
	Locator   Locator
	Session   SessionContext
	Terminals host.Terminals
	Notifier  host.Notifier
	Prompter  host.Prompter
	Logger    *slog.Logger
}

// Coordinator reacts to terminal lifecycle events.
type Coordinator struct {
	workspace string
	settings  config.Config
	dialect   shell.Dialect

	locator   Locator
	session   SessionContext
	terminals host.Terminals
	notifier  host.Notifier
	prompter  host.Prompter
	logger    *slog.Logger

	// afterFunc schedules the delayed clear; replaced in tests.
	afterFunc func(time.Duration, func())
	pending   sync.WaitGroup

	onOpened func(host.Terminal, Outcome)
}

// New returns a Coordinator for the workspace root using settings and the
// given shell dialect.
func New(workspace string, settings config.Config, dialect shell.Dialect, deps Deps) *Coordinator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	session := deps.Session
	if session == nil {
		session = &MemorySession{}
	}
	return &Coordinator{
		workspace: workspace,
		settings:  settings,
		dialect:   dialect,
		locator:   deps.Locator,
		session:   session,
		terminals: deps.Terminals,
		notifier:  deps.Notifier,
		prompter:  deps.Prompter,
		logger:    logger,
		afterFunc: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// SetAfterFunc replaces the timer used for the delayed clear command.
func (c *Coordinator) SetAfterFunc(f func(time.Duration, func())) {
	c.afterFunc = f
}

// SetOpenedFunc registers f to be called by Run once an open event has been
// handled.
func (c *Coordinator) SetOpenedFunc(f func(host.Terminal, Outcome)) {
	c.onOpened = f
}

// Session returns the session context the coordinator reads and writes.
func (c *Coordinator) Session() SessionContext {
	return c.session
}

// OnTerminalOpened locates the workspace venv and, depending on the
// preference and the session flag, activates it in term, asks the user, or
// does nothing. Failures are reported to the user and never returned.
func (c *Coordinator) OnTerminalOpened(ctx context.Context, term host.Terminal) Outcome {
	script, found, err := c.locator.Locate(c.workspace)
	switch {
	case errors.Is(err, venv.ErrWorkspaceUnavailable):
		return OutcomeNoEnvironment
	case err != nil:
		c.logger.Warn("workspace scan failed", "workspace", c.workspace, "error", err)
		return OutcomeNoEnvironment
	case !found:
		return OutcomeNoEnvironment
	}

	pref := c.settings.Preference()
	if pref == config.PreferenceNever {
		c.logger.Debug("activation disabled by preference", "script", script)
		return OutcomeDisabled
	}
	if !c.supported() {
		c.logger.Info("activation skipped: shell not supported", "shell", c.dialect.Name())
		return OutcomeUnsupported
	}

	if pref == config.PreferenceAlways || c.session.ActivateAll() {
		return c.activateOutcome(ctx, script, term)
	}

	choice, err := c.prompter.Choose(ctx, PromptMessage, Choices())
	if err != nil {
		c.logger.Debug("prompt failed, treating as dismissed", "error", err)
		choice = host.ChoiceDismissed
	}

	switch choice.Key {
	case ChoiceActivateAll.Key:
		c.session.SetActivateAll(true)
		return c.activateOutcome(ctx, script, term)
	case ChoiceActivateOnce.Key:
		return c.activateOutcome(ctx, script, term)
	default:
		if c.settings.ShowDetail() {
			c.notifier.Info("Virtual environment activation cancelled.")
		}
		return OutcomeSkipped
	}
}

// OnTerminalClosed resets the session flag once no terminals remain open.
func (c *Coordinator) OnTerminalClosed(remaining int) {
	if remaining > 0 {
		return
	}
	if c.session.ActivateAll() {
		c.logger.Info("all terminals closed, resetting session")
	}
	c.session.SetActivateAll(false)
}

// Activate sends the activation command for script to term, then the clear
// command after the configured delay. A nil term means the focused terminal,
// or a new one when none is focused. Errors are also shown to the user.
func (c *Coordinator) Activate(ctx context.Context, script string, term host.Terminal) error {
	if !c.supported() {
		return ErrShellUnsupported
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if term == nil {
		term = c.terminals.Active()
	}
	if term == nil {
		created, err := c.terminals.Create()
		if err != nil {
			return c.fail(&ActivationSendError{Err: err})
		}
		term = created
	}

	if err := term.Show(); err != nil {
		return c.fail(&ActivationSendError{Terminal: term.ID(), Err: err})
	}
	if err := term.SendText(c.dialect.ActivateCommand(script), true); err != nil {
		return c.fail(&ActivationSendError{Terminal: term.ID(), Err: err})
	}

	clearCmd := c.dialect.ClearCommand()
	c.pending.Add(1)
	c.afterFunc(c.settings.ClearDelay(), func() {
		defer c.pending.Done()
		if err := term.SendText(clearCmd, true); err != nil {
			c.logger.Debug("clear skipped", "terminal", term.ID(), "error", err)
		}
	})

	c.logger.Info("virtual environment activated", "terminal", term.ID(), "script", script)
	if c.settings.ShowDetail() {
		c.notifier.Info("Virtual environment activated ✅")
	}
	return nil
}

// Wait blocks until every scheduled clear command has been sent.
func (c *Coordinator) Wait() {
	c.pending.Wait()
}

// Run handles events from src until ctx is cancelled or the source closes.
// Each open event is handled on its own goroutine so a close can be
// processed while a prompt is still waiting for the user.
func (c *Coordinator) Run(ctx context.Context, src host.EventSource) error {
	var handlers sync.WaitGroup
	defer handlers.Wait()

	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Kind {
			case host.TerminalOpened:
				handlers.Add(1)
				go func(t host.Terminal) {
					defer handlers.Done()
					outcome := c.OnTerminalOpened(ctx, t)
					c.logger.Debug("terminal opened", "outcome", outcome)
					if c.onOpened != nil {
						c.onOpened(t, outcome)
					}
				}(ev.Terminal)
			case host.TerminalClosed:
				c.OnTerminalClosed(c.terminals.Count())
			}
		}
	}
}

func (c *Coordinator) activateOutcome(ctx context.Context, script string, term host.Terminal) Outcome {
	if err := c.Activate(ctx, script, term); err != nil {
		return OutcomeFailed
	}
	return OutcomeActivated
}

func (c *Coordinator) supported() bool {
	return shell.IsPowerShell(c.dialect) || c.settings.Posix()
}

func (c *Coordinator) fail(err error) error {
	c.logger.Error("activation failed", "error", err)
	c.notifier.Error("Failed to activate the virtual environment: " + err.Error())
	return err
}
