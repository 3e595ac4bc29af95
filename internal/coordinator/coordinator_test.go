package coordinator_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fakeyudi/venvterm/internal/config"
	"github.com/fakeyudi/venvterm/internal/coordinator"
	"github.com/fakeyudi/venvterm/internal/host"
	"github.com/fakeyudi/venvterm/internal/host/hosttest"
	"github.com/fakeyudi/venvterm/internal/shell"
	"github.com/fakeyudi/venvterm/internal/venv"
)

const script = "/work/.venv/Scripts/Activate.ps1"

type fakeLocator struct {
	script string
	found  bool
	err    error
	calls  int
}

func (f *fakeLocator) Locate(root string) (string, bool, error) {
	f.calls++
	return f.script, f.found, f.err
}

// timers captures scheduled clear commands instead of running them.
type timers struct {
	mu     sync.Mutex
	delays []time.Duration
	funcs  []func()
}

func (tm *timers) after(d time.Duration, f func()) {
	tm.mu.Lock()
	tm.delays = append(tm.delays, d)
	tm.funcs = append(tm.funcs, f)
	tm.mu.Unlock()
}

func (tm *timers) fire() {
	tm.mu.Lock()
	funcs := tm.funcs
	tm.funcs = nil
	tm.mu.Unlock()
	for _, f := range funcs {
		f()
	}
}

type fixture struct {
	coord     *coordinator.Coordinator
	locator   *fakeLocator
	prompter  *hosttest.Prompter
	notifier  *hosttest.Notifier
	terminals *hosttest.Terminals
	session   *coordinator.MemorySession
	timers    *timers
}

func newFixture(t *testing.T, pref config.Preference, dialect shell.Dialect) *fixture {
	t.Helper()
	settings := config.Defaults()
	settings.ActivationPreference = pref

	f := &fixture{
		locator:   &fakeLocator{script: script, found: true},
		prompter:  &hosttest.Prompter{},
		notifier:  &hosttest.Notifier{},
		terminals: &hosttest.Terminals{},
		session:   &coordinator.MemorySession{},
		timers:    &timers{},
	}
	f.coord = coordinator.New("/work", settings, dialect, coordinator.Deps{
		Locator:   f.locator,
		Session:   f.session,
		Terminals: f.terminals,
		Notifier:  f.notifier,
		Prompter:  f.prompter,
	})
	f.coord.SetAfterFunc(f.timers.after)
	return f
}

func TestNeverPreferenceDoesNothing(t *testing.T) {
	f := newFixture(t, config.PreferenceNever, shell.PowerShell{})
	f.session.SetActivateAll(true)
	term := hosttest.NewTerminal("t1")

	outcome := f.coord.OnTerminalOpened(context.Background(), term)

	assert.Equal(t, coordinator.OutcomeDisabled, outcome)
	assert.Empty(t, term.Lines())
	assert.Zero(t, f.prompter.Calls())
}

func TestNoEnvironmentIsNoop(t *testing.T) {
	f := newFixture(t, config.PreferenceAlways, shell.PowerShell{})
	f.locator.found = false
	term := hosttest.NewTerminal("t1")

	assert.Equal(t, coordinator.OutcomeNoEnvironment, f.coord.OnTerminalOpened(context.Background(), term))
	assert.Empty(t, term.Lines())
	assert.Empty(t, f.notifier.Infos())
}

func TestWorkspaceErrorsAreSilent(t *testing.T) {
	for _, err := range []error{
		venv.ErrWorkspaceUnavailable,
		&venv.ScanError{Root: "/work", Err: errors.New("permission denied")},
	} {
		f := newFixture(t, config.PreferenceAlways, shell.PowerShell{})
		f.locator.err = err
		term := hosttest.NewTerminal("t1")

		assert.Equal(t, coordinator.OutcomeNoEnvironment, f.coord.OnTerminalOpened(context.Background(), term))
		assert.Empty(t, term.Lines())
		assert.Empty(t, f.notifier.Errors())
	}
}

func TestAlwaysActivatesWithoutPrompt(t *testing.T) {
	f := newFixture(t, config.PreferenceAlways, shell.PowerShell{})
	term := hosttest.NewTerminal("t1")

	outcome := f.coord.OnTerminalOpened(context.Background(), term)

	assert.Equal(t, coordinator.OutcomeActivated, outcome)
	assert.Zero(t, f.prompter.Calls())
	assert.Equal(t, []string{"& '" + script + "'"}, term.Lines())
	assert.Equal(t, 1, term.Shown())
	assert.False(t, f.session.ActivateAll(), "always must not be written into the session flag")
}

func TestSessionFlagActivatesWithoutPrompt(t *testing.T) {
	f := newFixture(t, config.PreferenceAsk, shell.PowerShell{})
	f.session.SetActivateAll(true)
	term := hosttest.NewTerminal("t1")

	assert.Equal(t, coordinator.OutcomeActivated, f.coord.OnTerminalOpened(context.Background(), term))
	assert.Zero(t, f.prompter.Calls())
	assert.Len(t, term.Lines(), 1)
}

func TestAskOffersThreeChoices(t *testing.T) {
	f := newFixture(t, config.PreferenceAsk, shell.PowerShell{})
	f.prompter.Answer = coordinator.ChoiceSkip.Key
	term := hosttest.NewTerminal("t1")

	outcome := f.coord.OnTerminalOpened(context.Background(), term)

	assert.Equal(t, coordinator.OutcomeSkipped, outcome)
	assert.Equal(t, coordinator.Choices(), f.prompter.LastChoices())
	assert.Empty(t, term.Lines())
	assert.Equal(t, []string{"Virtual environment activation cancelled."}, f.notifier.Infos())
}

func TestDismissedPromptSkips(t *testing.T) {
	f := newFixture(t, config.PreferenceAsk, shell.PowerShell{})
	f.prompter.Err = errors.New("no tty")
	term := hosttest.NewTerminal("t1")

	assert.Equal(t, coordinator.OutcomeSkipped, f.coord.OnTerminalOpened(context.Background(), term))
	assert.Empty(t, term.Lines())
	assert.False(t, f.session.ActivateAll())
}

func TestActivateOnceLeavesFlag(t *testing.T) {
	f := newFixture(t, config.PreferenceAsk, shell.PowerShell{})
	f.prompter.Answer = coordinator.ChoiceActivateOnce.Key

	assert.Equal(t, coordinator.OutcomeActivated, f.coord.OnTerminalOpened(context.Background(), hosttest.NewTerminal("t1")))
	assert.False(t, f.session.ActivateAll())

	f.coord.OnTerminalOpened(context.Background(), hosttest.NewTerminal("t2"))
	assert.Equal(t, 2, f.prompter.Calls(), "second terminal should be asked again")
}

func TestActivateAllSkipsLaterPrompts(t *testing.T) {
	f := newFixture(t, config.PreferenceAsk, shell.PowerShell{})
	f.prompter.Answer = coordinator.ChoiceActivateAll.Key

	f.coord.OnTerminalOpened(context.Background(), hosttest.NewTerminal("t1"))
	require.True(t, f.session.ActivateAll())

	second := hosttest.NewTerminal("t2")
	assert.Equal(t, coordinator.OutcomeActivated, f.coord.OnTerminalOpened(context.Background(), second))
	assert.Equal(t, 1, f.prompter.Calls())
	assert.Len(t, second.Lines(), 1)
}

func TestClosingAllTerminalsResetsFlag(t *testing.T) {
	f := newFixture(t, config.PreferenceAsk, shell.PowerShell{})
	f.prompter.Answer = coordinator.ChoiceActivateAll.Key
	f.coord.OnTerminalOpened(context.Background(), hosttest.NewTerminal("t1"))
	require.True(t, f.session.ActivateAll())

	f.coord.OnTerminalClosed(1)
	assert.True(t, f.session.ActivateAll(), "flag survives while terminals remain")

	f.coord.OnTerminalClosed(0)
	assert.False(t, f.session.ActivateAll())

	f.coord.OnTerminalOpened(context.Background(), hosttest.NewTerminal("t2"))
	assert.Equal(t, 2, f.prompter.Calls(), "ask must re-prompt after reset")
}

func TestClearFollowsActivationOnSameTerminal(t *testing.T) {
	f := newFixture(t, config.PreferenceAlways, shell.Posix{Shell: "bash"})
	term := hosttest.NewTerminal("t1")
	other := hosttest.NewTerminal("t2")
	f.terminals.Focused = other

	f.coord.OnTerminalOpened(context.Background(), term)
	assert.Equal(t, []string{". '" + script + "'"}, term.Lines(), "clear must wait for the timer")

	f.timers.fire()
	f.coord.Wait()

	assert.Equal(t, []string{". '" + script + "'", "clear"}, term.Lines())
	assert.Empty(t, other.Lines())
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, f.timers.delays)
}

func TestClearOnDisposedTerminalIsQuiet(t *testing.T) {
	f := newFixture(t, config.PreferenceAlways, shell.PowerShell{})
	term := hosttest.NewTerminal("t1")

	f.coord.OnTerminalOpened(context.Background(), term)
	term.Close()
	f.timers.fire()
	f.coord.Wait()

	assert.Len(t, term.Lines(), 1)
	assert.Empty(t, f.notifier.Errors())
}

func TestSendFailureIsReported(t *testing.T) {
	f := newFixture(t, config.PreferenceAlways, shell.PowerShell{})
	term := hosttest.NewTerminal("t1")
	term.FailWith(errors.New("pipe closed"))

	outcome := f.coord.OnTerminalOpened(context.Background(), term)

	assert.Equal(t, coordinator.OutcomeFailed, outcome)
	require.Len(t, f.notifier.Errors(), 1)
	assert.Contains(t, f.notifier.Errors()[0], "pipe closed")
	assert.Empty(t, f.timers.delays, "no clear after a failed activation")
}

func TestActivateUsesFocusedOrNewTerminal(t *testing.T) {
	f := newFixture(t, config.PreferenceAlways, shell.PowerShell{})
	focused := hosttest.NewTerminal("focused")
	f.terminals.Focused = focused

	require.NoError(t, f.coord.Activate(context.Background(), script, nil))
	assert.Len(t, focused.Lines(), 1)

	f.terminals.Focused = nil
	require.NoError(t, f.coord.Activate(context.Background(), script, nil))
	require.Equal(t, 1, f.terminals.Count())
	assert.Len(t, f.terminals.Open[0].Lines(), 1)
}

func TestActivateCreateFailure(t *testing.T) {
	f := newFixture(t, config.PreferenceAlways, shell.PowerShell{})
	f.terminals.CreateFn = func() (*hosttest.Terminal, error) { return nil, errors.New("host busy") }

	err := f.coord.Activate(context.Background(), script, nil)
	var sendErr *coordinator.ActivationSendError
	require.ErrorAs(t, err, &sendErr)
	assert.Len(t, f.notifier.Errors(), 1)
}

func TestPosixSupportOff(t *testing.T) {
	settings := config.Defaults()
	off := false
	settings.PosixSupport = &off
	settings.ActivationPreference = config.PreferenceAlways
	prompter := &hosttest.Prompter{}
	coord := coordinator.New("/work", settings, shell.Posix{}, coordinator.Deps{
		Locator:   &fakeLocator{script: script, found: true},
		Terminals: &hosttest.Terminals{},
		Notifier:  &hosttest.Notifier{},
		Prompter:  prompter,
	})
	term := hosttest.NewTerminal("t1")

	assert.Equal(t, coordinator.OutcomeUnsupported, coord.OnTerminalOpened(context.Background(), term))
	assert.Empty(t, term.Lines())
	assert.ErrorIs(t, coord.Activate(context.Background(), script, term), coordinator.ErrShellUnsupported)

	pwsh := coordinator.New("/work", settings, shell.PowerShell{}, coordinator.Deps{
		Locator:   &fakeLocator{script: script, found: true},
		Terminals: &hosttest.Terminals{},
		Notifier:  &hosttest.Notifier{},
		Prompter:  prompter,
	})
	pwsh.SetAfterFunc(func(time.Duration, func()) {})
	assert.Equal(t, coordinator.OutcomeActivated, pwsh.OnTerminalOpened(context.Background(), term))
}

func TestDetailNotificationsGated(t *testing.T) {
	settings := config.Defaults()
	quiet := false
	settings.ShowDetailNotification = &quiet
	settings.ActivationPreference = config.PreferenceAlways
	notifier := &hosttest.Notifier{}
	coord := coordinator.New("/work", settings, shell.PowerShell{}, coordinator.Deps{
		Locator:   &fakeLocator{script: script, found: true},
		Terminals: &hosttest.Terminals{},
		Notifier:  notifier,
		Prompter:  &hosttest.Prompter{},
	})
	coord.SetAfterFunc(func(time.Duration, func()) {})

	coord.OnTerminalOpened(context.Background(), hosttest.NewTerminal("t1"))
	assert.Empty(t, notifier.Infos())

	failing := hosttest.NewTerminal("t2")
	failing.FailWith(errors.New("boom"))
	coord.OnTerminalOpened(context.Background(), failing)
	assert.Len(t, notifier.Errors(), 1, "errors are always shown")
}

func TestRunHandlesEvents(t *testing.T) {
	f := newFixture(t, config.PreferenceAsk, shell.PowerShell{})
	f.prompter.Answer = coordinator.ChoiceActivateAll.Key
	src := make(hosttest.Source)
	done := make(chan error, 1)
	go func() { done <- f.coord.Run(context.Background(), src) }()

	term := hosttest.NewTerminal("t1")
	f.terminals.Open = []*hosttest.Terminal{term}
	src <- host.Event{Kind: host.TerminalOpened, Terminal: term}

	require.Eventually(t, func() bool { return f.session.ActivateAll() }, time.Second, 5*time.Millisecond)

	f.terminals.Open = nil
	src <- host.Event{Kind: host.TerminalClosed}
	close(src)
	require.NoError(t, <-done)
	assert.False(t, f.session.ActivateAll())
}

func TestRunReportsOpenedOutcome(t *testing.T) {
	f := newFixture(t, config.PreferenceAlways, shell.PowerShell{})
	type opened struct {
		id      string
		outcome coordinator.Outcome
	}
	got := make(chan opened, 1)
	f.coord.SetOpenedFunc(func(term host.Terminal, o coordinator.Outcome) {
		got <- opened{term.ID(), o}
	})

	src := make(hosttest.Source, 1)
	term := hosttest.NewTerminal("t1")
	src <- host.Event{Kind: host.TerminalOpened, Terminal: term}
	close(src)
	require.NoError(t, f.coord.Run(context.Background(), src))

	select {
	case o := <-got:
		assert.Equal(t, "t1", o.id)
		assert.Equal(t, coordinator.OutcomeActivated, o.outcome)
	default:
		t.Fatal("opened callback not called before Run returned")
	}
	assert.NotEmpty(t, term.Lines())
}

// Under "ask", the flag is true exactly when the user chose "all" since the
// last time the open count reached zero, and every prompt-free activation
// happens only while the flag is set.
func TestSessionFlagStateMachine(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t, config.PreferenceAsk, shell.PowerShell{})
		open := 0
		expectFlag := false

		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(rt, "open") {
				answer := rapid.SampledFrom([]string{
					coordinator.ChoiceActivateAll.Key,
					coordinator.ChoiceActivateOnce.Key,
					coordinator.ChoiceSkip.Key,
					"",
				}).Draw(rt, "answer")
				f.prompter.Answer = answer
				before := f.prompter.Calls()
				term := hosttest.NewTerminal("t")
				open++

				outcome := f.coord.OnTerminalOpened(context.Background(), term)

				prompted := f.prompter.Calls() > before
				if prompted == expectFlag {
					rt.Fatalf("prompted=%v with flag=%v", prompted, expectFlag)
				}
				if prompted && answer == coordinator.ChoiceActivateAll.Key {
					expectFlag = true
				}
				activated := outcome == coordinator.OutcomeActivated
				wantActivated := !prompted || answer == coordinator.ChoiceActivateAll.Key || answer == coordinator.ChoiceActivateOnce.Key
				if activated != wantActivated {
					rt.Fatalf("outcome %v, want activated=%v", outcome, wantActivated)
				}
			} else if open > 0 {
				open--
				f.coord.OnTerminalClosed(open)
				if open == 0 {
					expectFlag = false
				}
			}
			if f.session.ActivateAll() != expectFlag {
				rt.Fatalf("flag = %v, want %v", f.session.ActivateAll(), expectFlag)
			}
		}
	})
}
