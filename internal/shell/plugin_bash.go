package shell

// BashPlugin is the bash plugin source. On startup it reports the new
// terminal to venvterm and evals the returned activation text; the EXIT trap
// reports the terminal closing. Subshells inherit VENVTERM_TERMINAL_ID and
// are left alone.
const BashPlugin = `# venvterm shell plugin — auto-generated, do not edit manually
# Source this file from your ~/.bashrc:
#   source ~/.config/venvterm/venvterm.plugin.bash

if [[ $- == *i* && -z "$VENVTERM_TERMINAL_ID" ]] && command -v venvterm >/dev/null 2>&1; then
  eval "$(venvterm hook open --shell bash --pid $$)"
fi

_venvterm_exit() {
  [[ -n "$VENVTERM_TERMINAL_ID" && "$VENVTERM_TERMINAL_PID" == "$$" ]] || return
  venvterm hook close --id "$VENVTERM_TERMINAL_ID" >/dev/null 2>&1
}

trap '_venvterm_exit' EXIT
`
