package shell

// ZshPlugin is the zsh plugin source. It reports the terminal on startup and
// registers a zshexit hook that reports it closing.
const ZshPlugin = `# venvterm shell plugin — auto-generated, do not edit manually
# Source this file from your ~/.zshrc:
#   source ~/.config/venvterm/venvterm.plugin.zsh

if [[ -o interactive && -z "$VENVTERM_TERMINAL_ID" ]] && (( $+commands[venvterm] )); then
  eval "$(venvterm hook open --shell zsh --pid $$)"
fi

_venvterm_exit() {
  # Only the shell that opened the terminal closes it.
  [[ -n "$VENVTERM_TERMINAL_ID" && "$VENVTERM_TERMINAL_PID" == "$$" ]] || return
  venvterm hook close --id "$VENVTERM_TERMINAL_ID" >/dev/null 2>&1
}

autoload -Uz add-zsh-hook
add-zsh-hook zshexit _venvterm_exit
`
