package shell

// FishPlugin is the fish plugin source.
const FishPlugin = `# venvterm shell plugin — auto-generated, do not edit manually
# Source this file from your ~/.config/fish/config.fish:
#   source ~/.config/venvterm/venvterm.plugin.fish

if status is-interactive; and not set -q VENVTERM_TERMINAL_ID; and type -q venvterm
  venvterm hook open --shell fish --pid $fish_pid | source
end

function _venvterm_exit --on-event fish_exit
  set -q VENVTERM_TERMINAL_ID; or return
  test "$VENVTERM_TERMINAL_PID" = "$fish_pid"; or return
  venvterm hook close --id $VENVTERM_TERMINAL_ID >/dev/null 2>&1
end
`

// PwshPlugin is the PowerShell profile plugin source.
const PwshPlugin = `# venvterm shell plugin — auto-generated, do not edit manually
# Dot-source this file from your $PROFILE:
#   . "$HOME/.config/venvterm/venvterm.plugin.ps1"

if (-not $env:VENVTERM_TERMINAL_ID -and (Get-Command venvterm -ErrorAction SilentlyContinue)) {
  venvterm hook open --shell pwsh --pid $PID | Out-String | Invoke-Expression
}

Register-EngineEvent PowerShell.Exiting -Action {
  if ($env:VENVTERM_TERMINAL_ID -and $env:VENVTERM_TERMINAL_PID -eq "$PID") {
    venvterm hook close --id $env:VENVTERM_TERMINAL_ID | Out-Null
  }
} | Out-Null
`
