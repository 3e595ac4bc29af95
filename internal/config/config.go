// Package config loads venvterm settings from the global config file and the
// workspace's .venvtermconfig, project values taking precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ProjectFile is the per-workspace config file name.
const ProjectFile = ".venvtermconfig"

// DefaultClearDelay is how long venvterm waits after sending the activation
// command before clearing the screen.
const DefaultClearDelay = 500 * time.Millisecond

// Preference controls what happens when a terminal opens next to a venv.
type Preference string

const (
	PreferenceAsk    Preference = "ask"
	PreferenceAlways Preference = "always"
	PreferenceNever  Preference = "never"
)

// ParsePreference accepts ask, always or never (case-insensitive). The empty
// string parses as ask.
func ParsePreference(s string) (Preference, error) {
	switch p := Preference(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PreferenceAsk, nil
	case PreferenceAsk, PreferenceAlways, PreferenceNever:
		return p, nil
	default:
		return "", fmt.Errorf("invalid activation preference %q (want ask, always or never)", s)
	}
}

// Config holds all configurable venvterm settings.
type Config struct {
	ActivationPreference   Preference `json:"activation_preference,omitempty"`
	ShowDetailNotification *bool      `json:"show_detail_notification,omitempty"`
	// PosixSupport enables activation in non-PowerShell shells. When off,
	// only the Windows PowerShell layout is recognized and activation is
	// skipped on other shells.
	PosixSupport *bool  `json:"posix_support,omitempty"`
	ClearDelayMS int    `json:"clear_delay_ms,omitempty"`
	Shell        string `json:"shell,omitempty"` // dialect override, e.g. "pwsh"
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		ActivationPreference:   PreferenceAsk,
		ShowDetailNotification: boolPtr(true),
		PosixSupport:           boolPtr(true),
		ClearDelayMS:           int(DefaultClearDelay / time.Millisecond),
	}
}

// Preference returns the effective activation preference.
func (c Config) Preference() Preference {
	if c.ActivationPreference == "" {
		return PreferenceAsk
	}
	return c.ActivationPreference
}

// ShowDetail reports whether informational notifications are shown.
func (c Config) ShowDetail() bool {
	return c.ShowDetailNotification == nil || *c.ShowDetailNotification
}

// Posix reports whether non-PowerShell shells are supported.
func (c Config) Posix() bool {
	return c.PosixSupport == nil || *c.PosixSupport
}

// ClearDelay returns the delay before the clear command is sent.
func (c Config) ClearDelay() time.Duration {
	if c.ClearDelayMS <= 0 {
		return DefaultClearDelay
	}
	return time.Duration(c.ClearDelayMS) * time.Millisecond
}

// GlobalPath returns ~/.config/venvterm/config.json.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "venvterm", "config.json"), nil
}

// LoadGlobal reads ~/.config/venvterm/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .venvtermconfig in the workspace root.
// Returns nil (no error) if the file is absent or root is empty.
func LoadProject(root string) (*Config, error) {
	if root == "" {
		return nil, nil
	}
	return loadFile(filepath.Join(root, ProjectFile), false)
}

// SaveGlobal writes cfg to the global config file, creating the directory if
// needed.
func SaveGlobal(cfg *Config) error {
	path, err := GlobalPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if cfg.ActivationPreference != "" {
		p, err := ParsePreference(string(cfg.ActivationPreference))
		if err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		cfg.ActivationPreference = p
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, project} {
		if layer == nil {
			continue
		}
		if layer.ActivationPreference != "" {
			result.ActivationPreference = layer.ActivationPreference
		}
		if layer.ShowDetailNotification != nil {
			result.ShowDetailNotification = boolPtr(*layer.ShowDetailNotification)
		}
		if layer.PosixSupport != nil {
			result.PosixSupport = boolPtr(*layer.PosixSupport)
		}
		if layer.ClearDelayMS > 0 {
			result.ClearDelayMS = layer.ClearDelayMS
		}
		if layer.Shell != "" {
			result.Shell = layer.Shell
		}
	}
	return result
}

// ApplyEnv overrides cfg from VENVTERM_PREFERENCE and VENVTERM_SHELL.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("VENVTERM_PREFERENCE"); v != "" {
		p, err := ParsePreference(v)
		if err != nil {
			return fmt.Errorf("VENVTERM_PREFERENCE: %w", err)
		}
		cfg.ActivationPreference = p
	}
	if v := getenv("VENVTERM_SHELL"); v != "" {
		cfg.Shell = v
	}
	return nil
}

// Load returns the merged global and project configuration for root with
// environment overrides applied.
func Load(root string) (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, fmt.Errorf("loading global config: %w", err)
	}
	project, err := LoadProject(root)
	if err != nil {
		return Config{}, fmt.Errorf("loading project config: %w", err)
	}
	cfg := Merge(global, project)
	if err := ApplyEnv(&cfg, os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func boolPtr(b bool) *bool { return &b }
