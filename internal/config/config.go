package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bryanchriswhite/focuswm/internal/action"
	"github.com/bryanchriswhite/focuswm/internal/keybind"
	"github.com/bryanchriswhite/focuswm/internal/keysym"
)

// AppName names the config directory, socket and D-Bus service.
const AppName = "focuswm"

// Config is the immutable configuration snapshot loaded at startup.
type Config struct {
	LogLevel  string          `json:"log_level" yaml:"log_level" toml:"log_level" mapstructure:"log_level"`
	LogPretty bool            `json:"log_pretty" yaml:"log_pretty" toml:"log_pretty" mapstructure:"log_pretty"`
	FrameRate int             `json:"frame_rate" yaml:"frame_rate" toml:"frame_rate" mapstructure:"frame_rate"`
	Keybinds  []KeybindConfig `json:"keybinds" yaml:"keybinds" toml:"keybinds" mapstructure:"keybinds"`
	Keyboard  KeyboardConfig  `json:"keyboard" yaml:"keyboard" toml:"keyboard" mapstructure:"keyboard"`
	Remaps    []RemapConfig   `json:"remaps" yaml:"remaps" toml:"remaps" mapstructure:"remaps"`
	Control   ControlConfig   `json:"control" yaml:"control" toml:"control" mapstructure:"control"`
	API       APIConfig       `json:"api" yaml:"api" toml:"api" mapstructure:"api"`

	path string
}

// ShortcutConfig is a key plus the modifiers that must be held with it.
type ShortcutConfig struct {
	Key       keysym.Keysym `json:"key" yaml:"key" toml:"key" mapstructure:"key"`
	Modifiers keybind.Mask  `json:"modifiers" yaml:"modifiers" toml:"modifiers" mapstructure:"modifiers"`
}

// ActionSpec is an action as written in the config file: a bare name
// ("close", "cycle_next") or a single-entry map ({exec: "xterm"}).
type ActionSpec struct {
	Name    string `json:"name" yaml:"name" toml:"name" mapstructure:"name"`
	Command string `json:"command,omitempty" yaml:"command,omitempty" toml:"command,omitempty" mapstructure:"command"`
}

// Action resolves the spec into the action vocabulary.
func (s ActionSpec) Action() (action.Action, error) {
	return action.Parse(s.Name, s.Command)
}

// KeybindConfig binds a shortcut to an action.
type KeybindConfig struct {
	Shortcut ShortcutConfig `json:"shortcut" yaml:"shortcut" toml:"shortcut" mapstructure:"shortcut"`
	Action   ActionSpec     `json:"action" yaml:"action" toml:"action" mapstructure:"action"`
}

// RemapConfig substitutes one key for another before keybind matching.
type RemapConfig struct {
	From keysym.Keysym `json:"from" yaml:"from" toml:"from" mapstructure:"from"`
	Into keysym.Keysym `json:"into" yaml:"into" toml:"into" mapstructure:"into"`
}

// KeyboardConfig is handed to the keyboard layout subsystem untouched.
type KeyboardConfig struct {
	Rules   string `json:"rules" yaml:"rules" toml:"rules" mapstructure:"rules"`
	Model   string `json:"model" yaml:"model" toml:"model" mapstructure:"model"`
	Layout  string `json:"layout" yaml:"layout" toml:"layout" mapstructure:"layout"`
	Variant string `json:"variant" yaml:"variant" toml:"variant" mapstructure:"variant"`
	Options string `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty" mapstructure:"options"`
}

// IsZero reports whether no layout setting was configured.
func (k KeyboardConfig) IsZero() bool {
	return k == KeyboardConfig{}
}

// ControlConfig configures the external control channels.
type ControlConfig struct {
	Socket string `json:"socket" yaml:"socket" toml:"socket" mapstructure:"socket"`
	DBus   bool   `json:"dbus" yaml:"dbus" toml:"dbus" mapstructure:"dbus"`
}

// APIConfig configures the optional HTTP status API.
type APIConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled" mapstructure:"enabled"`
	Port    int  `json:"port" yaml:"port" toml:"port" mapstructure:"port"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogPretty: true,
		FrameRate: 60,
		Keybinds:  []KeybindConfig{},
		Remaps:    []RemapConfig{},
		API: APIConfig{
			Port: 8787,
		},
	}
}

// Path returns the file the config was read from, or "" for defaults.
func (c *Config) Path() string {
	return c.path
}

// Bindings converts the keybind section into resolver entries. Load has
// already validated every action, so entries never fail here.
func (c *Config) Bindings() []keybind.Keybind {
	out := make([]keybind.Keybind, 0, len(c.Keybinds))
	for _, kb := range c.Keybinds {
		a, err := kb.Action.Action()
		if err != nil {
			continue
		}
		out = append(out, keybind.Keybind{
			Shortcut: keybind.Shortcut{Key: kb.Shortcut.Key, Modifiers: kb.Shortcut.Modifiers},
			Action:   a,
		})
	}
	return out
}

// RemapTable converts the remap section into resolver entries.
func (c *Config) RemapTable() []keybind.Remap {
	out := make([]keybind.Remap, 0, len(c.Remaps))
	for _, r := range c.Remaps {
		out = append(out, keybind.Remap{From: r.From, Into: r.Into})
	}
	return out
}

// Resolver builds the keybind resolver for this snapshot.
func (c *Config) Resolver() *keybind.Resolver {
	return keybind.NewResolver(c.Bindings(), c.RemapTable())
}

// SocketPath returns the control socket path, defaulting to the runtime dir.
func (c *Config) SocketPath() string {
	if c.Control.Socket != "" {
		return c.Control.Socket
	}
	return DefaultSocketPath()
}

// DefaultSocketPath is $XDG_RUNTIME_DIR/focuswm.sock, or a per-user file in
// the temp dir when no runtime dir is set.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, AppName+".sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d.sock", AppName, os.Getuid()))
}
