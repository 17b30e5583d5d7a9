package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/bryanchriswhite/focuswm/internal/keybind"
	"github.com/bryanchriswhite/focuswm/internal/keysym"
	"github.com/bryanchriswhite/focuswm/internal/logger"
)

// extensions are tried in order at every search location.
var extensions = []string{"yaml", "yml", "toml", "json"}

// SearchPaths lists the config locations in lookup order: next to the
// working directory first, then the user config directory.
func SearchPaths() []string {
	var paths []string
	for _, ext := range extensions {
		paths = append(paths, AppName+"."+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, AppName, "config."+ext))
		}
	}
	return paths
}

// Find returns the first existing config file from SearchPaths, or "".
func Find() string {
	for _, p := range SearchPaths() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Load reads the configuration. An explicit path overrides the search order.
//
// A missing or unparsable file yields defaults, and a section that fails to
// decode falls back to its default. An unknown key name or modifier inside
// keybinds or remaps is fatal and wraps keysym.ErrInvalidKeyName.
func Load(explicit string) (*Config, error) {
	log := logger.WithComponent("config")
	cfg := Default()

	path := explicit
	if path == "" {
		path = Find()
	}
	if path == "" {
		log.Info().Strs("searched", SearchPaths()).Msg("Config file not found, using defaults")
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("FOCUSWM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info().Str("path", path).Msg("Config file not found, using defaults")
		} else {
			log.Warn().Err(err).Str("path", path).Msg("Failed to read config, using defaults")
		}
		return cfg, nil
	}
	cfg.path = v.ConfigFileUsed()

	if v.IsSet("log_level") {
		cfg.LogLevel = v.GetString("log_level")
	}
	if v.IsSet("log_pretty") {
		cfg.LogPretty = v.GetBool("log_pretty")
	}
	if v.IsSet("frame_rate") {
		if rate := v.GetInt("frame_rate"); rate > 0 {
			cfg.FrameRate = rate
		}
	}

	var keybinds []KeybindConfig
	if err := decodeSection(v, "keybinds", &keybinds); err != nil {
		if isKeyError(err) {
			return nil, err
		}
		log.Warn().Err(err).Msg("Invalid keybinds section, using no keybinds")
	} else if err := validateActions(keybinds); err != nil {
		log.Warn().Err(err).Msg("Invalid keybinds section, using no keybinds")
	} else if keybinds != nil {
		cfg.Keybinds = keybinds
	}

	var remaps []RemapConfig
	if err := decodeSection(v, "remaps", &remaps); err != nil {
		if isKeyError(err) {
			return nil, err
		}
		log.Warn().Err(err).Msg("Invalid remaps section, using no remaps")
	} else if remaps != nil {
		cfg.Remaps = remaps
	}

	var keyboard KeyboardConfig
	if err := decodeSection(v, "keyboard", &keyboard); err != nil {
		log.Warn().Err(err).Msg("Invalid keyboard section, using default layout")
	} else {
		cfg.Keyboard = keyboard
	}

	control := cfg.Control
	if err := decodeSection(v, "control", &control); err != nil {
		log.Warn().Err(err).Msg("Invalid control section, using defaults")
	} else {
		cfg.Control = control
	}

	api := cfg.API
	if err := decodeSection(v, "api", &api); err != nil {
		log.Warn().Err(err).Msg("Invalid api section, using defaults")
	} else {
		cfg.API = api
	}

	log.Info().
		Str("path", cfg.path).
		Int("keybinds", len(cfg.Keybinds)).
		Int("remaps", len(cfg.Remaps)).
		Msg("Config loaded")

	return cfg, nil
}

// keyError marks a decode failure caused by a key or modifier name. It
// survives mapstructure's error wrapping because the hook records it.
type keyError struct {
	err error
}

func (e *keyError) Error() string { return e.err.Error() }
func (e *keyError) Unwrap() error { return e.err }

func isKeyError(err error) bool {
	var ke *keyError
	return errors.As(err, &ke)
}

func decodeSection(v *viper.Viper, key string, out any) error {
	if !v.IsSet(key) {
		return nil
	}

	var hookErr error
	err := v.UnmarshalKey(key, out, viper.DecodeHook(decodeHook(&hookErr)))
	if hookErr != nil {
		return &keyError{err: fmt.Errorf("config section %q: %w", key, hookErr)}
	}
	if err != nil {
		return fmt.Errorf("config section %q: %w", key, err)
	}
	return nil
}

func validateActions(keybinds []KeybindConfig) error {
	for i, kb := range keybinds {
		if _, err := kb.Action.Action(); err != nil {
			return fmt.Errorf("keybind %d: %w", i, err)
		}
	}
	return nil
}

var (
	keysymType     = reflect.TypeOf(keysym.Keysym(0))
	maskType       = reflect.TypeOf(keybind.Mask(0))
	actionSpecType = reflect.TypeOf(ActionSpec{})
)

// decodeHook converts key names, modifier lists and action shorthands into
// their typed forms. The first key or modifier failure is stored in keyErr.
func decodeHook(keyErr *error) mapstructure.DecodeHookFuncType {
	record := func(err error) error {
		if *keyErr == nil {
			*keyErr = err
		}
		return err
	}

	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		switch to {
		case keysymType:
			s, ok := data.(string)
			if !ok {
				return numericKey(data), nil
			}
			sym, err := keysym.Parse(s)
			if err != nil {
				return nil, record(err)
			}
			return sym, nil

		case maskType:
			names, err := modifierNames(data)
			if err != nil {
				return nil, err
			}
			if names == nil {
				return data, nil
			}
			mask, err := keybind.ParseMask(names)
			if err != nil {
				return nil, record(fmt.Errorf("%w: %w", keysym.ErrInvalidKeyName, err))
			}
			return mask, nil

		case actionSpecType:
			return actionSpec(data)
		}
		return data, nil
	}
}

// numericKey treats a bare single digit (YAML `key: 1`) as the digit key;
// larger numbers are raw keysym values.
func numericKey(data any) any {
	rv := reflect.ValueOf(data)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n := rv.Int(); n >= 0 && n <= 9 {
			return keysym.Keysym('0' + n)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n := rv.Uint(); n <= 9 {
			return keysym.Keysym('0' + n)
		}
	case reflect.Float64:
		if n := rv.Float(); n >= 0 && n <= 9 && n == float64(int(n)) {
			return keysym.Keysym('0' + int(n))
		}
	}
	return data
}

// modifierNames accepts ["Logo", "Shift"] or "Logo+Shift". It returns nil
// names for numeric masks so they decode as plain integers.
func modifierNames(data any) ([]string, error) {
	switch v := data.(type) {
	case nil:
		return []string{}, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return []string{}, nil
		}
		return strings.Split(v, "+"), nil
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("modifier must be a name, got %T", item)
			}
			names = append(names, s)
		}
		return names, nil
	case []string:
		return v, nil
	}
	return nil, nil
}

// actionSpec normalises the action shorthands into the ActionSpec map form.
func actionSpec(data any) (any, error) {
	switch v := data.(type) {
	case string:
		return map[string]any{"name": v}, nil
	case map[string]any:
		if _, ok := v["name"]; ok {
			return v, nil
		}
		if len(v) != 1 {
			return nil, fmt.Errorf("action map must have exactly one entry, got %d", len(v))
		}
		for name, arg := range v {
			return map[string]any{"name": name, "command": fmt.Sprint(arg)}, nil
		}
	}
	return data, nil
}
