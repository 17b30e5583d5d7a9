package x11

import (
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/bryanchriswhite/focuswm/internal/config"
)

// setxkbmapArgs builds the setxkbmap command line for a keyboard section.
// Empty fields are left to the server's current setting. Options replace
// the existing list instead of appending to it.
func setxkbmapArgs(kbd config.KeyboardConfig) []string {
	var args []string
	add := func(flag, value string) {
		if value != "" {
			args = append(args, flag, value)
		}
	}
	add("-rules", kbd.Rules)
	add("-model", kbd.Model)
	add("-layout", kbd.Layout)
	add("-variant", kbd.Variant)
	if kbd.Options != "" {
		args = append(args, "-option", "", "-option", kbd.Options)
	}
	return args
}

// applyKeyboard runs setxkbmap. Failure leaves the server's layout in place.
func applyKeyboard(kbd config.KeyboardConfig, log *zerolog.Logger) {
	args := setxkbmapArgs(kbd)
	out, err := exec.Command("setxkbmap", args...).CombinedOutput()
	if err != nil {
		log.Warn().Err(err).Str("output", string(out)).Strs("args", args).Msg("Failed to apply keyboard layout")
		return
	}
	log.Info().Strs("args", args).Msg("Keyboard layout applied")
}
