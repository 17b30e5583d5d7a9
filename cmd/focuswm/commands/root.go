package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bryanchriswhite/focuswm/internal/config"
	"github.com/bryanchriswhite/focuswm/internal/logger"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "focuswm",
		Short: "focuswm - a fullscreen, keyboard-driven window manager",
		Long: `focuswm is a minimal single-display X11 window manager. Every window is
fullscreen; keybindings cycle focus, close windows and launch programs, and a
local control socket accepts the same commands from scripts.

Features:
  • One fullscreen window at a time, most recent on top
  • Configurable keybindings and key remaps
  • Control socket, optional D-Bus service and HTTP API
  • Output flip (180° rotation) on demand`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := viper.GetString("log_level")
			if level == "" {
				level = "warn"
			}
			logger.Init(level, true)
		},
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./focuswm.yaml or $XDG_CONFIG_HOME/focuswm/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("socket", "", "control socket path (default is $XDG_RUNTIME_DIR/focuswm.sock)")

	// Bind flags to viper
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("control.socket", rootCmd.PersistentFlags().Lookup("socket"))
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level := viper.GetString("log_level"); level != "" {
		if !logger.ValidLevel(level) {
			return nil, fmt.Errorf("invalid log level: %s (use: debug, info, warn, error)", level)
		}
		cfg.LogLevel = level
	}
	if socket := viper.GetString("control.socket"); socket != "" {
		cfg.Control.Socket = socket
	}
	return cfg, nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
