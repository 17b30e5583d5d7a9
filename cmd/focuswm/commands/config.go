package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bryanchriswhite/focuswm/internal/config"
	"github.com/bryanchriswhite/focuswm/internal/keybind"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect focuswm configuration",
	Long:  `View and validate the focuswm configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Long:  `Display the configuration focuswm would run with, defaults included.`,
	Example: `  # Show configuration as YAML (default)
  focuswm config show

  # Show configuration as TOML
  focuswm config show --format toml`,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the config file in use and the search order.`,
	RunE:  runConfigPath,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration",
	Long: `Load the configuration and report problems: invalid key names are errors,
keybinds shadowed by an earlier identical shortcut are warnings.`,
	RunE: runConfigCheck,
}

var formatFlag string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configCheckCmd)

	configShowCmd.Flags().StringVarP(&formatFlag, "format", "f", "yaml", "output format (yaml, json or toml)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return writeConfig(cmd.OutOrStdout(), cfg, formatFlag)
}

func writeConfig(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(cfg)
	case "toml":
		encoder := toml.NewEncoder(w)
		encoder.SetIndentTables(true)
		return encoder.Encode(cfg)
	default:
		return fmt.Errorf("unsupported format: %s (use 'yaml', 'json' or 'toml')", format)
	}
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	path := cfgFile
	if path == "" {
		path = config.Find()
	}
	if path == "" {
		fmt.Fprintln(out, "No config file found; using defaults. Searched:")
		for _, p := range config.SearchPaths() {
			fmt.Fprintf(out, "  %s\n", p)
		}
		return nil
	}
	fmt.Fprintln(out, path)
	return nil
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	source := cfg.Path()
	if source == "" {
		source = "defaults"
	}

	warnings := keybind.Validate(cfg.Bindings())
	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	fmt.Fprintf(out, "%s: %d keybinds, %d remaps, %d warnings\n",
		source, len(cfg.Keybinds), len(cfg.Remaps), len(warnings))
	return nil
}
