package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/focuswm/internal/keybind"
	"github.com/bryanchriswhite/focuswm/internal/keysym"
)

var showValues bool

var keysCmd = &cobra.Command{
	Use:   "keys [FILTER]",
	Short: "List key and modifier names",
	Long: `List every key name accepted in keybinds and remaps, optionally filtered
by a case-insensitive substring. Single characters and hex keysym values
(0xff0d) are accepted too and are not listed.`,
	Example: `  focuswm keys
  focuswm keys xf86 --values`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKeys,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.Flags().BoolVar(&showValues, "values", false, "print keysym values")
}

func runKeys(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	filter := ""
	if len(args) == 1 {
		filter = strings.ToLower(args[0])
	}

	for _, name := range keysym.Names() {
		if filter != "" && !strings.Contains(strings.ToLower(name), filter) {
			continue
		}
		if showValues {
			sym, _ := keysym.Lookup(name)
			fmt.Fprintf(out, "%-24s 0x%04x\n", name, uint32(sym))
			continue
		}
		fmt.Fprintln(out, name)
	}

	if filter == "" {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Modifiers: %s\n", strings.Join((keybind.Alt | keybind.Ctrl | keybind.Shift | keybind.Logo).Names(), ", "))
	}
	return nil
}
