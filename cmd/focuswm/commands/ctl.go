package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/focuswm/internal/action"
	"github.com/bryanchriswhite/focuswm/internal/control"
)

var useDBus bool

var ctlCmd = &cobra.Command{
	Use:   "ctl",
	Short: "Send commands to a running focuswm",
	Long: `Send control commands to a running focuswm over its control socket, or
over the session bus with --dbus.`,
}

var ctlExitCmd = &cobra.Command{
	Use:   "exit",
	Short: "Close the focused window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendActions(action.CloseFocused{})
	},
}

var ctlExecCmd = &cobra.Command{
	Use:   "exec COMMAND [ARGS...]",
	Short: "Launch a program",
	Example: `  focuswm ctl exec xterm
  focuswm ctl exec -- xterm -e 'tmux new'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendActions(action.Run{Command: action.Join(args)})
	},
}

var ctlFlipCmd = &cobra.Command{
	Use:   "flip",
	Short: "Toggle the 180° output rotation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendActions(action.ToggleRenderFlip{})
	},
}

var ctlSendCmd = &cobra.Command{
	Use:   "send LINE...",
	Short: "Send raw control lines",
	Long: `Send raw control lines. Each argument is one line: EXIT, FLIP or
EXEC <command>. Lines the server does not understand are ignored by it.`,
	Example: `  focuswm ctl send FLIP "EXEC xterm"`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runCtlSend,
}

func init() {
	rootCmd.AddCommand(ctlCmd)
	ctlCmd.AddCommand(ctlExitCmd)
	ctlCmd.AddCommand(ctlExecCmd)
	ctlCmd.AddCommand(ctlFlipCmd)
	ctlCmd.AddCommand(ctlSendCmd)

	ctlCmd.PersistentFlags().BoolVar(&useDBus, "dbus", false, "use the D-Bus service instead of the socket")
}

func runCtlSend(cmd *cobra.Command, args []string) error {
	if !useDBus {
		return sendLines(args...)
	}

	actions := make([]action.Action, 0, len(args))
	for _, line := range args {
		a := control.ParseLine(line)
		if a == nil {
			return fmt.Errorf("unknown control line %q", line)
		}
		actions = append(actions, a)
	}
	return sendActions(actions...)
}

func sendActions(actions ...action.Action) error {
	if useDBus {
		for _, a := range actions {
			method, args, ok := control.DBusMethod(a)
			if !ok {
				return fmt.Errorf("action %s has no D-Bus method", a)
			}
			if err := control.CallDBus(method, args...); err != nil {
				return err
			}
		}
		return nil
	}

	lines := make([]string, 0, len(actions))
	for _, a := range actions {
		line, ok := control.FormatLine(a)
		if !ok {
			return fmt.Errorf("action %s cannot be sent over the socket", a)
		}
		lines = append(lines, line)
	}
	return sendLines(lines...)
}

func sendLines(lines ...string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return control.Send(cfg.SocketPath(), lines...)
}
