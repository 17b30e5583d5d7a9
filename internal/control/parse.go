// Package control implements the external control channels: the line-based
// unix socket, its client, and a D-Bus service. All of them produce
// actions that the event loop drains once per frame.
package control

import (
	"strings"
	"unicode"

	"github.com/bryanchriswhite/focuswm/internal/action"
)

// Command tokens understood on the control socket.
const (
	CmdExit = "EXIT"
	CmdExec = "EXEC"
	CmdFlip = "FLIP"
)

// ParseLine decodes one control line. The token is everything before the
// first whitespace; the rest, with leading whitespace removed, is the
// argument. Unknown tokens yield nil.
func ParseLine(line string) action.Action {
	line = strings.TrimSuffix(line, "\r")

	token, rest := line, ""
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		token = line[:i]
		rest = strings.TrimLeftFunc(line[i:], unicode.IsSpace)
	}

	switch token {
	case CmdExit:
		return action.CloseFocused{}
	case CmdExec:
		return action.Run{Command: rest}
	case CmdFlip:
		return action.ToggleRenderFlip{}
	default:
		return nil
	}
}

// FormatLine is the inverse of ParseLine for the actions the socket
// grammar can express. ok is false for the others.
func FormatLine(a action.Action) (line string, ok bool) {
	switch a := a.(type) {
	case action.CloseFocused:
		return CmdExit, true
	case action.Run:
		return CmdExec + " " + a.Command, true
	case action.ToggleRenderFlip:
		return CmdFlip, true
	default:
		return "", false
	}
}
