// Package action defines the closed set of things a keybinding or a control
// command can ask the window manager to do.
package action

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// Action is one of CloseFocused, Run, ToggleRenderFlip, FocusNext or
// FocusPrevious. The interface is sealed; no other package can add variants.
type Action interface {
	fmt.Stringer
	isAction()
}

// CloseFocused asks the focused window to close.
type CloseFocused struct{}

// Run spawns Command, split into words with shell quoting rules.
type Run struct {
	Command string
}

// ToggleRenderFlip flips the output transform.
type ToggleRenderFlip struct{}

// FocusNext rotates the window stack forward.
type FocusNext struct{}

// FocusPrevious rotates the window stack backward.
type FocusPrevious struct{}

func (CloseFocused) isAction()     {}
func (Run) isAction()              {}
func (ToggleRenderFlip) isAction() {}
func (FocusNext) isAction()        {}
func (FocusPrevious) isAction()    {}

func (CloseFocused) String() string     { return "close" }
func (r Run) String() string            { return "exec " + r.Command }
func (ToggleRenderFlip) String() string { return "flip" }
func (FocusNext) String() string        { return "cycle_next" }
func (FocusPrevious) String() string    { return "cycle_prev" }

// ErrEmptyCommand is returned by Split for a command line with no words.
var ErrEmptyCommand = errors.New("empty command")

// Split tokenizes a command line with shell-word rules and returns the
// program and its arguments.
func Split(command string) (string, []string, error) {
	words, err := shlex.Split(command)
	if err != nil {
		return "", nil, fmt.Errorf("failed to split command %q: %w", command, err)
	}
	if len(words) == 0 {
		return "", nil, ErrEmptyCommand
	}
	return words[0], words[1:], nil
}

// Join quotes words into a command line that Split turns back into the same
// words.
func Join(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = quoteWord(w)
	}
	return strings.Join(quoted, " ")
}

func quoteWord(w string) string {
	if w != "" && !strings.ContainsAny(w, " \t\r\n'\"\\#") {
		return w
	}
	return "'" + strings.ReplaceAll(w, "'", `'\''`) + "'"
}

// Parse resolves an action name as written in the config file. "exec" takes
// the command line in arg; every other name ignores it.
func Parse(name, arg string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "close", "kill", "exit":
		return CloseFocused{}, nil
	case "exec", "run":
		if strings.TrimSpace(arg) == "" {
			return nil, fmt.Errorf("action %q requires a command", name)
		}
		return Run{Command: arg}, nil
	case "flip", "toggle_flip":
		return ToggleRenderFlip{}, nil
	case "cycle_next", "cyclenext", "focus_next":
		return FocusNext{}, nil
	case "cycle_prev", "cycleprev", "cycle_previous", "focus_prev", "focus_previous":
		return FocusPrevious{}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", name)
	}
}
