package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		command string
		program string
		args    []string
	}{
		{"plain words", "/bin/true --flag value", "/bin/true", []string{"--flag", "value"}},
		{"no args", "xterm", "xterm", []string{}},
		{"double quotes", `sh -c "echo hi there"`, "sh", []string{"-c", "echo hi there"}},
		{"single quotes", `xterm -e 'tmux new -s main'`, "xterm", []string{"-e", "tmux new -s main"}},
		{"escaped space", `open my\ file`, "open", []string{"my file"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, args, err := Split(tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.program, program)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestSplit_Empty(t *testing.T) {
	_, _, err := Split("   ")
	assert.ErrorIs(t, err, ErrEmptyCommand)
}

func TestJoin_RoundTripsThroughSplit(t *testing.T) {
	tests := []struct {
		name  string
		words []string
		want  string
	}{
		{"plain", []string{"xterm", "-e", "htop"}, "xterm -e htop"},
		{"space in argument", []string{"xterm", "-e", "tmux new"}, "xterm -e 'tmux new'"},
		{"single quote", []string{"echo", "it's"}, `echo 'it'\''s'`},
		{"double quote and backslash", []string{"printf", `"%s\n"`}, `printf '"%s\n"'`},
		{"empty argument", []string{"prog", ""}, "prog ''"},
		{"comment marker", []string{"echo", "#1"}, "echo '#1'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := Join(tt.words)
			assert.Equal(t, tt.want, line)

			program, args, err := Split(line)
			require.NoError(t, err)
			assert.Equal(t, tt.words, append([]string{program}, args...))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want Action
	}{
		{"close", "", CloseFocused{}},
		{"Kill", "", CloseFocused{}},
		{"exec", "xterm", Run{Command: "xterm"}},
		{"flip", "", ToggleRenderFlip{}},
		{"cycle_next", "", FocusNext{}},
		{"CyclePrev", "", FocusPrevious{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.name, tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Parse("exec", "")
	assert.Error(t, err)

	_, err = Parse("maximize", "")
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	assert.Equal(t, "exec xterm -e top", Run{Command: "xterm -e top"}.String())
	assert.Equal(t, "cycle_prev", FocusPrevious{}.String())
}
