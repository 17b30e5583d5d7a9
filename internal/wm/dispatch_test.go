package wm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanchriswhite/focuswm/internal/action"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *State, *fakeBackend, *fakeSpawner) {
	t.Helper()
	s, be := newTestState(t)
	sp := &fakeSpawner{}
	return NewDispatcher(s, be, sp), s, be, sp
}

func TestDispatch_CloseWithoutFocusIsNoop(t *testing.T) {
	d, _, be, _ := newTestDispatcher(t)

	require.NoError(t, d.Dispatch(action.CloseFocused{}))
	assert.Empty(t, be.Calls())
}

func TestDispatch_CloseFocused(t *testing.T) {
	d, s, be, _ := newTestDispatcher(t)
	register(t, s, 1, 2)
	be.Reset()

	require.NoError(t, d.Dispatch(action.CloseFocused{}))
	assert.Equal(t, []call{{op: "close", window: 2}}, be.Calls())
	// The registry only changes once the engine reports the window gone.
	assert.Equal(t, []Window{2, 1}, s.Toplevels())
}

func TestDispatch_CloseEngineError(t *testing.T) {
	d, s, be, _ := newTestDispatcher(t)
	register(t, s, 1)
	be.failWith = errBroken

	assert.ErrorIs(t, d.Dispatch(action.CloseFocused{}), errBroken)
}

func TestDispatch_Run(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    [][]string
	}{
		{
			name:    "program with args",
			command: "/bin/true --flag value",
			want:    [][]string{{"/bin/true", "--flag", "value"}},
		},
		{
			name:    "quoted argument",
			command: `sh -c 'echo hi'`,
			want:    [][]string{{"sh", "-c", "echo hi"}},
		},
		{
			name:    "empty command",
			command: "   ",
			want:    nil,
		},
		{
			name:    "unterminated quote",
			command: `sh -c "oops`,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _, be, sp := newTestDispatcher(t)

			require.NoError(t, d.Dispatch(action.Run{Command: tt.command}))
			assert.Equal(t, tt.want, sp.spawned)
			assert.Empty(t, be.Calls())
		})
	}
}

func TestDispatch_SpawnFailureIsSwallowed(t *testing.T) {
	d, s, _, sp := newTestDispatcher(t)
	register(t, s, 1)
	sp.err = errors.New("no such file or directory")

	require.NoError(t, d.Dispatch(action.Run{Command: "/nonexistent/program"}))
	assert.Equal(t, Window(1), s.Focused())
}

func TestDispatch_Flip(t *testing.T) {
	d, s, be, _ := newTestDispatcher(t)

	require.NoError(t, d.Dispatch(action.ToggleRenderFlip{}))
	assert.True(t, s.Flipped())
	require.NoError(t, d.Dispatch(action.ToggleRenderFlip{}))
	assert.False(t, s.Flipped())
	assert.Empty(t, be.Calls())
}

func TestDispatch_Cycle(t *testing.T) {
	d, s, _, _ := newTestDispatcher(t)
	register(t, s, 1, 2, 3)

	require.NoError(t, d.Dispatch(action.FocusNext{}))
	assert.Equal(t, Window(2), s.Focused())

	require.NoError(t, d.Dispatch(action.FocusPrevious{}))
	assert.Equal(t, Window(3), s.Focused())
}

func TestDispatch_NilSpawnerDefaults(t *testing.T) {
	s, be := newTestState(t)
	d := NewDispatcher(s, be, nil)
	assert.IsType(t, ExecSpawner{}, d.spawner)
}

func TestExecSpawner_MissingProgram(t *testing.T) {
	err := ExecSpawner{}.Spawn("/nonexistent/focuswm-test-program", nil)
	assert.Error(t, err)
}

func TestExecSpawner_Starts(t *testing.T) {
	err := ExecSpawner{}.Spawn("/bin/sh", []string{"-c", "exit 0"})
	assert.NoError(t, err)
}
