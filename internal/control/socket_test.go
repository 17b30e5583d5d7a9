package control

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanchriswhite/focuswm/internal/action"
)

func listen(t *testing.T) *Socket {
	t.Helper()
	s, err := Listen(filepath.Join(t.TempDir(), "focuswm.sock"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// pollUntil polls until a connection yields actions or the timeout passes.
func pollUntil(t *testing.T, s *Socket) []action.Action {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := s.Poll(); len(got) > 0 {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

func TestSocket_PollWithoutClient(t *testing.T) {
	s := listen(t)

	start := time.Now()
	assert.Empty(t, s.Poll())
	assert.Less(t, time.Since(start), time.Second)
}

func TestSocket_SendAndPoll(t *testing.T) {
	s := listen(t)

	require.NoError(t, Send(s.Path(), "EXEC /bin/true --flag value", "BOGUS", "FLIP", "EXIT"))

	got := pollUntil(t, s)
	assert.Equal(t, []action.Action{
		action.Run{Command: "/bin/true --flag value"},
		action.ToggleRenderFlip{},
		action.CloseFocused{},
	}, got)

	program, args, err := action.Split(got[0].(action.Run).Command)
	require.NoError(t, err)
	assert.Equal(t, []string{"/bin/true", "--flag", "value"}, append([]string{program}, args...))
}

func TestSocket_OneConnectionPerPoll(t *testing.T) {
	s := listen(t)

	require.NoError(t, Send(s.Path(), "FLIP"))
	require.NoError(t, Send(s.Path(), "EXIT"))

	first := pollUntil(t, s)
	assert.Equal(t, []action.Action{action.ToggleRenderFlip{}}, first)

	second := pollUntil(t, s)
	assert.Equal(t, []action.Action{action.CloseFocused{}}, second)

	assert.Empty(t, s.Poll())
}

func TestSocket_StuckWriterDoesNotBlock(t *testing.T) {
	s := listen(t)
	s.SetReadTimeout(20 * time.Millisecond)

	conn, err := net.Dial("unix", s.Path())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("FLIP\n"))
	require.NoError(t, err)

	start := time.Now()
	got := pollUntil(t, s)
	assert.Equal(t, []action.Action{action.ToggleRenderFlip{}}, got)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSocket_OverLongLineSkipped(t *testing.T) {
	s := listen(t)

	long := "EXEC " + strings.Repeat("x", MaxLineLength+1)
	sent := make(chan error, 1)
	go func() { sent <- Send(s.Path(), "FLIP", long, "EXIT") }()

	got := pollUntil(t, s)
	require.NoError(t, <-sent)
	assert.Equal(t, []action.Action{action.ToggleRenderFlip{}, action.CloseFocused{}}, got)
}

func TestSocket_PendingConnectionAccepted(t *testing.T) {
	s := listen(t)
	require.NoError(t, Send(s.Path(), "FLIP"))

	var got []action.Action
	for i := 0; i < 3 && len(got) == 0; i++ {
		got = s.Poll()
	}
	assert.Equal(t, []action.Action{action.ToggleRenderFlip{}}, got)
}

func TestListen_ReplacesStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sock")
	require.NoError(t, os.WriteFile(path, []byte("left over"), 0o600))

	s, err := Listen(path)
	require.NoError(t, err)
	require.NoError(t, Send(path, "FLIP"))
	assert.Equal(t, []action.Action{action.ToggleRenderFlip{}}, pollUntil(t, s))

	require.NoError(t, s.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "socket file removed on close")
}

func TestListen_BadDirectory(t *testing.T) {
	_, err := Listen(filepath.Join(t.TempDir(), "missing", "focuswm.sock"))
	assert.Error(t, err)
}

func TestSend_NoServer(t *testing.T) {
	err := Send(filepath.Join(t.TempDir(), "nobody.sock"), "FLIP")
	assert.Error(t, err)
}

func TestSend_RejectsLineBreaks(t *testing.T) {
	s := listen(t)
	assert.Error(t, Send(s.Path(), "EXEC a\nEXIT"))
}
