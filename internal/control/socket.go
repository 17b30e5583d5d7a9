package control

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanchriswhite/focuswm/internal/action"
	"github.com/bryanchriswhite/focuswm/internal/logger"
)

// DefaultReadTimeout bounds how long Poll waits on a connected client that
// has not closed its end yet.
const DefaultReadTimeout = 50 * time.Millisecond

// MaxLineLength is the longest control line kept. Longer lines are skipped
// and the rest of the connection is still read.
const MaxLineLength = 64 << 10

// acceptWait is how long Poll waits for a connection. A deadline already in
// the past fails Accept before the accept syscall is attempted.
const acceptWait = time.Millisecond

// Socket is the control listener. It is polled from the event loop: each
// Poll accepts at most one pending connection and waits only briefly.
type Socket struct {
	path        string
	listener    *net.UnixListener
	readTimeout time.Duration
	log         *zerolog.Logger
}

// Listen binds a unix stream socket at path, replacing a stale socket file
// left behind by an earlier run.
func Listen(path string) (*Socket, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to remove stale socket %s: %w", path, err)
	}

	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("failed to bind control socket %s: %w", path, err)
	}
	l.SetUnlinkOnClose(true)

	s := &Socket{
		path:        path,
		listener:    l,
		readTimeout: DefaultReadTimeout,
		log:         logger.WithComponent("control"),
	}
	s.log.Info().Str("path", path).Msg("Control socket listening")
	return s, nil
}

// Path returns the socket file path.
func (s *Socket) Path() string {
	return s.path
}

// SetReadTimeout changes the per-connection read bound.
func (s *Socket) SetReadTimeout(d time.Duration) {
	s.readTimeout = d
}

// Poll accepts one pending connection, if any, and returns the actions of
// every recognised line it sent. Other connections wait for later polls.
func (s *Socket) Poll() []action.Action {
	if err := s.listener.SetDeadline(time.Now().Add(acceptWait)); err != nil {
		s.log.Warn().Err(err).Msg("Failed to set accept deadline")
		return nil
	}

	conn, err := s.listener.AcceptUnix()
	if err != nil {
		var ne net.Error
		if !errors.As(err, &ne) || !ne.Timeout() {
			s.log.Warn().Err(err).Msg("Failed to accept control connection")
		}
		return nil
	}
	defer conn.Close()

	return s.drain(conn)
}

func (s *Socket) drain(conn net.Conn) []action.Action {
	if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
		s.log.Warn().Err(err).Msg("Failed to set read deadline")
	}

	var (
		actions []action.Action
		line    []byte
		tooLong bool
	)
	r := bufio.NewReader(conn)
	for {
		chunk, more, err := r.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug().Err(err).Int("actions", len(actions)).Msg("Control connection ended early")
			}
			return actions
		}
		if !tooLong {
			if len(line)+len(chunk) > MaxLineLength {
				tooLong = true
				line = line[:0]
			} else {
				line = append(line, chunk...)
			}
		}
		if more {
			continue
		}
		if tooLong {
			s.log.Debug().Int("max", MaxLineLength).Msg("Skipping over-long control line")
			tooLong = false
			continue
		}

		if a := ParseLine(string(line)); a != nil {
			actions = append(actions, a)
		} else {
			s.log.Debug().Str("line", string(line)).Msg("Ignoring unknown control line")
		}
		line = line[:0]
	}
}

// Close stops listening and removes the socket file.
func (s *Socket) Close() error {
	return s.listener.Close()
}
