package control

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// Send connects to the control socket at path and writes one line per
// argument. The server drains the connection on its next frame.
func Send(path string, lines ...string) error {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", path, err)
	}
	defer conn.Close()

	var b strings.Builder
	for _, line := range lines {
		if strings.ContainsAny(line, "\r\n") {
			return fmt.Errorf("control line %q contains a line break", line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if _, err := conn.Write([]byte(b.String())); err != nil {
		return fmt.Errorf("failed to write to %s: %w", path, err)
	}
	return nil
}
