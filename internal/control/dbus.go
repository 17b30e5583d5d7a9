package control

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/rs/zerolog"

	"github.com/bryanchriswhite/focuswm/internal/action"
	"github.com/bryanchriswhite/focuswm/internal/logger"
)

// D-Bus names of the control service.
const (
	DBusName      = "io.github.focuswm"
	DBusPath      = dbus.ObjectPath("/io/github/focuswm")
	DBusInterface = "io.github.focuswm.Control"
)

// DBusHandler holds the exported methods. Each call only queues an action;
// the event loop applies it on its next frame.
type DBusHandler struct {
	queue *Queue
	log   *zerolog.Logger
}

// NewDBusHandler creates a handler that feeds queue.
func NewDBusHandler(queue *Queue) *DBusHandler {
	return &DBusHandler{
		queue: queue,
		log:   logger.WithComponent("dbus"),
	}
}

// Exit closes the focused window.
func (h *DBusHandler) Exit() *dbus.Error {
	h.push(action.CloseFocused{})
	return nil
}

// Exec spawns command.
func (h *DBusHandler) Exec(command string) *dbus.Error {
	h.push(action.Run{Command: command})
	return nil
}

// Flip toggles the output transform.
func (h *DBusHandler) Flip() *dbus.Error {
	h.push(action.ToggleRenderFlip{})
	return nil
}

func (h *DBusHandler) push(a action.Action) {
	h.log.Debug().Stringer("action", a).Msg("D-Bus call queued")
	h.queue.Push(a)
}

// introspection describes the exported object.
func (h *DBusHandler) introspection() *introspect.Node {
	return &introspect.Node{
		Name: string(DBusPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: introspect.Methods(h),
			},
		},
	}
}

// DBusService owns the bus connection the handler is exported on.
type DBusService struct {
	conn    *dbus.Conn
	handler *DBusHandler
	log     *zerolog.Logger
}

// ServeSession connects to the session bus, claims DBusName and exports
// the control interface.
func ServeSession(queue *Queue) (*DBusService, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	svc, err := Serve(conn, queue)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return svc, nil
}

// Serve exports the control interface on an existing connection.
func Serve(conn *dbus.Conn, queue *Queue) (*DBusService, error) {
	handler := NewDBusHandler(queue)

	if err := conn.Export(handler, DBusPath, DBusInterface); err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", DBusInterface, err)
	}
	node := handler.introspection()
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, fmt.Errorf("failed to export introspection: %w", err)
	}

	reply, err := conn.RequestName(DBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to request name %s: %w", DBusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, fmt.Errorf("D-Bus name %s is already taken", DBusName)
	}

	svc := &DBusService{conn: conn, handler: handler, log: logger.WithComponent("dbus")}
	svc.log.Info().Str("name", DBusName).Str("path", string(DBusPath)).Msg("D-Bus control service exported")
	return svc, nil
}

// Close releases the name and the connection.
func (s *DBusService) Close() error {
	if _, err := s.conn.ReleaseName(DBusName); err != nil {
		s.log.Debug().Err(err).Msg("Failed to release D-Bus name")
	}
	return s.conn.Close()
}

// CallDBus invokes a control method on a running instance over the session
// bus. method is the bare method name, e.g. "Flip".
func CallDBus(method string, args ...any) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	obj := conn.Object(DBusName, DBusPath)
	if call := obj.Call(DBusInterface+"."+method, 0, args...); call.Err != nil {
		return fmt.Errorf("D-Bus call %s failed: %w", method, call.Err)
	}
	return nil
}

// DBusMethod maps an action onto the method that requests it remotely.
func DBusMethod(a action.Action) (method string, args []any, ok bool) {
	switch a := a.(type) {
	case action.CloseFocused:
		return "Exit", nil, true
	case action.Run:
		return "Exec", []any{a.Command}, true
	case action.ToggleRenderFlip:
		return "Flip", nil, true
	default:
		return "", nil, false
	}
}
