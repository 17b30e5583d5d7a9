package wm

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/bryanchriswhite/focuswm/internal/action"
	"github.com/bryanchriswhite/focuswm/internal/logger"
)

// Spawner starts an external program without supervising it.
type Spawner interface {
	Spawn(program string, args []string) error
}

// Dispatcher executes actions against the state. Keybindings and every
// control channel go through the same Dispatch.
type Dispatcher struct {
	state   *State
	engine  Engine
	spawner Spawner
	log     *zerolog.Logger
}

// NewDispatcher creates a dispatcher. A nil spawner uses ExecSpawner.
func NewDispatcher(state *State, engine Engine, spawner Spawner) *Dispatcher {
	if spawner == nil {
		spawner = ExecSpawner{}
	}
	return &Dispatcher{
		state:   state,
		engine:  engine,
		spawner: spawner,
		log:     logger.WithComponent("dispatch"),
	}
}

// Dispatch runs a. Spawn failures are logged and dropped; only engine
// errors are returned.
func (d *Dispatcher) Dispatch(a action.Action) error {
	d.log.Debug().Stringer("action", a).Msg("Dispatching action")

	switch a := a.(type) {
	case action.CloseFocused:
		focused := d.state.Focused()
		if focused == None {
			return nil
		}
		if err := d.engine.CloseWindow(focused); err != nil {
			return fmt.Errorf("failed to close %s: %w", focused, err)
		}
		return nil

	case action.Run:
		d.run(a.Command)
		return nil

	case action.ToggleRenderFlip:
		flipped := d.state.ToggleFlip()
		d.log.Debug().Bool("flipped", flipped).Msg("Render flip toggled")
		return nil

	case action.FocusNext:
		return d.state.CycleNext()

	case action.FocusPrevious:
		return d.state.CyclePrevious()

	default:
		return fmt.Errorf("unsupported action %T", a)
	}
}

func (d *Dispatcher) run(command string) {
	program, args, err := action.Split(command)
	if err != nil {
		if !errors.Is(err, action.ErrEmptyCommand) {
			d.log.Warn().Err(err).Msg("Ignoring unparsable command")
		}
		return
	}

	if err := d.spawner.Spawn(program, args); err != nil {
		d.log.Warn().
			Err(err).
			Str("program", program).
			Strs("args", args).
			Msg("Failed to spawn command")
		return
	}

	d.log.Info().
		Str("program", program).
		Strs("args", args).
		Msg("Spawned command")
}

// ExecSpawner starts programs in their own session so they outlive the
// window manager's process group. Exit status is never observed; a goroutine
// only reaps the child.
type ExecSpawner struct{}

// Spawn starts program with args.
func (ExecSpawner) Spawn(program string, args []string) error {
	cmd := exec.Command(program, args...)
	cmd.Stdin = nil
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
