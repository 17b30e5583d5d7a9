package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/focuswm/internal/api"
	"github.com/bryanchriswhite/focuswm/internal/control"
	"github.com/bryanchriswhite/focuswm/internal/keybind"
	"github.com/bryanchriswhite/focuswm/internal/logger"
	"github.com/bryanchriswhite/focuswm/internal/wm"
	"github.com/bryanchriswhite/focuswm/internal/x11"
)

var displayFlag string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the window manager",
	Long: `Take over window management on the X display and run until interrupted.

Exits with an error if another window manager is already running or the
control socket cannot be bound.`,
	Example: `  # Manage $DISPLAY with the default config
  focuswm run

  # Manage a nested Xephyr server with debug logging
  focuswm run --display :1 --log-level debug

  # Use a specific config file and socket
  focuswm run --config ~/focuswm.toml --socket /tmp/fwm.sock`,
	Args: cobra.NoArgs,
	RunE: runWM,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&displayFlag, "display", "", "X display to manage (default is $DISPLAY)")
}

func runWM(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel, cfg.LogPretty)
	log := logger.WithComponent("run")

	resolver := cfg.Resolver()
	for _, warning := range keybind.Validate(resolver.Keybinds()) {
		log.Warn().Msg(warning)
	}

	engine, err := x11.Connect(x11.Options{
		Display:  displayFlag,
		Resolver: resolver,
		Keyboard: cfg.Keyboard,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	sock, err := control.Listen(cfg.SocketPath())
	if err != nil {
		return err
	}
	defer sock.Close()

	hub := wm.NewHub()
	queue := control.NewQueue()

	if cfg.Control.DBus {
		svc, err := control.ServeSession(queue)
		if err != nil {
			log.Warn().Err(err).Msg("D-Bus control service disabled")
		} else {
			defer svc.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.API.Enabled {
		server := api.NewServer(hub, queue)
		go func() {
			if err := server.Start(cfg.API.Port); err != nil {
				log.Error().Err(err).Msg("API server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	loop := wm.NewLoop(wm.LoopConfig{
		Backend:   engine,
		State:     wm.NewState(engine, engine.Size()),
		Resolver:  resolver,
		Sources:   []wm.ActionSource{sock, queue},
		Hub:       hub,
		FrameRate: cfg.FrameRate,
	})

	log.Info().
		Str("socket", sock.Path()).
		Int("keybinds", len(resolver.Keybinds())).
		Msg("focuswm is running")

	err = loop.Run(ctx)
	if errors.Is(err, wm.ErrEngineClosed) {
		return fmt.Errorf("lost the X display: %w", err)
	}
	if err != nil {
		return err
	}

	log.Info().Msg("Shutting down gracefully")
	return nil
}
