package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/bnema/wayframe/internal/config"
	"github.com/bnema/wayframe/internal/logger"
	"github.com/bnema/wayframe/internal/render"
	"github.com/bnema/wayframe/internal/session"
	"github.com/bnema/wayframe/internal/shm"
	"github.com/bnema/wayframe/internal/wayland"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open a window and run until the compositor closes it",
	Long: `Connect to the compositor, create a toplevel window with a single
shared-memory buffer and dispatch events until the connection ends or the
compositor asks the window to close.`,
	RunE: runWindow,
}

func init() {
	runCmd.Flags().StringP("title", "t", "", "Window title")
	runCmd.Flags().Int("width", 0, "Buffer width in pixels")
	runCmd.Flags().Int("height", 0, "Buffer height in pixels")
	runCmd.Flags().String("fill", "", "Fill color as #rrggbb")
	runCmd.Flags().StringP("display", "d", "", "Wayland display name")

	viper.BindPFlag("window.title", runCmd.Flags().Lookup("title"))
	viper.BindPFlag("window.width", runCmd.Flags().Lookup("width"))
	viper.BindPFlag("window.height", runCmd.Flags().Lookup("height"))
	viper.BindPFlag("window.fill", runCmd.Flags().Lookup("fill"))
	viper.BindPFlag("display.name", runCmd.Flags().Lookup("display"))

	rootCmd.AddCommand(runCmd)
}

// sessionOptions translates configuration into session options.
func sessionOptions(cfg *config.Config) (session.Options, error) {
	renderer, err := render.FromFill(cfg.Window.Fill)
	if err != nil {
		return session.Options{}, err
	}

	regionOpts := shm.Options{
		Backend: shm.Backend(cfg.Shm.Backend),
		Dir:     cfg.Shm.Dir,
	}

	return session.Options{
		Title:        cfg.Window.Title,
		Width:        cfg.Window.Width,
		Height:       cfg.Window.Height,
		Renderer:     renderer,
		AllocRetries: cfg.Shm.Retries,
		Regions: func(size int) (*shm.Region, error) {
			return shm.Create(size, regionOpts)
		},
	}, nil
}

func runWindow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	opts, err := sessionOptions(cfg)
	if err != nil {
		return fmt.Errorf("invalid window configuration: %w", err)
	}

	conn, err := wayland.Connect(cfg.Display.Name)
	if err != nil {
		return err
	}
	defer conn.Close()

	var s *session.Session
	if cfg.Window.ExitOnClose {
		opts.OnClose = func() { s.Stop() }
	}

	s, err = session.New(conn, opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var interrupted atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, disconnecting", "signal", sig)
			interrupted.Store(true)
			cancel()
			// Unblock the pending read.
			conn.Interrupt()
		case <-done:
		}
	}()

	logger.Info("window created", "title", opts.Title, "width", opts.Width, "height", opts.Height)

	runErr := s.Run(ctx)
	close(done)

	if interrupted.Load() {
		return nil
	}
	if err := s.Close(); err != nil && runErr == nil {
		logger.Warn("teardown incomplete", "error", err)
	}
	if runErr != nil {
		return runErr
	}

	logger.Info("session ended", "configures", s.Cycles(), "close_requested", s.CloseRequested())
	return nil
}
