package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pomodoro/internal/feed"
)

func newRunCommand(app *application) *cobra.Command {
	var autoStart bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run headless and serve the session over WebSocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runHeadless(cmd.Context(), autoStart)
		},
	}
	cmd.Flags().String(keyFeedAddr, "127.0.0.1:8425", "listen address for the WebSocket feed")
	cmd.Flags().BoolVar(&autoStart, "start", false, "start the first work countdown immediately")
	_ = app.config.BindPFlag(keyFeedAddr, cmd.Flags().Lookup(keyFeedAddr))
	return cmd
}

func (app *application) runHeadless(parent context.Context, autoStart bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := app.openSession(ctx, modeRun, nil)
	if err != nil {
		return err
	}

	server := feed.NewServer(s.keeper, app.logger)
	events := s.keeper.Subscribe(256)
	s.goRun(func() { server.Forward(ctx, events) })
	s.start(ctx)
	if autoStart {
		s.keeper.Start()
	}

	serveErr := server.ListenAndServe(ctx, app.options.FeedAddr)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	closeErr := s.close(shutdownCtx)
	if serveErr != nil {
		return serveErr
	}
	return closeErr
}
