package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/cardgate/internal/health"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var checkInterval time.Duration
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve gateway health and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.application()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := health.NewServer(health.NewMonitor(a.client, checkInterval), a.cfg.Server.Port)
			return runServer(ctx, server, a.cfg.Server.Port)
		},
	}
	serveCmd.Flags().DurationVar(&checkInterval, "check-interval", 10*time.Second, "minimum time between gateway health checks")
	return serveCmd
}

type lifecycle interface {
	Start() error
	Stop(ctx context.Context) error
}

func runServer(ctx context.Context, server lifecycle, port int) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Health server started", "port", port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down health server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Stop(shutdownCtx)
	})

	return g.Wait()
}
