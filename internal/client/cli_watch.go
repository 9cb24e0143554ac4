package client

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/repcue-sync/internal/service"
	"github.com/MKhiriev/repcue-sync/internal/tui"
)

func newWatchCommand(opts *RootOptions) *cobra.Command {
	var refresh time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the background sync with a live status screen",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(ctx context.Context, _ *cobra.Command, app *App, _ []string) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGQUIT)
			defer stop()

			screen, err := tui.New(app.watchDeps(refresh), app.logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return app.Run(gctx)
			})
			g.Go(func() error {
				defer cancel()
				return screen.Watch(gctx)
			})

			return g.Wait()
		}),
	}
	cmd.Flags().DurationVar(&refresh, "refresh", 5*time.Second, "status refresh interval")

	return cmd
}

func (a *App) watchDeps(refresh time.Duration) tui.Deps {
	return tui.Deps{
		Engine: a.Services.Orchestrator,
		Drain: func(ctx context.Context) (service.DrainResult, error) {
			if !a.Probe(ctx) {
				return service.DrainResult{}, errRemoteUnreachable
			}
			return a.Services.Queue.Drain(a.Context(ctx), a.adapters.Operations, 0)
		},
		Probe:    a.Probe,
		Owner:    a.Auth.OwnerID,
		DeviceID: a.DeviceID,
		Refresh:  refresh,
	}
}
