package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/repcue-sync/models"
)

var errSyncFailed = errors.New("sync failed")

func newSyncCommand(opts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass against the remote",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			app.Probe(ctx)

			res := app.Services.Orchestrator.Sync(ctx, force)
			if err := opts.print(cmd.OutOrStdout(), res, func(w io.Writer) { printResult(w, res) }); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("%w: %s", errSyncFailed, strings.Join(res.Errors, "; "))
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&force, "force", false, "run even if another pass is in flight")

	return cmd
}

func newStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the sync status",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			app.Probe(ctx)

			st := app.Services.Orchestrator.Status(ctx)
			return opts.print(cmd.OutOrStdout(), st, func(w io.Writer) {
				fmt.Fprintf(w, "device:      %s\n", app.DeviceID)
				fmt.Fprintf(w, "owner:       %s\n", valueOr(app.Auth.OwnerID(), "anonymous"))
				fmt.Fprintf(w, "consent:     %t\n", app.Consent.HasConsent())
				fmt.Fprintf(w, "online:      %t\n", st.IsOnline)
				fmt.Fprintf(w, "syncing:     %t\n", st.IsSyncing)
				fmt.Fprintf(w, "pending:     %d\n", st.PendingChanges)
				fmt.Fprintf(w, "last sync:   %s\n", formatTime(st.LastSyncAt))
				fmt.Fprintf(w, "last success: %s\n", formatTime(st.LastSuccessAt))
				for _, e := range st.Errors {
					fmt.Fprintf(w, "error:       %s\n", e)
				}
			})
		}),
	}
}

func newPendingCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "Report whether local changes wait for sync",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			pending, err := app.Services.Orchestrator.HasChangesToSync(ctx)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), map[string]bool{"pending": pending}, func(w io.Writer) {
				fmt.Fprintln(w, pending)
			})
		}),
	}
}

func newClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the cursor and the retry queue; the next sync is a full one",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			if err := app.Services.Orchestrator.ClearSyncData(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "sync data cleared")
			return nil
		}),
	}
}

func newRunCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Keep syncing in the background until interrupted",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(ctx context.Context, _ *cobra.Command, app *App, _ []string) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
			defer stop()

			return app.Run(ctx)
		}),
	}
}

func printResult(w io.Writer, res models.SyncResult) {
	state := "ok"
	if !res.Success {
		state = "failed"
	}
	fmt.Fprintf(w, "sync %s: tables=%d pushed=%d pulled=%d conflicts=%d\n",
		state, res.TablesProcessed, res.RecordsPushed, res.RecordsPulled, res.Conflicts)
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(time.RFC3339)
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
