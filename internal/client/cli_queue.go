package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

var errRemoteUnreachable = errors.New("remote is unreachable")

func newQueueCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and replay the retry queue",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List queued operations",
			Args:  cobra.NoArgs,
			RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
				ops, err := app.Services.Queue.List(ctx)
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), ops, func(w io.Writer) {
					for _, op := range ops {
						fmt.Fprintf(w, "%s\t%s\t%s\tretries=%d\tnext=%s\n",
							op.ID, op.Type, op.Endpoint, op.RetryCount, time.UnixMilli(op.NextRetryAt).Local().Format(time.RFC3339))
					}
				})
			}),
		},
		&cobra.Command{
			Use:   "drain",
			Short: "Send due operations now",
			Args:  cobra.NoArgs,
			RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
				if !app.Probe(ctx) {
					return errRemoteUnreachable
				}
				res, err := app.Services.Queue.Drain(ctx, app.adapters.Operations, 0)
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), res, func(w io.Writer) {
					fmt.Fprintf(w, "sent=%d failed=%d dropped=%d\n", res.Sent, res.Failed, res.Dropped)
				})
			}),
		},
		&cobra.Command{
			Use:   "cleanup",
			Short: "Remove operations past retention or retry limit",
			Args:  cobra.NoArgs,
			RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
				removed, err := app.Services.Queue.Cleanup(ctx)
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), map[string]int64{"removed": removed}, func(w io.Writer) {
					fmt.Fprintf(w, "removed=%d\n", removed)
				})
			}),
		},
	)

	return cmd
}
