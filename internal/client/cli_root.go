// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/repcue-sync/internal/config"
	"github.com/MKhiriev/repcue-sync/internal/logger"
)

const clientRole = "repcue-client"

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var validFormats = []string{FormatText, FormatJSON}

// AppFactory builds the application for a parsed configuration.
type AppFactory func(ctx context.Context, cfg *config.ClientConfig, log *logger.Logger) (*App, error)

// RootOptions holds global flags shared by all subcommands.
type RootOptions struct {
	Format string

	flags   *config.Flags
	factory AppFactory
}

// NewRootCommand creates the root command of the sync client. A nil factory
// uses [NewApp].
func NewRootCommand(factory AppFactory) *cobra.Command {
	if factory == nil {
		factory = NewApp
	}
	opts := &RootOptions{factory: factory}

	cmd := &cobra.Command{
		Use:           "repcue",
		Short:         "Offline-first workout data sync client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return nil
		},
	}

	opts.flags = config.BindFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (json|text)")

	cmd.AddCommand(
		newSyncCommand(opts),
		newStatusCommand(opts),
		newPendingCommand(opts),
		newClearCommand(opts),
		newRunCommand(opts),
		newWatchCommand(opts),
		newQueueCommand(opts),
		newPutCommand(opts),
		newGetCommand(opts),
		newListCommand(opts),
		newDeleteCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newConsentCommand(opts),
	)

	return cmd
}

type appRunE func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error

// withApp opens the app for the duration of fn.
func (o *RootOptions) withApp(fn appRunE) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := config.GetClientConfig(o.flags)
		if err != nil {
			return fmt.Errorf("error getting configs: %w", err)
		}

		log := logger.NewClientLogger(clientRole, cfg.App.LogFile)
		app, err := o.factory(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := app.Close(); err == nil {
				err = closeErr
			}
		}()

		return fn(app.Context(ctx), cmd, app, args)
	}
}

// print writes v as indented JSON or through text.
func (o *RootOptions) print(w io.Writer, v any, text func(io.Writer)) error {
	if o.Format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
