package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/repcue-sync/models"
)

var errInvalidField = errors.New("field must be key=value")

func newPutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "put <table> <id> [key=value...]",
		Short: "Create or replace a local record",
		Long: `Create or replace a local record. Values are parsed as JSON when
possible (numbers, booleans, null, objects) and kept as strings otherwise.`,
		Args: cobra.MinimumNArgs(2),
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			fields, err := parseFields(args[2:])
			if err != nil {
				return err
			}
			rec, err := app.Services.Records.Put(ctx, args[0], args[1], fields)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), rec, func(w io.Writer) { printRecord(w, rec) })
		}),
	}
}

func newGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <id>",
		Short: "Show a local record",
		Args:  cobra.ExactArgs(2),
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			rec, err := app.Services.Records.Get(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), rec, func(w io.Writer) { printRecord(w, rec) })
		}),
	}
}

func newListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <table>",
		Short: "List live local records of a table",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			recs, err := app.Services.Records.List(ctx, args[0])
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), recs, func(w io.Writer) {
				for _, rec := range recs {
					printRecord(w, rec)
				}
			})
		}),
	}
}

func newDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <id>",
		Short: "Delete a local record; the deletion syncs as a tombstone",
		Args:  cobra.ExactArgs(2),
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			rec, err := app.Services.Records.Delete(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), rec, func(w io.Writer) { printRecord(w, rec) })
		}),
	}
}

func parseFields(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", errInvalidField, arg)
		}

		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		fields[key] = v
	}
	return fields, nil
}

func printRecord(w io.Writer, rec models.Record) {
	owner := "-"
	if rec.OwnerID != nil {
		owner = *rec.OwnerID
	}
	fmt.Fprintf(w, "%s/%s v%d owner=%s dirty=%t deleted=%t\n",
		rec.Table, rec.ID, rec.Version, owner, rec.Dirty == models.Pending, rec.Deleted)
	if len(rec.Fields) > 0 {
		b, _ := json.Marshal(rec.Fields)
		fmt.Fprintf(w, "  %s\n", b)
	}
}
