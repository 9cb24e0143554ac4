package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var errLoginArgs = errors.New("either a subject or --token is required")

func newLoginCommand(opts *RootOptions) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login [subject]",
		Short: "Store an access token; anonymous records are claimed on the next sync",
		Long: `Store an access token. With --token the given token is used as is;
otherwise a token for subject is requested from the development server.`,
		Args: cobra.MaximumNArgs(1),
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			if token == "" {
				if len(args) == 0 {
					return errLoginArgs
				}
				issued, err := app.Tokens.IssueToken(ctx, args[0])
				if err != nil {
					return fmt.Errorf("request token: %w", err)
				}
				token = issued
			}

			if err := app.Auth.Login(ctx, token); err != nil {
				return err
			}
			owner := app.Auth.OwnerID()
			return opts.print(cmd.OutOrStdout(), map[string]string{"owner": owner}, func(w io.Writer) {
				fmt.Fprintf(w, "logged in as %s\n", owner)
			})
		}),
	}
	cmd.Flags().StringVar(&token, "token", "", "access token to store")

	return cmd
}

func newLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the access token",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			if err := app.Auth.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "logged out")
			return nil
		}),
	}
}

func newConsentCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "consent [on|off]",
		Short:     "Show or record the cloud sync consent",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			if len(args) == 1 {
				if err := app.Consent.Set(ctx, args[0] == "on"); err != nil {
					return err
				}
			}
			granted := app.Consent.HasConsent()
			return opts.print(cmd.OutOrStdout(), map[string]bool{"consent": granted}, func(w io.Writer) {
				fmt.Fprintln(w, granted)
			})
		}),
	}
}
