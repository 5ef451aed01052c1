package cmd

import (
	"context"
	"fmt"
	"time"

	"ssc/internal/cli"
	"ssc/internal/formatting"
	"ssc/internal/oidc"
	"ssc/pkg/logging"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var (
	loginTimeout time.Duration
	whoamiOutput string
)

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your session with the identity provider",
	Long: `Manage your session with the identity provider.

Examples:
  ssc auth login      # Log in through the browser
  ssc auth status     # Show the session state
  ssc auth whoami     # Show your identity claims
  ssc auth refresh    # Renew the access token now
  ssc auth logout     # End the session`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in through the browser",
	Long: `Log in to the identity provider.

A stored session is reused when it is still valid. Otherwise your browser
opens the provider's login page and ssc waits for the redirect back.`,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session",
	Long: `End the session at the identity provider and remove the stored tokens.

The provider's logout page opens in your browser.`,
	RunE: runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session state",
	RunE:  runAuthStatus,
}

var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity claims of the logged in user",
	RunE:  runAuthWhoami,
}

var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Renew the access token now",
	RunE:  runAuthRefresh,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd, authWhoamiCmd, authRefreshCmd)

	authLoginCmd.Flags().DurationVar(&loginTimeout, "timeout", defaultLoginTimeout, "How long to wait for the browser login")
	authWhoamiCmd.Flags().StringVarP(&whoamiOutput, "output", "o", "table", "Output format (table, json, yaml)")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		out := cmd.OutOrStdout()
		if err := a.settle(ctx); err != nil {
			return err
		}
		if a.session.Authenticated() {
			printf(out, "Already logged in as %s\n", text.Bold.Sprint(a.session.UserInfo().DisplayName()))
			return nil
		}
		if err := a.login(ctx, out, loginTimeout); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s Logged in as %s\n", text.FgGreen.Sprint("✔"), text.Bold.Sprint(a.session.UserInfo().DisplayName()))
		return nil
	})
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		out := cmd.OutOrStdout()
		if err := a.settle(ctx); err != nil {
			return err
		}
		if !a.session.Authenticated() {
			printf(out, "Not logged in.\n")
			return nil
		}
		if err := a.session.LogoutUser(ctx, a.cfg.GenerateRedirectURI("/")); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s Logged out\n", text.FgGreen.Sprint("✔"))
		return nil
	})
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		out := cmd.OutOrStdout()
		if err := a.settle(ctx); err != nil {
			return err
		}

		fmt.Fprintf(out, "%-16s %s\n", "Issuer:", a.cfg.IdPURL())
		fmt.Fprintf(out, "%-16s %s\n", "State:", stateLabel(a))
		if !a.session.Authenticated() {
			return nil
		}
		tokens := a.oidc.Tokens()
		fmt.Fprintf(out, "%-16s %s\n", "User:", a.session.UserInfo().DisplayName())
		fmt.Fprintf(out, "%-16s %s\n", "Expires:", formatExpiry(tokens.ExpiresAt, time.Now()))
		fmt.Fprintf(out, "%-16s %t\n", "Refreshable:", tokens.RefreshToken != "")
		return nil
	})
}

func runAuthWhoami(cmd *cobra.Command, args []string) error {
	format, err := formatting.ParseFormat(whoamiOutput)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.requireSession(ctx); err != nil {
			return err
		}
		claims, err := a.oidc.UserInfo(ctx)
		if err != nil {
			logging.Debug("CLI", "userinfo failed, showing ID token claims: %v", err)
			claims = a.session.UserInfo()
		}
		return formatting.NewFormatter(formatting.Options{
			Format: format,
			Writer: cmd.OutOrStdout(),
		}).FormatData(claims)
	})
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.requireSession(ctx); err != nil {
			return err
		}
		tokens, err := a.oidc.RefreshTokens(ctx)
		if err != nil {
			if oidc.IsSessionLost(err) {
				return &cli.AuthExpiredError{Issuer: a.cfg.IdPURL(), Reason: err}
			}
			return err
		}
		printf(cmd.OutOrStdout(), "%s Token refreshed, expires %s\n",
			text.FgGreen.Sprint("✔"), formatExpiry(tokens.ExpiresAt, time.Now()))
		return nil
	})
}

func stateLabel(a *app) string {
	if a.session.Authenticated() {
		return text.FgGreen.Sprint("Authenticated")
	}
	return text.FgYellow.Sprint("Not authenticated")
}

// formatExpiry renders an expiry as a timestamp plus the time left.
func formatExpiry(at, now time.Time) string {
	if at.IsZero() {
		return "unknown"
	}
	left := at.Sub(now).Round(time.Second)
	if left <= 0 {
		return fmt.Sprintf("%s (expired)", at.Local().Format(time.RFC3339))
	}
	return fmt.Sprintf("%s (in %s)", at.Local().Format(time.RFC3339), left)
}
