package cmd

import (
	"context"
	"fmt"

	"ssc/internal/request"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var checkRetry bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the identity provider is reachable",
	Long: `Fetch the realm's OpenID Connect discovery document.

Without --retry a single attempt is made. With --retry connection failures
and rate limiting are retried until the provider answers or you press Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkRetry, "retry", false, "Retry until the provider is reachable")
}

func runCheck(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.keycloak.TestConnection(ctx, checkRetry); err != nil {
			if !checkRetry && request.IsRetryable(err) {
				printf(cmd.ErrOrStderr(), "Hint: run 'ssc check --retry' to wait until %s is reachable\n", a.cfg.IdPURL())
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s is reachable\n", text.FgGreen.Sprint("✔"), a.cfg.IdPURL())
		return nil
	})
}
