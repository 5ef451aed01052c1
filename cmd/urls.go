package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var urlsCmd = &cobra.Command{
	Use:   "urls",
	Short: "Print the links to the admin and account consoles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-18s %s\n", "Issuer:", cfg.IdPURL())
		fmt.Fprintf(out, "%-18s %s\n", "Admin console:", cfg.AdminURL())
		fmt.Fprintf(out, "%-18s %s\n", "Account console:", cfg.AccountConsoleURL())
		fmt.Fprintf(out, "%-18s %s\n", "Clients API:", cfg.ClientsURL())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(urlsCmd)
}
