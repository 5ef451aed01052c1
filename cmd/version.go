package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ssc version",
		Long:  `Print the ssc release, the Go runtime it was built with and the platform.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ssc version %s (%s, %s/%s)\n", displayVersion(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

// displayVersion names builds without a release version "dev".
func displayVersion() string {
	if rootCmd.Version == "" {
		return "dev"
	}
	return rootCmd.Version
}
