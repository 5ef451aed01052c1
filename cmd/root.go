package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"ssc/internal/cli"
	"ssc/internal/config"
	"ssc/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates authentication is required but not available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the login flow failed.
	ExitCodeAuthFailed = 3
)

// Global flags
var (
	configPath string
	debug      bool
	quiet      bool
)

// rootCmd represents the base command for the ssc application.
var rootCmd = &cobra.Command{
	Use:   "ssc",
	Short: "Manage your Keycloak self-service clients",
	Long: `ssc manages the OpenID Connect clients you own in a Keycloak realm
with the self-service clients extension.

It logs you in through your browser, keeps your session alive and
retries requests transparently while the identity provider is
unreachable or rate limiting.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.LevelWarn
		if debug {
			level = logging.LevelDebug
		}
		logging.InitForCLI(level, cmd.ErrOrStderr())
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "ssc version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var authRequired *cli.AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var authExpired *cli.AuthExpiredError
	if errors.As(err, &authExpired) {
		return ExitCodeAuthRequired
	}

	var authFailed *cli.AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

// printf writes progress output unless --quiet is set.
func printf(w io.Writer, format string, args ...any) {
	if !quiet {
		fmt.Fprintf(w, format, args...)
	}
}

func loadConfig() (config.Config, error) {
	return config.LoadConfig(configPath)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", config.DefaultConfigPath(), "Configuration directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
