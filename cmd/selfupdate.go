package cmd

import (
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is the owner/repo that publishes ssc releases.
const githubRepoSlug = "self-service-clients/ssc"

var selfUpdateCheckOnly bool

func newSelfUpdateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "self-update",
		Short: "Update ssc to the latest release",
		Long: `Look up the newest ssc release on GitHub and replace the running binary
with it. With --check only report whether a newer release exists.`,
		Args: cobra.NoArgs,
		RunE: runSelfUpdate,
	}
	c.Flags().BoolVar(&selfUpdateCheckOnly, "check", false, "Only report whether an update is available")
	return c
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	currentVersion := displayVersion()
	// Development builds do not follow semantic versioning.
	if currentVersion == "dev" {
		return fmt.Errorf("cannot self-update a development version")
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	printf(out, "Current version: %s\n", currentVersion)
	printf(out, "Checking for updates...\n")

	updater, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create updater: %w", err)
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(githubRepoSlug))
	if err != nil {
		return fmt.Errorf("error detecting latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("latest release for %s could not be found", githubRepoSlug)
	}

	if !latest.GreaterThan(currentVersion) {
		printf(out, "Current version is the latest.\n")
		return nil
	}

	printf(out, "Found newer version: %s (published at %s)\n", latest.Version(), latest.PublishedAt)
	printf(out, "Release notes:\n%s\n", latest.ReleaseNotes)
	if selfUpdateCheckOnly {
		fmt.Fprintf(out, "Run 'ssc self-update' to install %s\n", latest.Version())
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	printf(out, "Updating %s to version %s...\n", exe, latest.Version())
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Fprintf(out, "Successfully updated to version %s\n", latest.Version())
	return nil
}
