package cmd

import (
	"fmt"
	"os"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// updateRepo is the GitHub repository releases are fetched from.
const updateRepo = "gsvibhav/mcp-entra"

// newSelfUpdateCmd creates the Cobra command that updates the running
// binary to the latest GitHub release.
func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update mcp-entra to the latest version",
		Long: `Check GitHub releases for a newer version of mcp-entra and replace
the current binary with it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			current := rootCmd.Version
			if current == "" || current == "dev" {
				return fmt.Errorf("cannot self-update a development version; install a released build first")
			}

			ctx := cmd.Context()
			latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(updateRepo))
			if err != nil {
				return fmt.Errorf("error occurred while detecting version: %w", err)
			}
			if !found {
				return fmt.Errorf("latest version could not be found from repository %s", updateRepo)
			}

			if latest.LessOrEqual(current) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Current version (%s) is the latest\n", current)
				return nil
			}

			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("could not locate executable path: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updating to version %s...\n", latest.Version())
			if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
				return fmt.Errorf("error occurred while updating binary: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully updated to version %s\n", latest.Version())
			return nil
		},
	}
}
