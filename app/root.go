// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "authcore",
	Short: "authcore runs the platform authentication engine",
	Long: `authcore runs the platform authentication engine: it keeps identity
provider sessions validated and refreshed, resolves the authoritative
application role for each identity, and exposes the session state to the
rest of the platform over a small JSON API.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
