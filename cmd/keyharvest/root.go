// Package keyharvest is the cobra command tree for the keyharvest
// CLI, grounded on cmd/chatlog/root.go and cmd/chatlog/log.go of the
// teacher repo: a persistent --debug flag drives log verbosity, and
// the root command has no Run of its own; each subcommand (extract,
// decode, version) carries its handler.
package keyharvest

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var debug bool

func init() {
	cobra.MousetrapHelpText = ""
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug")
	rootCmd.PersistentPreRun = initLog
}

var rootCmd = &cobra.Command{
	Use:   "keyharvest",
	Short: "Recover database and image keys from a running instant-messaging client's memory",
	Long: `keyharvest locates a running instant-messaging desktop client, scans its
process memory for database and image key candidates, and validates
them against the client's own encrypted data files.`,
	Args: cobra.MinimumNArgs(0),
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Err(err).Msg("command execution failed")
		os.Exit(1)
	}
}
