// Package cli wires the matchmakr commands.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for the matchmakr CLI.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matchmakr",
		Short: "MatchMakr introductions service",
		Long:  "Consent-gated introductions between sponsored parties: matches, sponsor chat, sneak peeks and notifications.",
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewSweepCommand())
	cmd.AddCommand(NewMigrateCommand())

	return cmd
}
