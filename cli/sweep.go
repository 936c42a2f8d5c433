package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leetryscode/matchmakr-vg0-sub001/config"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
)

// NewSweepCommand creates the one-shot expiry command.
func NewSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "sweep",
		Short:        "Expire every overdue pending sneak peek once",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			sweeper := services.NewSneakPeekService(store, services.PassthroughSnapshotter{}, policyFrom(cfg), nil)
			expired, err := sweeper.ExpireOverdue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d sneak peeks\n", expired)
			return nil
		},
	}
}
