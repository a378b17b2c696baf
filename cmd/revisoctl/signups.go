package main

import (
	"fmt"

	"reviso/internal/jobs/background"

	"github.com/spf13/cobra"
)

var signupsCmd = &cobra.Command{
	Use:   "signups",
	Short: "Pending signup maintenance",
}

var signupsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete pending signups past their expiry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, pool, store, err := controlPlane(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		n, err := background.NewTasks(store.Repos().PendingSignups, nil).PurgeExpiredSignups(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired signups\n", n)
		return nil
	},
}

func init() {
	signupsCmd.AddCommand(signupsPurgeCmd)
}
