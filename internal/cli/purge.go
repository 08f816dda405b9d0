package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPurgeCmd() *cobra.Command {
	var yes bool
	var queueOnly bool
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete the principal's local data and queued operations",
		Long: "Delete every locally stored entity for the principal and drop the\n" +
			"principal's queued sync operations. Remote data is not touched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to purge without --yes")
			}
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			n, err := s.queue.PurgeActivePrincipal(cmd.Context())
			if err != nil {
				return err
			}
			if !queueOnly {
				if err := s.ds.ClearAllUserData(cmd.Context()); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "purged %d queued operations", n)
			if !queueOnly {
				fmt.Fprint(cmd.OutOrStdout(), " and all local data")
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the purge")
	cmd.Flags().BoolVar(&queueOnly, "queue-only", false, "drop queued operations but keep local data")
	return cmd
}
