package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	var watch bool
	var retryFailed bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Drain queued operations to the remote replica",
		Long: "Push the principal's pending sync operations to the configured remote\n" +
			"store. With --watch, keep draining on the configured interval until\n" +
			"interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			if retryFailed {
				n, err := s.queue.RetryFailed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %d failed operations to pending\n", n)
			}

			engine, err := s.engine(cmd.Context())
			if err != nil {
				return err
			}

			if watch {
				interval := time.Duration(s.cfg.Sync.IntervalSeconds) * time.Second
				if interval <= 0 {
					interval = 30 * time.Second
				}
				fmt.Fprintf(cmd.OutOrStdout(), "syncing every %s (ctrl-c to stop)\n", interval)
				engine.Run(cmd.Context(), interval)
				return nil
			}

			res, err := engine.Drain(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"completed %d, requeued %d, failed %d, conflicts %d\n",
				res.Completed, res.Requeued, res.Failed, res.Conflicts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep syncing on the configured interval")
	cmd.Flags().BoolVar(&retryFailed, "retry-failed", false, "restore failed operations to pending first")
	return cmd
}
