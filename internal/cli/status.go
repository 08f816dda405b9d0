package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show partition and sync queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			stats, err := s.queue.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if flags.jsonMode {
				out := map[string]any{
					"principal":      s.ds.PrincipalID(),
					"prefix":         s.ds.Prefix(),
					"partitionBytes": s.ds.SizeBytes(),
					"queue":          stats,
					"syncEnabled":    s.cfg.Sync.Enabled,
				}
				raw, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "principal: %s (prefix %s)\n", s.ds.PrincipalID(), s.ds.Prefix())
			fmt.Fprintf(cmd.OutOrStdout(), "partition: %d bytes\n", s.ds.SizeBytes())
			fmt.Fprintf(cmd.OutOrStdout(), "sync:      enabled=%v\n", s.cfg.Sync.Enabled)
			if len(stats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "queue:     empty")
				return nil
			}
			for status, n := range stats {
				fmt.Fprintf(cmd.OutOrStdout(), "queue:     %s=%d\n", status, n)
			}

			failed, err := s.queue.Failed(cmd.Context())
			if err != nil {
				return err
			}
			for _, op := range failed {
				fmt.Fprintf(cmd.OutOrStdout(), "failed:    %s %s %s: %s\n",
					op.Operation, op.EntityType, op.EntityID, op.LastError)
			}
			if len(failed) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "run 'rostervault sync --retry-failed' to retry")
			}
			return nil
		},
	}
}
