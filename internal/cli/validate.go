package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldside/rostervault/internal/backup"
	"github.com/fieldside/rostervault/pkg/types"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check referential integrity of the principal's partition",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			report, err := backup.ValidateReferences(cmd.Context(), s.ds.Partition())
			if err != nil {
				return err
			}

			if flags.jsonMode {
				raw, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			} else {
				for _, w := range report.Warnings {
					fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
				}
				for _, e := range report.Errors {
					fmt.Fprintf(cmd.OutOrStdout(), "error: %s\n", e)
				}
				if report.Valid {
					fmt.Fprintln(cmd.OutOrStdout(), "partition is consistent")
				}
			}
			if !report.Valid {
				return fmt.Errorf("%w: %d reference errors", types.ErrReferenceIntegrity, len(report.Errors))
			}
			return nil
		},
	}
}
