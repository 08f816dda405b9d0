package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldside/rostervault/internal/backup"
	"github.com/fieldside/rostervault/pkg/types"
)

func newImportCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "import <snapshot-file>",
		Short: "Import a portable snapshot into the principal's partition",
		Long: "Import a snapshot, regenerating every identifier into the principal's\n" +
			"namespace. Merge mode upserts into the live partition; replace mode\n" +
			"atomically substitutes the whole partition and rolls back on any failure.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			var snap types.Snapshot
			if err := json.Unmarshal(raw, &snap); err != nil {
				return fmt.Errorf("%w: %v", types.ErrInvalidFormat, err)
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.importer().Import(cmd.Context(), &snap, backup.Mode(mode))
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(backup.ModeMerge), "import mode: merge or replace")
	return cmd
}

func printResult(cmd *cobra.Command, res backup.Result) error {
	if flags.jsonMode {
		raw, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d entities\n", res.Total)
	for entityType, n := range res.Counts {
		if n > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-18s %d\n", entityType, n)
		}
	}
	return nil
}
