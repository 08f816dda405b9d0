package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldside/rostervault/internal/backup"
)

func newExportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the principal's partition as a portable snapshot",
		Long: "Read every entity in the principal's partition and write a portable\n" +
			"snapshot: all identifiers are stripped of their namespace prefix so the\n" +
			"file can be imported by any principal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			snap, err := backup.Export(cmd.Context(), s.ds.Partition())
			if err != nil {
				return err
			}
			raw, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}

			if outPath == "" || outPath == "-" {
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return nil
			}
			if err := os.WriteFile(outPath, raw, 0o644); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d entities to %s\n", snap.EntityCount(), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "snapshot file to write (default: stdout)")
	return cmd
}
