package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fieldside/rostervault/internal/backup"
	"github.com/fieldside/rostervault/internal/sqlite"
)

func newMigrateCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "migrate-legacy",
		Short: "Import the pre-partitioning global store into the principal's partition",
		Long: "Package the legacy shared database as a snapshot and run it through the\n" +
			"standard import pipeline: identifiers are regenerated into the\n" +
			"principal's namespace and references validated.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			legacyPath := filepath.Join(s.cfg.DataDir, backup.LegacyFileName)
			if _, err := os.Stat(legacyPath); os.IsNotExist(err) {
				return fmt.Errorf("no legacy store at %s", legacyPath)
			}
			legacy, err := sqlite.Open(legacyPath)
			if err != nil {
				return err
			}
			defer legacy.Close()

			res, err := s.importer().MigrateLegacy(cmd.Context(), legacy, backup.Mode(mode))
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(backup.ModeMerge), "import mode: merge or replace")
	return cmd
}
