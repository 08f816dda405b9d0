// Package cli implements the rostervault command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldside/rostervault/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	principal string
	jsonMode  bool
}

var flags rootFlags

// NewRootCmd creates the top-level "rostervault" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rostervault",
		Short: "Local-first match-day data store with per-principal partitions",
		Long: "Rostervault keeps players, teams, seasons, tournaments, and games in\n" +
			"per-principal local partitions, with optional background sync to a\n" +
			"remote replica and portable snapshot export/import.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().StringVarP(&flags.principal, "principal", "p", "", "principal identity to operate as")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newPurgeCmd())
	root.AddCommand(newMigrateCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code:
// 0 on success, 2 when local storage is unusable, 1 for everything else.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, types.ErrStorageUnavailable) {
			os.Exit(exitSysError)
		}
		os.Exit(exitUserError)
	}
	os.Exit(exitSuccess)
}

// requirePrincipal fails a storage-bound command invoked without an
// identity.
func requirePrincipal() (string, error) {
	if flags.principal == "" {
		return "", fmt.Errorf("no principal given (use --principal)")
	}
	return flags.principal, nil
}
