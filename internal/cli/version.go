package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the release version, overridable at build time with
// -ldflags "-X github.com/fieldside/rostervault/internal/cli.Version=...".
var Version = "0.1.0"

const modulePath = "github.com/fieldside/rostervault"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rostervault version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "rostervault v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
