package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize rostervault storage",
		Long:  "Create configuration and data directories and write a default config.yaml.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := ensureConfigFile()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "rostervault initialized\nconfig: %s\ndata:   %s\n", configDir, cfg.DataDir)
	return nil
}
