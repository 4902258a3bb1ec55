package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/internallink/internal/config"
	"github.com/mesh-intelligence/internallink/internal/paths"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize linkctl configuration and catalog",
		Long:  "Write a default config.yaml when none exists, then create the link-target catalog.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return sysError("resolve config dir: %w", err)
	}
	if _, err := config.WriteDefault(configDir); err != nil {
		return sysError("%w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cmd, cfg)
	catalog, err := openCatalog(cfg, log, nil)
	if err != nil {
		return err
	}
	dir := catalog.Dir()
	if err := catalog.Detach(); err != nil {
		return sysError("finalize catalog: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "linkctl initialized\nconfig: %s\ncatalog: %s\n", configDir, dir)
	return nil
}
