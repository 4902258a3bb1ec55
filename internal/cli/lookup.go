package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/internallink/internal/lookup"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

// newLookupService builds the lookup service described by cfg. A catalog is
// opened only when one is configured; closeFn releases it.
func newLookupService(cmd *cobra.Command, cfg types.Config) (svc *lookup.Service, closeFn func(), err error) {
	log := newLogger(cmd, cfg)
	closeFn = func() {}

	var catalog types.Catalog
	if cfg.CatalogDir != "" {
		backend, err := openCatalog(cfg, log, nil)
		if err != nil {
			return nil, nil, err
		}
		catalog = backend
		closeFn = func() { _ = backend.Detach() }
	}
	svc = lookup.NewService(
		lookup.NewProvider(cfg, catalog, http.DefaultClient),
		lookup.WithTimeout(cfg.LookupTimeout),
		lookup.WithLogger(log),
	)
	return svc, closeFn, nil
}

func newLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Query link targets",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "search TERM",
			Short: "List autocomplete candidates for TERM",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withLookup(cmd, func(svc *lookup.Service) error {
					candidates := svc.FindCandidates(context.Background(), args[0])
					if flags.jsonMode {
						return printJSON(cmd.OutOrStdout(), candidates)
					}
					for _, c := range candidates {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.ID, c.Label)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "title ID",
			Short: "Resolve the title of link target ID",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withLookup(cmd, func(svc *lookup.Service) error {
					title := svc.ResolveTitle(context.Background(), args[0])
					if flags.jsonMode {
						return printJSON(cmd.OutOrStdout(), map[string]string{"id": args[0], "title": title})
					}
					fmt.Fprintln(cmd.OutOrStdout(), title)
					return nil
				})
			},
		},
	)
	return cmd
}

func withLookup(cmd *cobra.Command, fn func(*lookup.Service) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, closeFn, err := newLookupService(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(svc)
}
