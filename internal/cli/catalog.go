package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/internallink/internal/sqlite"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the offline link-target catalog",
	}
	cmd.AddCommand(newCatalogAddCmd(), newCatalogListCmd(), newCatalogDeleteCmd(),
		newCatalogImportCmd(), newCatalogExportCmd())
	return cmd
}

// withCatalog attaches the catalog for the duration of fn.
func withCatalog(cmd *cobra.Command, fn func(*sqlite.Backend) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	backend, err := openCatalog(cfg, newLogger(cmd, cfg), nil)
	if err != nil {
		return err
	}
	defer backend.Detach()
	return fn(backend)
}

func targets(b *sqlite.Backend) (types.Table, error) {
	return b.GetTable(types.TargetsTable)
}

func newCatalogAddCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "add LABEL",
		Short: "Add or relabel a link target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(b *sqlite.Backend) error {
				tbl, err := targets(b)
				if err != nil {
					return err
				}
				newID, err := tbl.Set(id, &types.LinkTarget{TargetID: id, Label: args[0]})
				if err != nil {
					return err
				}
				if flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]string{"id": newID, "label": args[0]})
				}
				fmt.Fprintln(cmd.OutOrStdout(), newID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "target id (default: generated)")
	return cmd
}

func newCatalogListCmd() *cobra.Command {
	var label string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List link targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(b *sqlite.Backend) error {
				tbl, err := targets(b)
				if err != nil {
					return err
				}
				filter := types.Filter{}
				if label != "" {
					filter["label"] = label
				}
				if limit > 0 {
					filter["limit"] = limit
				}
				if offset > 0 {
					filter["offset"] = offset
				}
				entities, err := tbl.Fetch(filter)
				if err != nil {
					return err
				}
				list := make([]*types.LinkTarget, 0, len(entities))
				for _, e := range entities {
					list = append(list, e.(*types.LinkTarget))
				}
				if flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), list)
				}
				for _, t := range list {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", t.TargetID, t.Label, t.CreatedAt.Format(time.RFC3339))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "only targets whose label contains this text")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of targets")
	cmd.Flags().IntVar(&offset, "offset", 0, "targets to skip")
	return cmd
}

func newCatalogDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a link target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(b *sqlite.Backend) error {
				tbl, err := targets(b)
				if err != nil {
					return err
				}
				return tbl.Delete(args[0])
			})
		},
	}
}

func newCatalogImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import link targets from a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(b *sqlite.Backend) error {
				n, err := b.Import(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d targets\n", n)
				return nil
			})
		},
	}
}

func newCatalogExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Export link targets to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(b *sqlite.Backend) error {
				n, err := b.Export(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d targets\n", n)
				return nil
			})
		},
	}
}
