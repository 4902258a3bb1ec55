package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/internallink/pkg/internallink"
)

const modulePath = "github.com/mesh-intelligence/internallink"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the linkctl version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "linkctl v%s\nmodule: %s\n", internallink.Version, modulePath)
			return nil
		},
	}
}
