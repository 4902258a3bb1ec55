package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/internallink/internal/linkrange"
	"github.com/mesh-intelligence/internallink/internal/linkstore"
	"github.com/mesh-intelligence/internallink/pkg/model"
)

// resolution describes the link run found at a position.
type resolution struct {
	LinkID string `json:"link_id"`
	Block  int    `json:"block"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Text   string `json:"text"`
	Title  string `json:"title,omitempty"`
}

func newResolveCmd() *cobra.Command {
	var block, offset int
	var withTitle bool
	cmd := &cobra.Command{
		Use:   "resolve FILE",
		Short: "Show the link run at a position",
		Long:  "Place a caret at --block/--offset and print the link run that contains it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			pos, err := at(doc, block, offset)
			if err != nil {
				return err
			}
			if err := doc.SetSelection(model.Collapsed(pos)); err != nil {
				return err
			}

			res := resolution{Block: block, Start: offset, End: offset}
			if value, ok := linkstore.New(doc).Value(); ok {
				run := linkrange.Find(pos, value)
				res.LinkID = value
				res.Start = run.Start.Offset
				res.End = run.End.Offset
				res.Text = runText(run)
			}
			if withTitle && res.LinkID != "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				svc, closeFn, err := newLookupService(cmd, cfg)
				if err != nil {
					return err
				}
				defer closeFn()
				res.Title = svc.ResolveTitle(context.Background(), res.LinkID)
			}

			out := cmd.OutOrStdout()
			if flags.jsonMode {
				return printJSON(out, res)
			}
			if res.LinkID == "" {
				fmt.Fprintf(out, "no link at %d:%d\n", block, offset)
				return nil
			}
			fmt.Fprintf(out, "%s\t%d:%d-%d\t%s", res.LinkID, block, res.Start, res.End, res.Text)
			if res.Title != "" {
				fmt.Fprintf(out, "\t%s", res.Title)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().IntVar(&block, "block", 0, "block index")
	cmd.Flags().IntVar(&offset, "offset", 0, "offset inside the block")
	cmd.Flags().BoolVar(&withTitle, "title", false, "resolve the link title")
	return cmd
}

func runText(r model.Range) string {
	var b strings.Builder
	for _, n := range r.Inline() {
		b.WriteString(n.Text())
	}
	return b.String()
}
