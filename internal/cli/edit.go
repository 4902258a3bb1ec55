package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/internallink/pkg/internallink"
	"github.com/mesh-intelligence/internallink/pkg/model"
)

// editFlags select the range a link or unlink applies to. A negative end
// means a caret at start.
type editFlags struct {
	block int
	start int
	end   int
	write bool
}

func (f *editFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.block, "block", 0, "block index")
	cmd.Flags().IntVar(&f.start, "start", 0, "selection start offset")
	cmd.Flags().IntVar(&f.end, "end", -1, "selection end offset (default: caret at start)")
	cmd.Flags().BoolVarP(&f.write, "write", "w", false, "rewrite FILE instead of printing")
}

func (f *editFlags) selection(doc *model.Document) (model.Range, error) {
	start, err := at(doc, f.block, f.start)
	if err != nil {
		return model.Range{}, err
	}
	if f.end < 0 {
		return model.Collapsed(start), nil
	}
	end, err := at(doc, f.block, f.end)
	if err != nil {
		return model.Range{}, err
	}
	return model.NewRange(start, end), nil
}

// editDocument opens FILE in a headless session, selects the flagged range,
// applies fn and writes the result.
func editDocument(cmd *cobra.Command, path string, f *editFlags, fn func(*internallink.Session) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	sel, err := f.selection(doc)
	if err != nil {
		return err
	}

	s, err := internallink.New(doc, cfg, nil, nil, internallink.WithLogger(newLogger(cmd, cfg)))
	if err != nil {
		return err
	}
	if err := doc.SetSelection(sel); err != nil {
		s.Close()
		return err
	}
	if err := fn(s); err != nil {
		s.Close()
		return err
	}
	if err := s.Close(); err != nil {
		return err
	}
	return writeDocument(cmd.OutOrStdout(), path, doc, f.write)
}

func newLinkCmd() *cobra.Command {
	var f editFlags
	var id, text string
	cmd := &cobra.Command{
		Use:   "link FILE",
		Short: "Link a selection to a target",
		Long: "Link the selected range to --id. A caret inside a link retargets the\n" +
			"whole link; a caret elsewhere inserts --text (or the id) as a new link.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editDocument(cmd, args[0], &f, func(s *internallink.Session) error {
				return s.Link(id, text)
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&id, "id", "", "link target id")
	cmd.Flags().StringVar(&text, "text", "", "text to insert at a caret")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newUnlinkCmd() *cobra.Command {
	var f editFlags
	cmd := &cobra.Command{
		Use:   "unlink FILE",
		Short: "Remove links from a selection",
		Long:  "Remove the link under a caret, or the link attribute from exactly the selected range.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editDocument(cmd, args[0], &f, func(s *internallink.Session) error {
				return s.Unlink()
			})
		},
	}
	f.register(cmd)
	return cmd
}
