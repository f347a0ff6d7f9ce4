package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pagebuilder/internal/render"
)

func newGraphCmd() *cobra.Command {
	var (
		output   string
		pageID   string
		dotOnly  bool
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "graph <document-id>",
		Short: "Draw the connection graph of a document as SVG",
		Long:  `graph renders every active connection of a document, grouped by page, with Graphviz. Use --dot to print the DOT source instead.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.docs.LoadDocument(args[0])
			if err != nil {
				return err
			}
			dot := render.ToDOT(doc, render.Options{PageID: pageID, Inactive: inactive})
			if dotOnly {
				_, err := fmt.Fprint(cmd.OutOrStdout(), dot)
				return err
			}

			a.logger.Debug("rendering connection graph", "document", doc.ID, "connections", len(doc.Connections))
			svg, err := render.RenderSVG(cmd.Context(), dot)
			if err != nil {
				return err
			}
			if output == "" {
				output = doc.ID + ".svg"
			}
			if err := os.WriteFile(output, svg, 0644); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Rendered %s", StyleTitle.Render(doc.Name))
			printFile(cmd.OutOrStdout(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <document-id>.svg)")
	cmd.Flags().StringVar(&pageID, "page", "", "only connections touching this page")
	cmd.Flags().BoolVar(&dotOnly, "dot", false, "print DOT source instead of rendering")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "include inactive connections")
	return cmd
}
