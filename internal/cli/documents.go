package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pagebuilder/internal/bus"
	"pagebuilder/internal/domain"
)

func newNewCmd() *cobra.Command {
	var template string

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create and save an empty document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tmpl domain.Template
			if template != "" {
				var ok bool
				if tmpl, ok = domain.LookupTemplate(template); !ok {
					return fmt.Errorf("unknown template %q (have %s)", template, strings.Join(domain.TemplateKeys(), ", "))
				}
			}

			a, err := openApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			a.editor.NewDocument(strings.Join(args, " "))
			if template != "" {
				if _, err := a.editor.ApplyTemplate(tmpl, true); err != nil {
					return err
				}
			}
			if err := a.editor.Save(); err != nil {
				return err
			}
			doc := a.editor.Document()
			out := cmd.OutOrStdout()
			printSuccess(out, "Created %s", StyleTitle.Render(doc.Name))
			printKeyValue(out, "id", doc.ID)
			printKeyValue(out, "page", doc.Pages[0].ID)
			if template != "" {
				printKeyValue(out, "template", template)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "", "start from a built-in page template ("+strings.Join(domain.TemplateKeys(), ", ")+")")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved documents, most recently updated first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			docs, err := a.docs.ListDocuments()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				printInfo(out, "No documents in %s", a.db.Path())
				return nil
			}
			for _, d := range docs {
				fmt.Fprintf(out, "%s  %s  %s\n", StyleDim.Render(d.ID), StyleTitle.Render(d.Name), renderStatus(string(d.Status)))
				printDetail(out, 0, "%d pages · %d elements · updated %s", d.PageCount, d.ElementCount, d.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <document-id>",
		Short: "Show the pages, element tree and connections of a document",
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
			printDocument(cmd.OutOrStdout(), doc)
			return nil
		},
	}
}

func printDocument(w io.Writer, doc *domain.Document) {
	fmt.Fprintln(w, StyleTitle.Render(doc.Name))
	printKeyValue(w, "id", doc.ID)
	printKeyValue(w, "status", renderStatus(string(doc.Status)))
	if doc.PublishedAt != nil {
		printKeyValue(w, "published", doc.PublishedAt.Format("2006-01-02 15:04"))
	}

	for _, page := range doc.Pages {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s %s\n", StyleNumber.Render(iconInfo), page.Name, StyleDim.Render("/"+page.Slug))
		printTree(w, doc, page.ElementIDs, 0)
	}

	if len(doc.Connections) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, StyleTitle.Render("Connections"))
	for _, c := range doc.Connections {
		state := ""
		if !c.IsActive {
			state = StyleWarning.Render(" (inactive)")
		}
		fmt.Fprintf(w, "  %s %s %s %s%s\n",
			describe(doc, c.SourceElementID), StyleDim.Render(iconArrow), describe(doc, c.TargetElementID),
			StyleNumber.Render(string(c.ConnectionType)), state)
	}
	if n := len(bus.Dangling(doc)); n > 0 {
		printWarning(w, "%d connection(s) point at missing elements", n)
	}
}

func printTree(w io.Writer, doc *domain.Document, ids []string, depth int) {
	for _, id := range ids {
		el, ok := doc.Element(id)
		if !ok {
			continue
		}
		printDetail(w, depth, "%s %s at (%.0f, %.0f) %.0f×%.0f", el.Kind, el.ID, el.Position.X, el.Position.Y, el.Size.Width, el.Size.Height)
		printTree(w, doc, el.Children, depth+1)
	}
}

func describe(doc *domain.Document, id string) string {
	if el, ok := doc.Element(id); ok {
		return fmt.Sprintf("%s(%s)", el.Kind, StyleDim.Render(id))
	}
	return StyleWarning.Render(id + "?")
}

func newPublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish <document-id>",
		Short: "Mark a document as published",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.editor.Load(args[0])
			if err != nil {
				return err
			}
			if err := a.editor.Publish(); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Published %s", StyleTitle.Render(doc.Name))
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.docs.DeleteDocument(args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted %s", args[0])
			return nil
		},
	}
}
