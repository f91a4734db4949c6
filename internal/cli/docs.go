package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newDocsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "docs",
		Aliases: []string{"documents"},
		Short:   "Create, list, select and delete mind map documents",
	}
	cmd.AddCommand(newDocsCreateCmd(app))
	cmd.AddCommand(newDocsListCmd(app))
	cmd.AddCommand(newDocsUseCmd(app))
	cmd.AddCommand(newDocsShowCmd(app))
	cmd.AddCommand(newDocsDeleteCmd(app))
	return cmd
}

func newDocsCreateCmd(app *App) *cobra.Command {
	var use bool
	var main string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			doc, err := st.CreateDocument(ctx, args[0])
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if strings.TrimSpace(main) != "" {
				se, err := loadSession(ctx, app, st, doc.ID)
				if err != nil {
					return writeErr(cmd, app, err)
				}
				if _, err := se.InsertRoot(main); err != nil {
					return writeErr(cmd, app, err)
				}
				if err := se.Save(ctx); err != nil {
					return writeErr(cmd, app, err)
				}
			}
			if use {
				if err := st.SetCurrentDocumentID(ctx, doc.ID); err != nil {
					return writeErr(cmd, app, err)
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data":   doc,
				"_hints": []string{"mindmap docs use " + doc.ID, "mindmap --doc " + doc.ID + " nodes add <content>"},
			})
		},
	}
	cmd.Flags().BoolVar(&use, "use", false, "Also set as the current document")
	cmd.Flags().StringVar(&main, "main", "", "Content of the main node (optional)")
	return cmd
}

func newDocsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List documents (oldest first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			docs, err := st.ListDocuments(cmd.Context())
			if err != nil {
				return writeErr(cmd, app, err)
			}
			current, err := st.CurrentDocumentID(cmd.Context())
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"documents": docs, "current": current},
			})
		},
	}
}

func newDocsUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <document-id>",
		Short: "Set the current document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			doc, err := st.GetDocument(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if err := st.SetCurrentDocumentID(cmd.Context(), doc.ID); err != nil {
				return writeErr(cmd, app, err)
			}
			return writeOut(cmd, app, map[string]any{"data": doc})
		},
	}
}

func newDocsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show [document-id]",
		Short: "Show a document with its node count and main node",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				app.DocumentID = args[0]
			}
			st, se, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			doc, err := st.GetDocument(cmd.Context(), se.DocumentID())
			if err != nil {
				return writeErr(cmd, app, err)
			}
			t := se.Tree()
			data := map[string]any{
				"document": doc,
				"nodes":    t.Len(),
				"roots":    len(t.Roots()),
			}
			if main, ok := t.MainRoot(); ok {
				data["main"] = nodeView(main, se.View().Addresses, t)
			}
			return writeOut(cmd, app, map[string]any{"data": data})
		},
	}
}

func newDocsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document and all of its nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if err := st.DeleteDocument(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, app, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"id": args[0], "deleted": true},
			})
		},
	}
}
