package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"mindmap-cli/internal/model"

	"github.com/spf13/cobra"
)

func newLayoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Print the canvas graph (positions, edges, addresses) of the current document",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, se, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			v := se.View()
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"document": se.DocumentID(),
					"graph":    v.Graph,
					"layout":   app.cfg.LayoutConfig(),
				},
			})
		},
	}
}

func newReconcileCmd(app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "reconcile [file]",
		Short: "Replace the document's tree with a canvas graph (JSON file or stdin)",
		Long: `Reads a canvas graph ({"nodes": [...], "edges": [...]}) and rebuilds the
tree from it. Dangling, duplicate and cycle-closing edges are dropped rather
than rejected. Run "mindmap guide reconcile" for details.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			graph, err := readGraph(cmd, args)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			_, se, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			before := se.Tree().Len()
			if err := se.Reconcile(graph); err != nil {
				return writeErr(cmd, app, err)
			}
			if !dryRun {
				if err := se.Save(ctx); err != nil {
					return writeErr(cmd, app, err)
				}
			}
			v := se.View()
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"document":  se.DocumentID(),
					"before":    before,
					"nodes":     se.Tree().Len(),
					"saved":     !dryRun,
					"graph":     v.Graph,
					"addresses": v.Addresses,
				},
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the reconciled graph without saving")
	return cmd
}

func readGraph(cmd *cobra.Command, args []string) (model.CanvasGraph, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return model.CanvasGraph{}, err
		}
		defer f.Close()
		r = f
	}
	var g model.CanvasGraph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return model.CanvasGraph{}, fmt.Errorf("decode canvas graph: %w", err)
	}
	return g, nil
}
