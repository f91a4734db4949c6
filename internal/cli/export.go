package cli

import (
	"errors"
	"fmt"
	"strings"

	"mindmap-cli/internal/publish"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var toDir string
	var overwrite bool
	var noAddresses bool
	var stdout bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current document as a Markdown outline (derived, not canonical)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, se, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			doc, err := st.GetDocument(ctx, se.DocumentID())
			if err != nil {
				return writeErr(cmd, app, err)
			}

			if stdout {
				opt := publish.RenderOptions{}
				if !noAddresses {
					opt.Addresses = se.View().Addresses
				}
				_, err := fmt.Fprint(cmd.OutOrStdout(), publish.RenderDocumentMarkdown(doc, se.Tree(), opt))
				return err
			}

			toDir = strings.TrimSpace(toDir)
			if toDir == "" {
				return writeErr(cmd, app, errors.New("missing --to (or pass --stdout)"))
			}
			res, err := publish.WriteDocument(doc, se.Tree(), toDir, publish.WriteOptions{
				Overwrite:     overwrite,
				WithAddresses: !noAddresses,
			})
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}
	cmd.Flags().StringVar(&toDir, "to", "", "Output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&noAddresses, "no-addresses", false, "Omit node addresses")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the markdown instead of writing a file")
	return cmd
}
