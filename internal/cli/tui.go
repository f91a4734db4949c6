package cli

import (
	"strings"

	"mindmap-cli/internal/tui"

	"github.com/spf13/cobra"
)

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive editor (same as running mindmap with no arguments)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
}

// runTUI opens the current document, creating an "Untitled" one when the
// workspace has none yet.
func runTUI(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	st, err := openStore(app)
	if err != nil {
		return writeErr(cmd, app, err)
	}
	id := strings.TrimSpace(app.DocumentID)
	if id == "" {
		if id, err = st.CurrentDocumentID(ctx); err != nil {
			return writeErr(cmd, app, err)
		}
	}
	if id == "" {
		doc, err := st.CreateDocument(ctx, "Untitled")
		if err != nil {
			return writeErr(cmd, app, err)
		}
		if err := st.SetCurrentDocumentID(ctx, doc.ID); err != nil {
			return writeErr(cmd, app, err)
		}
		id = doc.ID
	}
	doc, err := st.GetDocument(ctx, id)
	if err != nil {
		return writeErr(cmd, app, err)
	}
	se, err := loadSession(ctx, app, st, id)
	if err != nil {
		return writeErr(cmd, app, err)
	}
	return tui.Run(ctx, se, doc, tui.Options{NoColor: app.NoColor, Logger: app.logger()})
}
