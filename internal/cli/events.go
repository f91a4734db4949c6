package cli

import (
	"github.com/spf13/cobra"
)

func newEventsCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the audit events of the current document (oldest first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			id, err := documentID(ctx, app, st)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if _, err := st.GetDocument(ctx, id); err != nil {
				return writeErr(cmd, app, err)
			}
			evs, err := st.ReadEvents(ctx, id, limit)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeOut(cmd, app, map[string]any{"data": evs})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 200, "Max events to return (0 = all)")
	return cmd
}
