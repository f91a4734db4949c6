package cli

import (
	"mindmap-cli/internal/store"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize local storage (workspace-first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			// Opening the document list creates the database and schema.
			docs, err := st.ListDocuments(cmd.Context())
			if err != nil {
				return writeErr(cmd, app, err)
			}

			// If we're in workspace mode but no current workspace is set, set it.
			if app.Workspace != "" && app.cfg.CurrentWorkspace == "" {
				app.cfg.CurrentWorkspace = app.Workspace
				if err := store.SaveConfig(app.cfg); err != nil {
					return writeErr(cmd, app, err)
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"dir":        st.Dir,
					"workspace":  app.Workspace,
					"sqlitePath": st.SQLitePath(),
					"documents":  len(docs),
				},
			})
		},
	}
	return cmd
}

func newWorkspaceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Workspace management",
	}
	cmd.AddCommand(newWorkspaceUseCmd(app))
	cmd.AddCommand(newWorkspaceCurrentCmd(app))
	cmd.AddCommand(newWorkspaceListCmd(app))
	return cmd
}

func newWorkspaceUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Set (and create if needed) the current workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := store.NormalizeWorkspaceName(args[0])
			if err != nil {
				return writeErr(cmd, app, err)
			}
			dir, err := store.WorkspaceDir(name)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if err := (store.Store{Dir: dir}).Ensure(); err != nil {
				return writeErr(cmd, app, err)
			}
			app.cfg.CurrentWorkspace = name
			if err := store.SaveConfig(app.cfg); err != nil {
				return writeErr(cmd, app, err)
			}
			app.Workspace, app.Dir = name, dir
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"workspace": name, "dir": dir},
			})
		},
	}
}

func newWorkspaceCurrentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show current workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			name := app.cfg.CurrentWorkspace
			if name == "" {
				name = "default"
			}
			dir, err := store.WorkspaceDir(name)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"workspace": name, "dir": dir},
			})
		},
	}
}

func newWorkspaceListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := store.ListWorkspaces()
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"workspaces": names, "current": app.cfg.CurrentWorkspace},
			})
		},
	}
}
