package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"mindmap-cli/internal/format"
	"mindmap-cli/internal/logging"
	"mindmap-cli/internal/store"
	"mindmap-cli/internal/treesync"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	Workspace  string
	DocumentID string
	PrettyJSON bool
	Format     string
	LogLevel   string
	NoColor    bool

	cfg *store.GlobalConfig
	log *slog.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "mindmap",
		Short:        "Mind maps in the terminal, with a canvas API",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive editor on the current document
  mindmap

  # Scriptable commands
  mindmap docs create "Roadmap" --use
  mindmap nodes add "Launch" --parent root
  mindmap nodes tree

  # Direct address lookup (shortcut for: mindmap nodes show root-0)
  mindmap root-0
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive editor.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}
	cmd.SilenceErrors = true

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !format.Valid(app.Format) {
			return writeErr(cmd, app, errors.New("invalid --format (json|yaml)"))
		}
		cfg, err := store.LoadConfig()
		if err != nil {
			return writeErr(cmd, app, err)
		}
		app.cfg = cfg
		level, logFormat := cfg.Log.Level, cfg.Log.Format
		if strings.TrimSpace(app.LogLevel) != "" {
			level = app.LogLevel
		}
		if level == "" {
			level = "warn"
		}
		log, err := logging.New(cmd.ErrOrStderr(), level, logFormat)
		if err != nil {
			return writeErr(cmd, app, err)
		}
		app.log = log
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("MINDMAP_DIR", ""), "Path to store dir (overrides workspace resolution)")
	cmd.PersistentFlags().StringVar(&app.Workspace, "workspace", envOr("MINDMAP_WORKSPACE", ""), "Workspace name (default: 'default')")
	cmd.PersistentFlags().StringVar(&app.DocumentID, "doc", envOr("MINDMAP_DOC", ""), "Document id (default: the current document)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("MINDMAP_FORMAT", "json"), "Output format (json|yaml)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("MINDMAP_LOG_LEVEL", ""), "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().BoolVar(&app.NoColor, "no-color", false, "Disable colors in the interactive editor")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newWorkspaceCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newNodesCmd(app))
	cmd.AddCommand(newLayoutCmd(app))
	cmd.AddCommand(newReconcileCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newWebTUICmd(app))
	cmd.AddCommand(newGuideCmd(app))
	cmd.AddCommand(newTUICmd(app))

	return cmd
}

// resolveDir picks the store dir: --dir, then --workspace, then the
// configured current workspace, then "default".
func resolveDir(app *App) (string, error) {
	if app.Dir != "" {
		return app.Dir, nil
	}
	if app.Workspace == "" {
		app.Workspace = "default"
		if app.cfg != nil && app.cfg.CurrentWorkspace != "" {
			app.Workspace = app.cfg.CurrentWorkspace
		}
	}
	d, err := store.WorkspaceDir(app.Workspace)
	if err != nil {
		return "", err
	}
	app.Dir = d
	return d, nil
}

func openStore(app *App) (store.Store, error) {
	dir, err := resolveDir(app)
	if err != nil {
		return store.Store{}, err
	}
	return store.Store{Dir: dir}, nil
}

func (app *App) logger() *slog.Logger {
	if app.log == nil {
		return logging.Discard()
	}
	return app.log
}

func (app *App) synchronizer(st store.Store) *treesync.Synchronizer {
	return treesync.New(st, treesync.WithLogger(app.logger()), treesync.WithLayout(app.cfg.LayoutConfig()))
}

// documentID is --doc if set, else the workspace's current document.
func documentID(ctx context.Context, app *App, st store.Store) (string, error) {
	if id := strings.TrimSpace(app.DocumentID); id != "" {
		return id, nil
	}
	id, err := st.CurrentDocumentID(ctx)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", errors.New("no current document; run `mindmap docs create <title> --use` or pass --doc")
	}
	return id, nil
}

// openSession loads the selected document into a session.
func openSession(ctx context.Context, app *App) (store.Store, *treesync.Session, error) {
	st, err := openStore(app)
	if err != nil {
		return st, nil, err
	}
	id, err := documentID(ctx, app, st)
	if err != nil {
		return st, nil, err
	}
	se, err := loadSession(ctx, app, st, id)
	return st, se, err
}

func loadSession(ctx context.Context, app *App, st store.Store, documentID string) (*treesync.Session, error) {
	if _, err := st.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return treesync.Open(ctx, app.synchronizer(st), documentID)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}
