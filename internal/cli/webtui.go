package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mindmap-cli/internal/webtui"

	"github.com/spf13/cobra"
)

func newWebTUICmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "webtui",
		Short: "Run the interactive editor in your browser (PTY + WebSocket, experimental)",
		Long: strings.TrimSpace(`
Run the terminal editor over the web via a server-side PTY and a browser terminal emulator.

Notes:
- No auth. Bind to localhost unless you know what you are doing.
- Each browser tab starts its own editor process on the server.
`),
		Example: strings.TrimSpace(`
# Serve the current workspace on localhost
mindmap webtui --addr 127.0.0.1:3334

# Serve one document of a specific workspace
mindmap --workspace notes --doc <id> webtui
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir(app)
			if err != nil {
				return writeErr(cmd, app, err)
			}

			srv, err := webtui.NewServer(webtui.ServerConfig{
				Addr:       strings.TrimSpace(addr),
				Dir:        dir,
				Workspace:  strings.TrimSpace(app.Workspace),
				DocumentID: strings.TrimSpace(app.DocumentID),
				Logger:     app.logger(),
			})
			if err != nil {
				return writeErr(cmd, app, err)
			}
			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return writeErr(cmd, app, err)
			}
			url := "http://" + ln.Addr().String() + "/"

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      ln.Addr().String(),
					"url":       url,
					"workspace": strings.TrimSpace(app.Workspace),
					"dir":       dir,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": []string{"open " + url},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "mindmap webtui running at %s (workspace=%s)\n", url, strings.TrimSpace(app.Workspace))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.Serve(ctx, ln); err != nil {
				return writeErr(cmd, app, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3334", "Bind address (host:port or :port)")
	return cmd
}
