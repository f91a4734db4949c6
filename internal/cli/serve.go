package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mindmap-cli/internal/web"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var readOnly bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the canvas JSON API for the current workspace",
		Example: strings.TrimSpace(`
# Serve on the configured address (server.addr, default 127.0.0.1:7420)
mindmap serve

# Read-only API on a random port
mindmap serve --addr 127.0.0.1:0 --read-only
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				listenAddr = app.cfg.ServerAddr()
			}

			srv := web.NewServer(web.ServerConfig{
				Addr:     listenAddr,
				Store:    st,
				Layout:   app.cfg.LayoutConfig(),
				Logger:   app.logger(),
				ReadOnly: readOnly,
			})
			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			url := "http://" + ln.Addr().String() + "/"

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      ln.Addr().String(),
					"url":       url,
					"workspace": app.Workspace,
					"dir":       st.Dir,
					"readOnly":  readOnly,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": []string{"curl " + url + "documents"},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "mindmap api running at %s (workspace=%s)\n", url, app.Workspace)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.Serve(ctx, ln); err != nil {
				return writeErr(cmd, app, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (host:port or :port)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Only register read routes")
	return cmd
}
