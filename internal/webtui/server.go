package webtui

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"mindmap-cli/internal/logging"
)

type ServerConfig struct {
	Addr       string
	Dir        string
	Workspace  string
	DocumentID string
	Logger     *slog.Logger

	// Executable runs the editor in each PTY. Empty means os.Executable().
	Executable string
}

type Server struct {
	cfg  ServerConfig
	tmpl *template.Template
	log  *slog.Logger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("webtui: missing addr")
	}
	tmpl, err := template.New("terminal.html").Parse(terminalHTML)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Server{cfg: cfg, tmpl: tmpl, log: log.With("component", "webtui")}, nil
}

func (s *Server) Addr() string {
	return strings.TrimSpace(s.cfg.Addr)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/terminal", http.StatusFound)
	})
	mux.HandleFunc("GET /terminal", s.handleTerminal)
	mux.HandleFunc("GET /ws", s.handleWS)

	return mux
}

// Serve runs until ctx is done, then shuts down with a short grace period.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- hs.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	// Open websockets are hijacked; Shutdown does not wait for them.
	return hs.Shutdown(shutdownCtx)
}

type terminalVM struct {
	Workspace  string
	DocumentID string
	Dir        string
}

func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	vm := terminalVM{
		Workspace:  strings.TrimSpace(s.cfg.Workspace),
		DocumentID: strings.TrimSpace(s.cfg.DocumentID),
		Dir:        strings.TrimSpace(s.cfg.Dir),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, vm); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

const terminalHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>mindmap{{if .Workspace}} · {{.Workspace}}{{end}}</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/@xterm/xterm@5.5.0/css/xterm.css">
<style>
html, body { margin: 0; height: 100%; background: #1e1e1e; }
#meta { font: 12px monospace; color: #888; padding: 4px 8px; }
#term { position: absolute; top: 24px; bottom: 0; left: 0; right: 0; }
</style>
</head>
<body>
<div id="meta">workspace={{.Workspace}}{{if .DocumentID}} doc={{.DocumentID}}{{end}}</div>
<div id="term"></div>
<script src="https://cdn.jsdelivr.net/npm/@xterm/xterm@5.5.0/lib/xterm.js"></script>
<script src="https://cdn.jsdelivr.net/npm/@xterm/addon-fit@0.10.0/lib/addon-fit.js"></script>
<script>
const term = new Terminal({ cursorBlink: true });
const fit = new FitAddon.FitAddon();
term.loadAddon(fit);
term.open(document.getElementById("term"));
fit.fit();
const proto = location.protocol === "https:" ? "wss://" : "ws://";
const ws = new WebSocket(proto + location.host + "/ws");
ws.binaryType = "arraybuffer";
const resize = () => {
  fit.fit();
  if (ws.readyState === WebSocket.OPEN) {
    ws.send(JSON.stringify({ type: "resize", cols: term.cols, rows: term.rows }));
  }
};
ws.onopen = resize;
ws.onmessage = (ev) => term.write(typeof ev.data === "string" ? ev.data : new Uint8Array(ev.data));
ws.onclose = () => term.write("\r\n[session closed]\r\n");
term.onData((d) => ws.send(d));
window.addEventListener("resize", resize);
</script>
</body>
</html>
`
