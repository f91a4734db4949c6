package webtui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/gorilla/websocket"
)

type wsMsg struct {
	Type string `json:"type"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		host := strings.TrimSpace(r.Host)
		return strings.HasSuffix(origin, "://"+host)
	},
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		s.log.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ptmx, cmd, cleanup, err := s.startPTYSession()
	if err != nil {
		s.log.Error("start editor session", "err", err)
		_ = conn.WriteMessage(websocket.TextMessage, []byte("failed to start session: "+err.Error()))
		return
	}
	defer cleanup()
	s.log.Info("editor session started", "pid", cmd.Process.Pid, "remote", r.RemoteAddr)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		errCh <- pumpPTYToWS(ctx, ptmx, conn)
	}()
	go func() {
		defer wg.Done()
		errCh <- pumpWSToPTY(ctx, conn, ptmx)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			s.log.Debug("editor session stream closed", "err", err)
		}
	}
	cancel()

	// Unblocks both pumps: the PTY read fails once the child dies, the
	// websocket read once the connection is closed.
	_ = cmd.Process.Kill()
	_ = conn.Close()

	wg.Wait()
	s.log.Info("editor session ended", "pid", cmd.Process.Pid)
}

// sessionArgs selects the same workspace and document the server was
// started with. No subcommand means the interactive editor.
func (s *Server) sessionArgs() []string {
	args := []string{}
	if dir := strings.TrimSpace(s.cfg.Dir); dir != "" {
		args = append(args, "--dir", dir)
	} else if ws := strings.TrimSpace(s.cfg.Workspace); ws != "" {
		args = append(args, "--workspace", ws)
	}
	if doc := strings.TrimSpace(s.cfg.DocumentID); doc != "" {
		args = append(args, "--doc", doc)
	}
	return args
}

func (s *Server) startPTYSession() (*os.File, *exec.Cmd, func(), error) {
	exe := strings.TrimSpace(s.cfg.Executable)
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return nil, nil, nil, err
		}
	}

	cmd := exec.Command(exe, s.sessionArgs()...)
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
	)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: 120, Rows: 40})
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() {
		_ = ptmx.Close()
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}
	return ptmx, cmd, cleanup, nil
}

func pumpPTYToWS(ctx context.Context, ptmx *os.File, conn *websocket.Conn) error {
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := ptmx.Read(buf)
		if n > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// parseResize reports the terminal size carried by a JSON control frame.
func parseResize(data []byte) (cols, rows int, ok bool) {
	var m wsMsg
	if err := json.Unmarshal(data, &m); err != nil {
		return 0, 0, false
	}
	if strings.ToLower(strings.TrimSpace(m.Type)) != "resize" || m.Cols <= 0 || m.Rows <= 0 {
		return 0, 0, false
	}
	if m.Cols > 0xffff || m.Rows > 0xffff {
		return 0, 0, false
	}
	return m.Cols, m.Rows, true
}

func pumpWSToPTY(ctx context.Context, conn *websocket.Conn, ptmx *os.File) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		// Control messages are JSON text. Keystrokes are plain text or binary.
		if mt == websocket.TextMessage && len(data) > 0 && data[0] == '{' {
			if cols, rows, ok := parseResize(data); ok {
				_ = pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
				continue
			}
		}

		if len(data) == 0 {
			continue
		}
		if _, err := ptmx.Write(data); err != nil {
			return err
		}
	}
}
