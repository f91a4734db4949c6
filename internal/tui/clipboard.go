package tui

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"

	"github.com/muesli/termenv"
)

// copyToClipboard tries the platform clipboard tools first and falls back to
// an OSC 52 escape, which most modern terminals (and tmux) honor over SSH.
func copyToClipboard(s string) error {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if err := copyWithTool(s); err == nil {
		return nil
	}
	termenv.Copy(s)
	return nil
}

func copyWithTool(s string) error {
	switch runtime.GOOS {
	case "darwin":
		return runClipboardCmd("pbcopy", nil, s)
	case "windows":
		return runClipboardCmd("cmd", []string{"/c", "clip"}, s)
	default:
		if err := runClipboardCmd("wl-copy", nil, s); err == nil {
			return nil
		}
		if err := runClipboardCmd("xclip", []string{"-selection", "clipboard"}, s); err == nil {
			return nil
		}
		return runClipboardCmd("xsel", []string{"--clipboard", "--input"}, s)
	}
}

func runClipboardCmd(name string, args []string, stdin string) error {
	if _, err := exec.LookPath(name); err != nil {
		return err
	}
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	if err := cmd.Run(); err != nil {
		return errors.New(name + ": " + err.Error())
	}
	return nil
}
