// Package tui is the interactive outline editor for a single mind map.
package tui

import (
	"context"
	"errors"
	"log/slog"

	"mindmap-cli/internal/model"
	"mindmap-cli/internal/treesync"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	NoColor bool
	Logger  *slog.Logger
}

// Run opens the editor on an already loaded session and blocks until the user
// quits. Unsaved edits are discarded on exit; the editor warns first.
func Run(ctx context.Context, se *treesync.Session, doc model.Document, opt Options) error {
	if se == nil {
		return errors.New("tui: nil session")
	}
	applyThemePreference()
	applyColorProfilePreference(opt.NoColor)
	applyGlyphPreference()

	m := newAppModel(ctx, se, doc, opt)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
