package tui

import (
	"errors"
	"fmt"
	"strings"

	"mindmap-cli/internal/treesync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) Init() tea.Cmd { return nil }

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	case saveDoneMsg:
		m.saving = false
		m.applySaveResult(msg)
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeNormal:
			return m.updateNormal(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		default:
			return m.updateInput(msg)
		}
	}
	return m, nil
}

func (m appModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Quit) {
		m.quitArmed = false
	}
	row, hasRow := m.selected()

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.session.Dirty() && !m.quitArmed {
			m.quitArmed = true
			m.setStatus(statusWarn, "unsaved changes: press q again to quit, s to save")
			return m, nil
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Collapse):
		if !hasRow {
			break
		}
		if row.HasChildren && !row.Collapsed {
			m.collapsed[row.ID] = true
			m.refresh()
			break
		}
		if n, ok := m.session.Tree().Get(row.ID); ok && n.Parent() != "" {
			m.selectID(n.Parent())
		}
	case key.Matches(msg, m.keys.Expand):
		if !hasRow || !row.HasChildren {
			break
		}
		if row.Collapsed {
			delete(m.collapsed, row.ID)
			m.refresh()
			break
		}
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Child):
		if !hasRow {
			return m.startInput(modeAddRoot, "")
		}
		return m.startInput(modeAddChild, "")
	case key.Matches(msg, m.keys.Sibling):
		if !hasRow {
			return m.startInput(modeAddRoot, "")
		}
		return m.startInput(modeAddSibling, "")
	case key.Matches(msg, m.keys.Root):
		return m.startInput(modeAddRoot, "")
	case key.Matches(msg, m.keys.Rename):
		if hasRow {
			return m.startInput(modeRename, row.Content)
		}
	case key.Matches(msg, m.keys.Delete):
		if hasRow {
			m.mode = modeConfirmDelete
			m.setStatus(statusWarn, fmt.Sprintf("delete %s and its subtree? (y/n)", row.Address))
		}
	case key.Matches(msg, m.keys.Save):
		if m.saving {
			m.setStatus(statusWarn, "save already in progress")
			return m, nil
		}
		m.saving = true
		m.setStatus(statusInfo, "saving...")
		return m, m.saveCmd()
	case key.Matches(msg, m.keys.Copy):
		if !hasRow {
			break
		}
		if err := copyToClipboard(row.Address); err != nil {
			m.setStatus(statusError, "copy failed: "+err.Error())
			break
		}
		m.setStatus(statusOK, "copied "+row.Address)
	case key.Matches(msg, m.keys.Preview):
		m.preview = !m.preview
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m appModel) startInput(md mode, value string) (tea.Model, tea.Cmd) {
	m.mode = md
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.setStatus(statusInfo, "")
	cmd := m.input.Focus()
	return m, cmd
}

func (m appModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeNormal
		m.input.Blur()
		m.setStatus(statusInfo, "cancelled")
		return m, nil
	case tea.KeyEnter:
		md := m.mode
		content := strings.TrimSpace(m.input.Value())
		m.mode = modeNormal
		m.input.Blur()
		m.commitInput(md, content)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *appModel) commitInput(md mode, content string) {
	if content == "" && md != modeRename {
		m.setStatus(statusWarn, "empty content, nothing added")
		return
	}
	row, _ := m.selected()
	var (
		id  string
		err error
	)
	switch md {
	case modeAddChild:
		id, err = m.session.InsertChild(row.ID, content)
		delete(m.collapsed, row.ID)
	case modeAddSibling:
		id, err = m.session.InsertSibling(row.ID, content)
	case modeAddRoot:
		id, err = m.session.InsertRoot(content)
	case modeRename:
		id, err = row.ID, m.session.Rename(row.ID, content)
	}
	if err != nil {
		m.reportError(err)
		return
	}
	m.selectID(id)
	if sel, ok := m.selected(); ok {
		m.setStatus(statusInfo, sel.Address)
	}
}

func (m appModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeNormal
	if msg.String() != "y" {
		m.setStatus(statusInfo, "cancelled")
		return m, nil
	}
	row, ok := m.selected()
	if !ok {
		return m, nil
	}
	d, err := m.session.DeleteSubtree(row.ID)
	if err != nil {
		m.reportError(err)
		return m, nil
	}
	for _, id := range d.Removed {
		delete(m.collapsed, id)
	}
	m.selectID(d.Selection)
	m.setStatus(statusOK, fmt.Sprintf("deleted %d node(s)", len(d.Removed)))
	return m, nil
}

func (m appModel) saveCmd() tea.Cmd {
	ctx, se := m.ctx, m.session
	return func() tea.Msg {
		err := se.Save(ctx)
		return saveDoneMsg{err: err, nodes: se.Tree().Len()}
	}
}

func (m *appModel) applySaveResult(msg saveDoneMsg) {
	if msg.err != nil {
		m.log.Error("save failed", "document", m.doc.ID, "err", msg.err)
		m.reportError(msg.err)
		return
	}
	m.quitArmed = false
	m.setStatus(statusOK, fmt.Sprintf("saved %d node(s)", msg.nodes))
}

// reportError turns edit and save failures into a status line. Protection and
// persistence failures read differently so the user knows whether to retry.
func (m *appModel) reportError(err error) {
	var rp treesync.RootProtectedError
	switch {
	case errors.As(err, &rp):
		m.setStatus(statusWarn, fmt.Sprintf("can't delete the main node while %d other node(s) exist", rp.Others))
	case errors.Is(err, treesync.ErrPersistInFlight):
		m.setStatus(statusWarn, "save already in progress")
	case errors.Is(err, treesync.ErrPersist):
		m.setStatus(statusError, "save failed, edits kept (s to retry): "+err.Error())
	case errors.Is(err, treesync.ErrCycle):
		m.setStatus(statusWarn, err.Error())
	default:
		m.setStatus(statusError, err.Error())
	}
}
