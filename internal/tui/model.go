package tui

import (
	"context"
	"log/slog"

	"mindmap-cli/internal/logging"
	"mindmap-cli/internal/model"
	"mindmap-cli/internal/treesync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
)

type mode int

const (
	modeNormal mode = iota
	modeAddChild
	modeAddSibling
	modeAddRoot
	modeRename
	modeConfirmDelete
)

func (m mode) label() string {
	switch m {
	case modeAddChild:
		return "child:"
	case modeAddSibling:
		return "sibling:"
	case modeAddRoot:
		return "root:"
	case modeRename:
		return "rename:"
	default:
		return ""
	}
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

type saveDoneMsg struct {
	err   error
	nodes int
}

type appModel struct {
	ctx     context.Context
	session *treesync.Session
	doc     model.Document
	log     *slog.Logger
	keys    keyMap
	help    help.Model

	rows       []outlineRow
	selectedID string
	cursor     int
	collapsed  map[string]bool

	mode  mode
	input textinput.Model

	status     string
	statusKind statusKind

	width   int
	height  int
	preview bool
	saving  bool
	// quitArmed is set after a quit attempt with unsaved edits; the next quit exits.
	quitArmed bool
}

func newAppModel(ctx context.Context, se *treesync.Session, doc model.Document, opt Options) appModel {
	if ctx == nil {
		ctx = context.Background()
	}
	log := opt.Logger
	if log == nil {
		log = logging.Discard()
	}
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 2000

	m := appModel{
		ctx:       ctx,
		session:   se,
		doc:       doc,
		log:       log,
		keys:      defaultKeyMap(),
		help:      help.New(),
		collapsed: map[string]bool{},
		input:     in,
		width:     80,
		height:    24,
		preview:   true,
	}
	if main, ok := se.Tree().MainRoot(); ok {
		m.selectedID = main.ID
	}
	m.refresh()
	return m
}

// refresh rebuilds the visible rows from the session and keeps the selection
// on the same node when it still exists.
func (m *appModel) refresh() {
	v := m.session.View()
	m.rows = flattenOutline(m.session.Tree(), v.Addresses, m.collapsed)
	if len(m.rows) == 0 {
		m.selectedID, m.cursor = "", 0
		return
	}
	if i := rowIndex(m.rows, m.selectedID); i >= 0 {
		m.cursor = i
	} else {
		m.cursor = clamp(m.cursor, 0, len(m.rows)-1)
	}
	m.selectedID = m.rows[m.cursor].ID
}

func (m *appModel) selected() (outlineRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return outlineRow{}, false
	}
	return m.rows[m.cursor], true
}

func (m *appModel) selectID(id string) {
	m.selectedID = id
	m.refresh()
}

func (m *appModel) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor = clamp(m.cursor+delta, 0, len(m.rows)-1)
	m.selectedID = m.rows[m.cursor].ID
}

func (m *appModel) setStatus(kind statusKind, msg string) {
	m.statusKind = kind
	m.status = msg
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
