package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"mindmap-cli/internal/model"
	"mindmap-cli/internal/treesync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

type memStore struct {
	mu   sync.Mutex
	rows []model.NodeRow
	err  error
}

func (s *memStore) LoadNodes(context.Context, string) ([]model.NodeRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.NodeRow(nil), s.rows...), nil
}

func (s *memStore) ReplaceNodes(_ context.Context, _ string, rows []model.NodeRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows = append([]model.NodeRow(nil), rows...)
	return nil
}

func newTestModel(t *testing.T, st *memStore) appModel {
	t.Helper()
	n := 0
	syncer := treesync.New(st, treesync.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("n%d", n)
	}))
	se, err := treesync.NewSession(syncer, "doc", nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return newAppModel(context.Background(), se, model.Document{ID: "doc", Title: "Plan"}, Options{})
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, m appModel, keys ...string) (appModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(appModel)
	}
	return m, cmd
}

// add opens the given prompt key, types content and commits it.
func add(t *testing.T, m appModel, openKey, content string) appModel {
	t.Helper()
	m, _ = press(t, m, openKey, content, "enter")
	if m.mode != modeNormal {
		t.Fatalf("expected normal mode after commit, got %v", m.mode)
	}
	return m
}

func selectedAddress(m appModel) string {
	r, _ := m.selected()
	return r.Address
}

func TestAddNodesFromEmptyMap(t *testing.T) {
	m := newTestModel(t, &memStore{})
	if len(m.rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(m.rows))
	}

	// tab on an empty map starts the main node.
	m = add(t, m, "tab", "Main")
	if got := selectedAddress(m); got != "root" {
		t.Fatalf("main address: got %q", got)
	}
	m = add(t, m, "tab", "first idea")
	if got := selectedAddress(m); got != "root-0" {
		t.Fatalf("child address: got %q", got)
	}
	m = add(t, m, "enter", "second idea")
	if got := selectedAddress(m); got != "root-1" {
		t.Fatalf("sibling address: got %q", got)
	}
	m = add(t, m, "R", "aside")
	if got := selectedAddress(m); got != "float-0" {
		t.Fatalf("floating address: got %q", got)
	}
	if len(m.rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(m.rows))
	}
	if !m.session.Dirty() {
		t.Fatalf("expected session to be dirty")
	}
}

func TestEmptyContentIsNotAdded(t *testing.T) {
	m := newTestModel(t, &memStore{})
	m, _ = press(t, m, "tab", "   ", "enter")
	if m.session.Tree().Len() != 0 {
		t.Fatalf("expected nothing inserted")
	}
	if m.statusKind != statusWarn {
		t.Fatalf("expected warning status, got %q", m.status)
	}
}

func TestEscCancelsInput(t *testing.T) {
	m := newTestModel(t, &memStore{})
	m, _ = press(t, m, "tab", "draft", "esc")
	if m.mode != modeNormal || m.session.Tree().Len() != 0 {
		t.Fatalf("expected cancelled insert, mode=%v len=%d", m.mode, m.session.Tree().Len())
	}
}

func TestRenameSelectedNode(t *testing.T) {
	m := newTestModel(t, &memStore{})
	m = add(t, m, "tab", "Main")
	m = add(t, m, "e", "!")
	n, _ := m.session.Tree().Get(m.selectedID)
	if n.Content != "Main!" {
		t.Fatalf("rename: got %q", n.Content)
	}
}

func TestNavigationAndCollapse(t *testing.T) {
	m := newTestModel(t, &memStore{})
	m = add(t, m, "tab", "Main")
	m = add(t, m, "tab", "a")
	m = add(t, m, "tab", "a1")
	m, _ = press(t, m, "k", "k")
	if got := selectedAddress(m); got != "root" {
		t.Fatalf("expected root selected, got %q", got)
	}
	m, _ = press(t, m, "j")
	if got := selectedAddress(m); got != "root-0" {
		t.Fatalf("expected root-0 selected, got %q", got)
	}
	m, _ = press(t, m, "h")
	if len(m.rows) != 2 {
		t.Fatalf("collapse should hide root-0-0, rows=%d", len(m.rows))
	}
	m, _ = press(t, m, "l")
	if len(m.rows) != 3 {
		t.Fatalf("expand should show root-0-0 again, rows=%d", len(m.rows))
	}
	m, _ = press(t, m, "l")
	if got := selectedAddress(m); got != "root-0-0" {
		t.Fatalf("l on an expanded node should select its first child, got %q", got)
	}
	m, _ = press(t, m, "h")
	if got := selectedAddress(m); got != "root-0" {
		t.Fatalf("h on a leaf should select its parent, got %q", got)
	}
}

func TestDeleteMainNodeIsRefused(t *testing.T) {
	m := newTestModel(t, &memStore{})
	m = add(t, m, "tab", "Main")
	m = add(t, m, "tab", "child")
	m, _ = press(t, m, "k", "d", "y")

	if m.session.Tree().Len() != 2 {
		t.Fatalf("expected tree unchanged, len=%d", m.session.Tree().Len())
	}
	if m.statusKind != statusWarn || !strings.Contains(m.status, "main node") {
		t.Fatalf("unexpected status %v %q", m.statusKind, m.status)
	}
}

func TestDeleteSubtreeSelectsParent(t *testing.T) {
	m := newTestModel(t, &memStore{})
	m = add(t, m, "tab", "Main")
	m = add(t, m, "tab", "a")
	m = add(t, m, "tab", "a1")
	m, _ = press(t, m, "k", "d", "y")

	if m.session.Tree().Len() != 1 {
		t.Fatalf("expected only the main node left, len=%d", m.session.Tree().Len())
	}
	if got := selectedAddress(m); got != "root" {
		t.Fatalf("expected selection on root, got %q", got)
	}
	if !strings.Contains(m.status, "deleted 2") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m := newTestModel(t, &memStore{})
	m = add(t, m, "tab", "Main")
	m, _ = press(t, m, "d", "n")
	if m.session.Tree().Len() != 1 {
		t.Fatalf("expected delete to be cancelled")
	}
}

func runSave(t *testing.T, m appModel) appModel {
	t.Helper()
	m, cmd := press(t, m, "s")
	if cmd == nil {
		t.Fatalf("expected a save command")
	}
	if !m.saving {
		t.Fatalf("expected saving flag while the command runs")
	}
	next, _ := m.Update(cmd())
	return next.(appModel)
}

func TestSaveFailureIsReportedAndRetried(t *testing.T) {
	st := &memStore{err: errors.New("database is locked")}
	m := newTestModel(t, st)
	m = add(t, m, "tab", "Main")

	m = runSave(t, m)
	if m.statusKind != statusError || !strings.Contains(m.status, "save failed") {
		t.Fatalf("unexpected status %v %q", m.statusKind, m.status)
	}
	if !m.session.Dirty() || m.session.Tree().Len() != 1 {
		t.Fatalf("expected edits kept after a failed save")
	}

	st.mu.Lock()
	st.err = nil
	st.mu.Unlock()
	m = runSave(t, m)
	if m.statusKind != statusOK || m.session.Dirty() {
		t.Fatalf("expected clean session after retry, status %q", m.status)
	}
	if len(st.rows) != 1 {
		t.Fatalf("expected 1 persisted row, got %d", len(st.rows))
	}
}

func TestQuitWithUnsavedChangesAsksTwice(t *testing.T) {
	m := newTestModel(t, &memStore{})
	m = add(t, m, "tab", "Main")

	m, cmd := press(t, m, "q")
	if cmd != nil {
		t.Fatalf("first q with unsaved edits should not quit")
	}
	_, cmd = press(t, m, "q")
	if cmd == nil {
		t.Fatalf("second q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestQuitWhenCleanExitsImmediately(t *testing.T) {
	m := newTestModel(t, &memStore{})
	_, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
}

func TestViewShowsOutlineWithAddresses(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	setGlyphs(glyphSetASCII)
	t.Cleanup(func() { setGlyphs(glyphSetUnicode) })

	m := newTestModel(t, &memStore{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 12})
	m = next.(appModel)
	m = add(t, m, "tab", "Main")
	m = add(t, m, "tab", "Idea")
	m = add(t, m, "R", "Aside")

	out := m.View()
	for _, want := range []string{"Plan", "3 node(s)", "unsaved", "v Main root", "  * Idea root-0", "* Aside float-0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestFlattenOutlineOrder(t *testing.T) {
	m := newTestModel(t, &memStore{})
	m = add(t, m, "tab", "Main")
	m = add(t, m, "tab", "a")
	m = add(t, m, "tab", "a1")
	m = add(t, m, "R", "float")
	m, _ = press(t, m, "k", "k")
	m = add(t, m, "enter", "b")

	var got []string
	for _, r := range m.rows {
		got = append(got, fmt.Sprintf("%s:%d", r.Address, r.Depth))
	}
	want := "root:0 root-0:1 root-0-0:2 root-1:1 float-0:0"
	if strings.Join(got, " ") != want {
		t.Fatalf("rows: got %q want %q", strings.Join(got, " "), want)
	}
}
