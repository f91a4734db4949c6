package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

const minPreviewWidth = 80

func (m appModel) View() string {
	header := m.viewHeader()
	footer := m.viewFooter()
	bodyH := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyH < 1 {
		bodyH = 1
	}

	outlineW := m.width
	showPreview := m.preview && m.width >= minPreviewWidth && len(m.rows) > 0
	if showPreview {
		outlineW = m.width * 3 / 5
	}
	body := m.viewOutline(outlineW, bodyH)
	if showPreview {
		previewW := m.width - outlineW - 3
		sep := styleMuted().Render(strings.Repeat(" "+glyphSeparator()+" \n", bodyH))
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, strings.TrimRight(sep, "\n"), m.viewPreview(previewW, bodyH))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m appModel) viewHeader() string {
	title := strings.TrimSpace(m.doc.Title)
	if title == "" {
		title = m.doc.ID
	}
	state := styleOK().Render("saved")
	switch {
	case m.saving:
		state = styleMuted().Render("saving...")
	case m.session.Dirty():
		state = styleWarn().Render(glyphBullet() + " unsaved")
	}
	meta := styleMuted().Render(fmt.Sprintf("%d node(s)", m.session.Tree().Len()))
	line := styleAccent().Render(title) + "  " + meta + "  " + state
	return xansi.Truncate(line, max(m.width, 10), "…")
}

func (m appModel) viewOutline(width, height int) string {
	if len(m.rows) == 0 {
		return lipgloss.NewStyle().Width(width).Height(height).Render(
			styleMuted().Render("empty mind map: press R or tab to add the main node"))
	}
	// Keep the cursor on screen, pinned to the bottom row once it scrolls.
	offset := max(0, m.cursor-height+1)
	end := min(len(m.rows), offset+height)

	lines := make([]string, 0, height)
	for i := offset; i < end; i++ {
		lines = append(lines, m.renderRow(m.rows[i], i == m.cursor, width))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func (m appModel) renderRow(r outlineRow, selected bool, width int) string {
	twisty := glyphBullet()
	if r.HasChildren {
		twisty = glyphTwistyExpanded()
		if r.Collapsed {
			twisty = glyphTwistyCollapsed()
		}
	}
	content := firstLine(r.Content)
	if content == "" {
		content = "(empty)"
	}
	prefix := strings.Repeat("  ", r.Depth) + twisty + " "
	addr := " " + r.Address

	if selected {
		line := xansi.Truncate(prefix+content+addr, width, "…")
		return styleSelected().Width(width).Render(line)
	}
	avail := width - xansi.StringWidth(prefix) - xansi.StringWidth(addr)
	if avail < 1 {
		avail = 1
	}
	return prefix + styleContent().Render(xansi.Truncate(content, avail, "…")) + styleMuted().Render(addr)
}

func (m appModel) viewPreview(width, height int) string {
	row, ok := m.selected()
	if !ok || width < 10 {
		return ""
	}
	head := styleAccent().Render(row.Address) + styleMuted().Render("  "+row.ID)
	body := renderMarkdown(row.Content, width)
	if body == "" {
		body = styleMuted().Render("(no content)")
	}
	out := lipgloss.JoinVertical(lipgloss.Left, head, "", body)
	return lipgloss.NewStyle().Width(width).MaxHeight(height).Render(out)
}

func (m appModel) viewFooter() string {
	switch m.mode {
	case modeAddChild, modeAddSibling, modeAddRoot, modeRename:
		return renderInputLine(m.width, m.mode.label(), m.input.View())
	}
	var status string
	switch m.statusKind {
	case statusOK:
		status = styleOK().Render(m.status)
	case statusWarn:
		status = styleWarn().Render(m.status)
	case statusError:
		status = styleError().Render(m.status)
	default:
		status = styleMuted().Render(m.status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, xansi.Truncate(status, max(m.width, 10), "…"), m.help.View(m.keys))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return strings.TrimSpace(s[:i]) + " …"
	}
	return s
}
