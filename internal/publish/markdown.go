package publish

import (
	"bytes"
	"strings"

	"mindmap-cli/internal/model"
	"mindmap-cli/internal/tree"
)

type RenderOptions struct {
	// Addresses, when set, are shown after each node as `root-0-1`.
	Addresses map[string]string
}

// RenderDocumentMarkdown renders a document as an outline: the main node is
// the heading, its subtree a nested list, and floating nodes follow in their
// own section.
func RenderDocumentMarkdown(doc model.Document, t *tree.Tree, opt RenderOptions) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	title := strings.TrimSpace(doc.Title)
	main, ok := t.MainRoot()
	if !ok {
		writeLn("# " + title)
		writeLn("")
		writeLn("_(empty)_")
		return buf.String()
	}

	writeLn("# " + oneLine(main.Content) + tag(opt, main.ID))
	writeLn("")
	if title != "" && title != strings.TrimSpace(main.Content) {
		writeLn("> " + title)
		writeLn("")
	}
	writeList(&buf, t, main.ID, opt, 0)

	roots := t.Roots()
	if len(roots) > 1 {
		writeLn("")
		writeLn("## Floating")
		writeLn("")
		for _, r := range roots[1:] {
			writeItem(&buf, r, 0, opt)
			writeList(&buf, t, r.ID, opt, 1)
		}
	}
	return buf.String()
}

// writeList writes the subtree below parentID as nested items starting at base.
func writeList(buf *bytes.Buffer, t *tree.Tree, parentID string, opt RenderOptions, base int) {
	type frame struct {
		node  model.Node
		level int
	}
	kids := t.ChildrenOf(parentID)
	stack := make([]frame, 0, len(kids))
	for i := len(kids) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: kids[i], level: base})
	}
	seen := map[string]bool{}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[f.node.ID] {
			continue
		}
		seen[f.node.ID] = true
		writeItem(buf, f.node, f.level, opt)
		sub := t.ChildrenOf(f.node.ID)
		for i := len(sub) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: sub[i], level: f.level + 1})
		}
	}
}

func writeItem(buf *bytes.Buffer, n model.Node, level int, opt RenderOptions) {
	indent := strings.Repeat("  ", level)
	lines := strings.Split(strings.TrimRight(n.Content, "\n"), "\n")
	buf.WriteString(indent + "- " + strings.TrimSpace(lines[0]) + tag(opt, n.ID) + "\n")
	for _, l := range lines[1:] {
		buf.WriteString(indent + "  " + strings.TrimSpace(l) + "\n")
	}
}

func tag(opt RenderOptions, id string) string {
	if opt.Addresses == nil {
		return ""
	}
	if a := opt.Addresses[id]; a != "" {
		return " `" + a + "`"
	}
	return ""
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
