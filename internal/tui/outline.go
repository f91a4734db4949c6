package tui

import (
	"mindmap-cli/internal/tree"
)

// outlineRow is one visible line of the tree: a node plus what the renderer
// needs to draw it.
type outlineRow struct {
	ID          string
	Address     string
	Content     string
	Depth       int
	HasChildren bool
	Collapsed   bool
}

// flattenOutline lists the tree in pre-order, roots in canvas order (main node
// first), skipping the descendants of collapsed nodes.
func flattenOutline(t *tree.Tree, addresses map[string]string, collapsed map[string]bool) []outlineRow {
	var out []outlineRow
	type frame struct {
		id    string
		depth int
	}
	roots := t.Roots()
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{id: roots[i].ID})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, ok := t.Get(f.id)
		if !ok {
			continue
		}
		children := t.ChildrenOf(f.id)
		row := outlineRow{
			ID:          n.ID,
			Address:     addresses[n.ID],
			Content:     n.Content,
			Depth:       f.depth,
			HasChildren: len(children) > 0,
			Collapsed:   collapsed[n.ID] && len(children) > 0,
		}
		out = append(out, row)
		if row.Collapsed {
			continue
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: children[i].ID, depth: f.depth + 1})
		}
	}
	return out
}

func rowIndex(rows []outlineRow, id string) int {
	for i, r := range rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}
