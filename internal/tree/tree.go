// Package tree holds the canonical in-memory mind map: a flat set of nodes with
// parent links, sibling order, and derived depth.
//
// A Tree is an immutable snapshot. Edits build a new Tree from a modified node
// slice, so derived state (depth, child ordering) is always recomputed in full.
package tree

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"mindmap-cli/internal/model"
)

var (
	ErrDuplicateID = errors.New("duplicate node id")
	// ErrInvalidID rejects empty ids and ids with surrounding whitespace.
	// Ids are opaque and stored byte-exact, so they are never trimmed.
	ErrInvalidID = errors.New("invalid node id")
)

// rootKey is the children-map key for root-level nodes.
const rootKey = ""

type Tree struct {
	nodes    []model.Node
	index    map[string]int
	children map[string][]int
	cyclic   []bool
}

// New builds a snapshot from nodes. Input depths are ignored and recomputed.
// Nodes are copied; the caller's slice is never retained.
func New(nodes []model.Node) (*Tree, error) {
	t := &Tree{
		nodes:    make([]model.Node, 0, len(nodes)),
		index:    make(map[string]int, len(nodes)),
		children: map[string][]int{},
	}
	for _, n := range nodes {
		if n.ID == "" || strings.TrimSpace(n.ID) != n.ID {
			return nil, fmt.Errorf("%w: %q", ErrInvalidID, n.ID)
		}
		if _, ok := t.index[n.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
		}
		if n.ParentID != nil {
			if *n.ParentID == "" {
				n.ParentID = nil
			} else {
				p := *n.ParentID
				n.ParentID = &p
			}
		}
		t.index[n.ID] = len(t.nodes)
		t.nodes = append(t.nodes, n)
	}

	for i, n := range t.nodes {
		k := n.Parent()
		t.children[k] = append(t.children[k], i)
	}
	for k := range t.children {
		idxs := t.children[k]
		sort.SliceStable(idxs, func(a, b int) bool {
			return t.nodes[idxs[a]].SiblingOrder < t.nodes[idxs[b]].SiblingOrder
		})
	}

	t.computeDepths()
	return t, nil
}

// Empty returns a tree with no nodes.
func Empty() *Tree {
	t, _ := New(nil)
	return t
}

// computeDepths walks each ancestor chain once. Chains that revisit a node on
// the current path (a cycle) put every cycle member at depth 0 instead of looping.
// A parent id that does not resolve also ends the chain at depth 0.
func (t *Tree) computeDepths() {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]uint8, len(t.nodes))
	t.cyclic = make([]bool, len(t.nodes))

	for start := range t.nodes {
		if state[start] == done {
			continue
		}
		var path []int
		onPath := map[int]int{}
		cur := start
		base := 0
		cycleAt := -1
		for {
			if state[cur] == done {
				base = t.nodes[cur].Depth + 1
				break
			}
			if pos, ok := onPath[cur]; ok {
				cycleAt = pos
				break
			}
			state[cur] = visiting
			onPath[cur] = len(path)
			path = append(path, cur)

			pi, ok := t.index[t.nodes[cur].Parent()]
			if t.nodes[cur].ParentID == nil || !ok {
				base = 0
				break
			}
			cur = pi
		}

		next := base
		for j := len(path) - 1; j >= 0; j-- {
			i := path[j]
			if cycleAt >= 0 && j >= cycleAt {
				t.cyclic[i] = true
				t.nodes[i].Depth = 0
				next = 1
			} else {
				t.nodes[i].Depth = next
				next++
			}
			state[i] = done
		}
	}
}

func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

func (t *Tree) Has(id string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[strings.TrimSpace(id)]
	return ok
}

func (t *Tree) Get(id string) (model.Node, bool) {
	if t == nil {
		return model.Node{}, false
	}
	i, ok := t.index[strings.TrimSpace(id)]
	if !ok {
		return model.Node{}, false
	}
	return copyNode(t.nodes[i]), true
}

// Nodes returns copies of every node in insertion order.
func (t *Tree) Nodes() []model.Node {
	if t == nil {
		return nil
	}
	out := make([]model.Node, len(t.nodes))
	for i, n := range t.nodes {
		out[i] = copyNode(n)
	}
	return out
}

// DepthOf returns the derived depth of a node. Unknown ids, broken parent
// chains, and cycles all degrade to 0 rather than failing.
func (t *Tree) DepthOf(id string) int {
	if t == nil {
		return 0
	}
	i, ok := t.index[strings.TrimSpace(id)]
	if !ok {
		return 0
	}
	return t.nodes[i].Depth
}

// ChildrenOf returns the children of parentID ordered by sibling order.
// An empty parentID selects the root-level nodes.
func (t *Tree) ChildrenOf(parentID string) []model.Node {
	if t == nil {
		return nil
	}
	idxs := t.children[strings.TrimSpace(parentID)]
	out := make([]model.Node, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, copyNode(t.nodes[i]))
	}
	return out
}

func (t *Tree) Roots() []model.Node { return t.ChildrenOf(rootKey) }

// NextSiblingOrder returns one past the largest sibling order under parentID,
// or 0 when it has no children.
func (t *Tree) NextSiblingOrder(parentID string) int {
	if t == nil {
		return 0
	}
	idxs := t.children[strings.TrimSpace(parentID)]
	if len(idxs) == 0 {
		return 0
	}
	max := t.nodes[idxs[0]].SiblingOrder
	for _, i := range idxs[1:] {
		if o := t.nodes[i].SiblingOrder; o > max {
			max = o
		}
	}
	return max + 1
}

// MainRoot returns the canonical main node: the first root-level node.
func (t *Tree) MainRoot() (model.Node, bool) {
	if t == nil {
		return model.Node{}, false
	}
	idxs := t.children[rootKey]
	if len(idxs) == 0 {
		return model.Node{}, false
	}
	return copyNode(t.nodes[idxs[0]]), true
}

func (t *Tree) IsProtectedRoot(id string) bool {
	main, ok := t.MainRoot()
	return ok && main.ID == strings.TrimSpace(id)
}

// Subtree returns id followed by all of its transitive children, depth-first.
// Returns nil when id is unknown.
func (t *Tree) Subtree(id string) []string {
	id = strings.TrimSpace(id)
	if !t.Has(id) {
		return nil
	}
	out := []string{}
	seen := map[string]bool{}
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		kids := t.children[cur]
		for j := len(kids) - 1; j >= 0; j-- {
			stack = append(stack, t.nodes[kids[j]].ID)
		}
	}
	return out
}

// Walk visits every node reachable from the root-level nodes in pre-order:
// roots in sibling order, each followed by its subtree.
func (t *Tree) Walk(visit func(n model.Node)) {
	if t == nil {
		return
	}
	for _, r := range t.children[rootKey] {
		for _, id := range t.Subtree(t.nodes[r].ID) {
			visit(copyNode(t.nodes[t.index[id]]))
		}
	}
}

// Validate reports every invariant violation in the snapshot.
func (t *Tree) Validate() error {
	if t == nil {
		return nil
	}
	var errs []error
	for i, n := range t.nodes {
		if n.ParentID != nil {
			if *n.ParentID == n.ID {
				errs = append(errs, fmt.Errorf("node %s is its own parent", n.ID))
			} else if _, ok := t.index[*n.ParentID]; !ok {
				errs = append(errs, fmt.Errorf("node %s has unknown parent %s", n.ID, *n.ParentID))
			}
		}
		if t.cyclic[i] && (n.ParentID == nil || *n.ParentID != n.ID) {
			errs = append(errs, fmt.Errorf("node %s is part of a parent cycle", n.ID))
		}
		if n.SiblingOrder < 0 {
			errs = append(errs, fmt.Errorf("node %s has negative sibling order %d", n.ID, n.SiblingOrder))
		}
	}
	for parent, idxs := range t.children {
		seen := map[int]string{}
		for _, i := range idxs {
			o := t.nodes[i].SiblingOrder
			if other, ok := seen[o]; ok {
				label := parent
				if label == rootKey {
					label = "<root>"
				}
				errs = append(errs, fmt.Errorf("nodes %s and %s share sibling order %d under %s", other, t.nodes[i].ID, o, label))
				continue
			}
			seen[o] = t.nodes[i].ID
		}
	}
	if len(t.nodes) > 0 && len(t.children[rootKey]) == 0 {
		errs = append(errs, errors.New("tree has nodes but no root-level node"))
	}
	return errors.Join(errs...)
}

func copyNode(n model.Node) model.Node {
	if n.ParentID != nil {
		p := *n.ParentID
		n.ParentID = &p
	}
	return n
}

// StrPtr is a small helper for building parent references.
func StrPtr(s string) *string { return &s }
