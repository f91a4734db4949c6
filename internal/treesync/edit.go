package treesync

import (
	"fmt"
	"strings"

	"mindmap-cli/internal/model"
	"mindmap-cli/internal/tree"
)

// Deletion describes a successful DeleteSubtree.
type Deletion struct {
	Removed []string `json:"removed"`
	// Selection is the deleted node's former parent, or the main node when the
	// deleted node was root-level. Empty when the tree is now empty.
	Selection string `json:"selection,omitempty"`
}

// InsertRoot adds a root-level node after the existing ones. On an empty tree
// it becomes the main node; otherwise it is a floating node.
func (s *Synchronizer) InsertRoot(t *tree.Tree, content string) (*tree.Tree, string, error) {
	return s.insert(t, "", content)
}

func (s *Synchronizer) InsertChild(t *tree.Tree, parentID, content string) (*tree.Tree, string, error) {
	parentID = strings.TrimSpace(parentID)
	if !t.Has(parentID) {
		return nil, "", NotFoundError{Kind: "node", ID: parentID}
	}
	return s.insert(t, parentID, content)
}

// InsertSibling adds a node after the last sibling of nodeID, under the same parent.
func (s *Synchronizer) InsertSibling(t *tree.Tree, nodeID, content string) (*tree.Tree, string, error) {
	n, ok := t.Get(nodeID)
	if !ok {
		return nil, "", NotFoundError{Kind: "node", ID: strings.TrimSpace(nodeID)}
	}
	return s.insert(t, n.Parent(), content)
}

func (s *Synchronizer) insert(t *tree.Tree, parentID, content string) (*tree.Tree, string, error) {
	id := s.newID()
	if t.Has(id) {
		return nil, "", fmt.Errorf("%w: generated %s", tree.ErrDuplicateID, id)
	}
	n := model.Node{ID: id, SiblingOrder: t.NextSiblingOrder(parentID), Content: content}
	if parentID != "" {
		n.ParentID = tree.StrPtr(parentID)
	}
	next, err := tree.New(append(t.Nodes(), n))
	if err != nil {
		return nil, "", err
	}
	s.log.Debug("inserted node", "node", id, "parent", parentID)
	return next, id, nil
}

// DeleteSubtree removes nodeID and every transitive child in one step.
//
// The main node can only be deleted when it is the last node; otherwise a
// RootProtectedError is returned and t is left as is.
func (s *Synchronizer) DeleteSubtree(t *tree.Tree, nodeID string) (*tree.Tree, Deletion, error) {
	n, ok := t.Get(nodeID)
	if !ok {
		return nil, Deletion{}, NotFoundError{Kind: "node", ID: strings.TrimSpace(nodeID)}
	}
	if t.IsProtectedRoot(n.ID) && t.Len() > 1 {
		protectedDeletes.Inc()
		return nil, Deletion{}, RootProtectedError{NodeID: n.ID, Others: t.Len() - 1}
	}

	removed := t.Subtree(n.ID)
	gone := make(map[string]bool, len(removed))
	for _, id := range removed {
		gone[id] = true
	}
	keep := make([]model.Node, 0, t.Len()-len(removed))
	for _, k := range t.Nodes() {
		if !gone[k.ID] {
			keep = append(keep, k)
		}
	}
	next, err := tree.New(keep)
	if err != nil {
		return nil, Deletion{}, err
	}

	d := Deletion{Removed: removed, Selection: n.Parent()}
	if d.Selection == "" {
		if main, ok := next.MainRoot(); ok {
			d.Selection = main.ID
		}
	}
	s.log.Debug("deleted subtree", "node", n.ID, "removed", len(removed))
	return next, d, nil
}

func (s *Synchronizer) Rename(t *tree.Tree, nodeID, content string) (*tree.Tree, error) {
	nodeID = strings.TrimSpace(nodeID)
	if !t.Has(nodeID) {
		return nil, NotFoundError{Kind: "node", ID: nodeID}
	}
	nodes := t.Nodes()
	for i := range nodes {
		if nodes[i].ID == nodeID {
			nodes[i].Content = content
		}
	}
	return tree.New(nodes)
}

// Move re-parents nodeID under newParentID ("" for root level), appending it
// after the new parent's existing children. Moving a node under its own
// subtree fails with ErrCycle.
func (s *Synchronizer) Move(t *tree.Tree, nodeID, newParentID string) (*tree.Tree, error) {
	nodeID = strings.TrimSpace(nodeID)
	newParentID = strings.TrimSpace(newParentID)
	n, ok := t.Get(nodeID)
	if !ok {
		return nil, NotFoundError{Kind: "node", ID: nodeID}
	}
	if newParentID != "" {
		if !t.Has(newParentID) {
			return nil, NotFoundError{Kind: "node", ID: newParentID}
		}
		for _, id := range t.Subtree(nodeID) {
			if id == newParentID {
				return nil, fmt.Errorf("%w: %s under %s", ErrCycle, nodeID, newParentID)
			}
		}
	}
	if n.Parent() == newParentID {
		return t, nil
	}

	order := t.NextSiblingOrder(newParentID)
	nodes := t.Nodes()
	for i := range nodes {
		if nodes[i].ID != nodeID {
			continue
		}
		nodes[i].SiblingOrder = order
		nodes[i].ParentID = nil
		if newParentID != "" {
			nodes[i].ParentID = tree.StrPtr(newParentID)
		}
	}
	return tree.New(nodes)
}
