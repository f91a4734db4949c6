package treesync

import (
	"context"
	"sync"

	"mindmap-cli/internal/model"
	"mindmap-cli/internal/tree"
)

// Session is the editing state of one open document: the current tree and its
// view. Every edit replaces the tree and recomputes the view before returning.
//
// A Session never starts two persists at once. Two Sessions on the same
// document still overwrite each other (last write wins).
type Session struct {
	syncer     *Synchronizer
	documentID string

	mu         sync.Mutex
	tree       *tree.Tree
	view       View
	revision   uint64
	saved      uint64
	persisting bool
}

// Open loads a document and returns a session for it.
func Open(ctx context.Context, s *Synchronizer, documentID string) (*Session, error) {
	t, err := s.LoadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return NewSession(s, documentID, t)
}

// NewSession wraps an existing tree. The tree is treated as already saved.
func NewSession(s *Synchronizer, documentID string, t *tree.Tree) (*Session, error) {
	if t == nil {
		t = tree.Empty()
	}
	v, err := s.View(t)
	if err != nil {
		return nil, err
	}
	return &Session{syncer: s, documentID: documentID, tree: t, view: v}, nil
}

func (se *Session) DocumentID() string { return se.documentID }

func (se *Session) Tree() *tree.Tree {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.tree
}

func (se *Session) View() View {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.view
}

// Dirty reports whether the tree changed since the last successful persist.
func (se *Session) Dirty() bool {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.revision != se.saved
}

// apply runs an edit against the current tree and installs the result.
func (se *Session) apply(edit func(t *tree.Tree) (*tree.Tree, error)) error {
	se.mu.Lock()
	defer se.mu.Unlock()
	next, err := edit(se.tree)
	if err != nil {
		return err
	}
	if next == se.tree {
		return nil
	}
	v, err := se.syncer.View(next)
	if err != nil {
		return err
	}
	se.tree, se.view = next, v
	se.revision++
	return nil
}

func (se *Session) InsertRoot(content string) (string, error) {
	var id string
	err := se.apply(func(t *tree.Tree) (next *tree.Tree, err error) {
		next, id, err = se.syncer.InsertRoot(t, content)
		return next, err
	})
	return id, err
}

func (se *Session) InsertChild(parentID, content string) (string, error) {
	var id string
	err := se.apply(func(t *tree.Tree) (next *tree.Tree, err error) {
		next, id, err = se.syncer.InsertChild(t, parentID, content)
		return next, err
	})
	return id, err
}

func (se *Session) InsertSibling(nodeID, content string) (string, error) {
	var id string
	err := se.apply(func(t *tree.Tree) (next *tree.Tree, err error) {
		next, id, err = se.syncer.InsertSibling(t, nodeID, content)
		return next, err
	})
	return id, err
}

func (se *Session) DeleteSubtree(nodeID string) (Deletion, error) {
	var d Deletion
	err := se.apply(func(t *tree.Tree) (next *tree.Tree, err error) {
		next, d, err = se.syncer.DeleteSubtree(t, nodeID)
		return next, err
	})
	return d, err
}

func (se *Session) Rename(nodeID, content string) error {
	return se.apply(func(t *tree.Tree) (*tree.Tree, error) {
		return se.syncer.Rename(t, nodeID, content)
	})
}

func (se *Session) Move(nodeID, newParentID string) error {
	return se.apply(func(t *tree.Tree) (*tree.Tree, error) {
		return se.syncer.Move(t, nodeID, newParentID)
	})
}

func (se *Session) Reconcile(graph model.CanvasGraph) error {
	return se.apply(func(t *tree.Tree) (*tree.Tree, error) {
		return se.syncer.Reconcile(t, graph)
	})
}

// Save persists the current tree. Edits may continue while it runs; they stay
// dirty until the next Save. A Save started while another is in flight fails
// with ErrPersistInFlight.
func (se *Session) Save(ctx context.Context) error {
	se.mu.Lock()
	if se.persisting {
		se.mu.Unlock()
		return ErrPersistInFlight
	}
	se.persisting = true
	t, rev := se.tree, se.revision
	se.mu.Unlock()

	err := se.syncer.Persist(ctx, se.documentID, t)

	se.mu.Lock()
	defer se.mu.Unlock()
	se.persisting = false
	if err != nil {
		return err
	}
	se.saved = rev
	return nil
}
