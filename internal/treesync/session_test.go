package treesync

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"mindmap-cli/internal/model"
	"mindmap-cli/internal/store"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	rows    map[string][]model.NodeRow
	err     error
	writes  int
	entered chan struct{}
	release chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string][]model.NodeRow{}}
}

func (f *fakeStore) LoadNodes(_ context.Context, documentID string) ([]model.NodeRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.NodeRow(nil), f.rows[documentID]...), nil
}

func (f *fakeStore) ReplaceNodes(_ context.Context, documentID string, rows []model.NodeRow) error {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.writes++
	f.rows[documentID] = append([]model.NodeRow(nil), rows...)
	return nil
}

func TestRows_ParentsFirst(t *testing.T) {
	rows := Rows("doc", sampleTree(t))
	require.Len(t, rows, 4)
	pos := map[string]int{}
	for i, r := range rows {
		pos[r.ID] = i
		assert.Equal(t, "doc", r.DocumentID)
	}
	for _, r := range rows {
		if r.ParentNodeID != nil {
			assert.Less(t, pos[*r.ParentNodeID], pos[r.ID])
		}
	}
	assert.Equal(t, 2, rows[pos["D"]].Depth)
}

func TestPersist_FailureIsDistinguishable(t *testing.T) {
	fs := newFakeStore()
	boom := errors.New("disk full")
	fs.err = boom
	s := New(fs)
	before := testutil.ToFloat64(persistFailures)

	err := s.Persist(context.Background(), "doc", sampleTree(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersist)
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, ErrRootProtected))
	var pe PersistError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "doc", pe.DocumentID)
	assert.Equal(t, before+1, testutil.ToFloat64(persistFailures))
	assert.Empty(t, fs.rows["doc"])
}

func TestSession_EditsRecomputeView(t *testing.T) {
	s := New(newFakeStore(), WithIDFunc(seqIDs()))
	se, err := NewSession(s, "doc", nil)
	require.NoError(t, err)
	assert.Empty(t, se.View().Graph.Nodes)

	main, err := se.InsertRoot("Main")
	require.NoError(t, err)
	child, err := se.InsertChild(main, "child")
	require.NoError(t, err)
	sib, err := se.InsertSibling(child, "sibling")
	require.NoError(t, err)

	v := se.View()
	assert.Equal(t, "root", v.AddressOf(main))
	assert.Equal(t, "root-0", v.AddressOf(child))
	assert.Equal(t, "root-1", v.AddressOf(sib))
	assert.Len(t, v.Graph.Nodes, 3)
	assert.Len(t, v.Graph.Edges, 2)
	assert.True(t, se.Dirty())

	require.NoError(t, se.Rename(child, "renamed"))
	require.NoError(t, se.Move(sib, child))
	assert.Equal(t, "root-0-0", se.View().AddressOf(sib))

	d, err := se.DeleteSubtree(child)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{child, sib}, d.Removed)
	assert.Equal(t, main, d.Selection)

	_, err = se.DeleteSubtree(main)
	require.NoError(t, err)
	assert.Equal(t, 0, se.Tree().Len())
}

func TestSession_ProtectedDeleteLeavesStateUnchanged(t *testing.T) {
	se, err := NewSession(New(newFakeStore()), "doc", sampleTree(t))
	require.NoError(t, err)
	before := se.Tree()

	_, err = se.DeleteSubtree("A")
	require.ErrorIs(t, err, ErrRootProtected)
	assert.Same(t, before, se.Tree())
	assert.False(t, se.Dirty())
}

func TestSession_ReconcileFromCanvas(t *testing.T) {
	se, err := NewSession(New(newFakeStore()), "doc", sampleTree(t))
	require.NoError(t, err)

	g := se.View().Graph
	// Drop C from the canvas and its edge with it.
	var nodes []model.CanvasNode
	for _, n := range g.Nodes {
		if n.ID != "C" {
			nodes = append(nodes, n)
		}
	}
	var edges []model.CanvasEdge
	for _, e := range g.Edges {
		if e.Target != "C" {
			edges = append(edges, e)
		}
	}
	require.NoError(t, se.Reconcile(model.CanvasGraph{Nodes: nodes, Edges: edges}))
	assert.False(t, se.Tree().Has("C"))
	assert.Equal(t, "root-0-0", se.View().AddressOf("D"))
}

func TestSession_SaveFailureKeepsTreeAndRetries(t *testing.T) {
	fs := newFakeStore()
	fs.err = errors.New("locked")
	se, err := NewSession(New(fs), "doc", nil)
	require.NoError(t, err)
	_, err = se.InsertRoot("Main")
	require.NoError(t, err)

	err = se.Save(context.Background())
	require.ErrorIs(t, err, ErrPersist)
	assert.True(t, se.Dirty())
	assert.Equal(t, 1, se.Tree().Len())

	fs.mu.Lock()
	fs.err = nil
	fs.mu.Unlock()
	require.NoError(t, se.Save(context.Background()))
	assert.False(t, se.Dirty())
	assert.Len(t, fs.rows["doc"], 1)
}

func TestSession_OverlappingSaveRefused(t *testing.T) {
	fs := newFakeStore()
	fs.entered = make(chan struct{})
	fs.release = make(chan struct{})
	se, err := NewSession(New(fs), "doc", sampleTree(t))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- se.Save(context.Background()) }()
	<-fs.entered

	assert.ErrorIs(t, se.Save(context.Background()), ErrPersistInFlight)

	// Edits made while the save runs stay dirty afterwards.
	_, err = se.InsertChild("C", "late")
	require.NoError(t, err)

	close(fs.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, fs.writes)
	assert.True(t, se.Dirty())
}

func TestSession_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := store.Store{Dir: filepath.Join(t.TempDir(), ".mindmap")}
	doc, err := st.CreateDocument(ctx, "Plan")
	require.NoError(t, err)

	s := New(st)
	se, err := Open(ctx, s, doc.ID)
	require.NoError(t, err)
	main, err := se.InsertRoot("Main")
	require.NoError(t, err)
	b, err := se.InsertChild(main, "B")
	require.NoError(t, err)
	_, err = se.InsertChild(b, "D")
	require.NoError(t, err)
	_, err = se.InsertChild(main, "C")
	require.NoError(t, err)
	_, err = se.InsertRoot("Floating")
	require.NoError(t, err)
	require.NoError(t, se.Save(ctx))

	reopened, err := Open(ctx, s, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, se.View().Addresses, reopened.View().Addresses)
	assert.ElementsMatch(t, se.Tree().Nodes(), reopened.Tree().Nodes())

	// Deleting B cascades to D in storage as well.
	_, err = reopened.DeleteSubtree(b)
	require.NoError(t, err)
	require.NoError(t, reopened.Save(ctx))
	rows, err := st.LoadNodes(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
