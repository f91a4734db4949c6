package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"mindmap-cli/internal/model"
	"mindmap-cli/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// failingStore refuses every write.
type failingStore struct {
	store.Store
}

func (failingStore) ReplaceNodes(context.Context, string, []model.NodeRow) error {
	return errors.New("database is locked")
}

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st := store.Store{Dir: filepath.Join(t.TempDir(), ".mindmap")}
	return NewServer(ServerConfig{Store: st}), st
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createDoc(t *testing.T, r http.Handler, title string) model.Document {
	t.Helper()
	w := do(t, r, http.MethodPost, "/documents", CreateDocumentRequest{Title: title})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Document](t, w)
}

func insert(t *testing.T, r http.Handler, docID string, req InsertNodeRequest) InsertNodeResponse {
	t.Helper()
	w := do(t, r, http.MethodPost, "/documents/"+docID+"/nodes", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[InsertNodeResponse](t, w)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Router(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCreateAndListDocuments(t *testing.T) {
	s, _ := newTestServer(t)
	r := s.Router()

	w := do(t, r, http.MethodPost, "/documents", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	doc := createDoc(t, r, "Plan")
	assert.Equal(t, "Plan", doc.Title)

	w = do(t, r, http.MethodGet, "/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		Documents []model.Document `json:"documents"`
	}](t, w)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, doc.ID, got.Documents[0].ID)
}

func TestInsertNodes_AddressesAndCanvas(t *testing.T) {
	s, _ := newTestServer(t)
	r := s.Router()
	doc := createDoc(t, r, "Plan")

	main := insert(t, r, doc.ID, InsertNodeRequest{Content: "Main"})
	assert.Equal(t, "root", main.Address)
	b := insert(t, r, doc.ID, InsertNodeRequest{ParentID: main.NodeID, Content: "B"})
	assert.Equal(t, "root-0", b.Address)
	c := insert(t, r, doc.ID, InsertNodeRequest{SiblingOf: b.NodeID, Content: "C"})
	assert.Equal(t, "root-1", c.Address)
	f := insert(t, r, doc.ID, InsertNodeRequest{Content: "Floating"})
	assert.Equal(t, "float-0", f.Address)

	assert.Len(t, f.Graph.Nodes, 4)
	assert.Len(t, f.Graph.Edges, 2)
	assert.True(t, f.Dirty)
	for _, e := range f.Graph.Edges {
		assert.Equal(t, model.HandleRight, e.SourceHandle)
		assert.Equal(t, model.HandleLeft, e.TargetHandle)
	}

	w := do(t, r, http.MethodPost, "/documents/"+doc.ID+"/nodes", InsertNodeRequest{ParentID: b.NodeID, SiblingOf: c.NodeID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/documents/"+doc.ID+"/nodes", InsertNodeRequest{ParentID: "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteNode_RootProtectedIsConflict(t *testing.T) {
	s, _ := newTestServer(t)
	r := s.Router()
	doc := createDoc(t, r, "Plan")
	main := insert(t, r, doc.ID, InsertNodeRequest{Content: "Main"})
	b := insert(t, r, doc.ID, InsertNodeRequest{ParentID: main.NodeID, Content: "B"})
	insert(t, r, doc.ID, InsertNodeRequest{ParentID: b.NodeID, Content: "D"})
	c := insert(t, r, doc.ID, InsertNodeRequest{ParentID: main.NodeID, Content: "C"})

	w := do(t, r, http.MethodDelete, "/documents/"+doc.ID+"/nodes/"+main.NodeID, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "root_protected", decode[ErrorResponse](t, w).Code)

	w = do(t, r, http.MethodDelete, "/documents/"+doc.ID+"/nodes/"+b.NodeID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[DeleteNodeResponse](t, w)
	assert.Len(t, resp.Removed, 2)
	assert.Equal(t, main.NodeID, resp.Selection)
	assert.Equal(t, "root-0", resp.Addresses[c.NodeID])
}

func TestSave_PersistsAndReloads(t *testing.T) {
	s, st := newTestServer(t)
	r := s.Router()
	doc := createDoc(t, r, "Plan")
	main := insert(t, r, doc.ID, InsertNodeRequest{Content: "Main"})
	insert(t, r, doc.ID, InsertNodeRequest{ParentID: main.NodeID, Content: "B"})

	w := do(t, r, http.MethodPost, "/documents/"+doc.ID+"/save", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	rows, err := st.LoadNodes(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// A fresh server reads the saved tree.
	fresh := NewServer(ServerConfig{Store: st}).Router()
	w = do(t, fresh, http.MethodGet, "/documents/"+doc.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[DocumentResponse](t, w)
	assert.Len(t, got.Graph.Nodes, 2)
	assert.False(t, got.Dirty)
}

func TestSave_FailureIsServiceUnavailable(t *testing.T) {
	st := store.Store{Dir: filepath.Join(t.TempDir(), ".mindmap")}
	doc, err := st.CreateDocument(context.Background(), "Plan")
	require.NoError(t, err)
	r := NewServer(ServerConfig{Store: failingStore{Store: st}}).Router()

	insert(t, r, doc.ID, InsertNodeRequest{Content: "Main"})
	w := do(t, r, http.MethodPost, "/documents/"+doc.ID+"/save", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "persist_failed", decode[ErrorResponse](t, w).Code)

	// The in-memory tree survives the failed save.
	w = do(t, r, http.MethodGet, "/documents/"+doc.ID, nil)
	got := decode[DocumentResponse](t, w)
	assert.Len(t, got.Graph.Nodes, 1)
	assert.True(t, got.Dirty)
}

func TestReconcile_RebuildsTreeFromCanvas(t *testing.T) {
	s, _ := newTestServer(t)
	r := s.Router()
	doc := createDoc(t, r, "Plan")
	main := insert(t, r, doc.ID, InsertNodeRequest{Content: "Main"})
	b := insert(t, r, doc.ID, InsertNodeRequest{ParentID: main.NodeID, Content: "B"})
	c := insert(t, r, doc.ID, InsertNodeRequest{ParentID: main.NodeID, Content: "C"})

	graph := model.CanvasGraph{
		Nodes: c.Graph.Nodes,
		Edges: []model.CanvasEdge{
			{Source: main.NodeID, Target: c.NodeID},
			{Source: c.NodeID, Target: b.NodeID},
			{Source: "ghost", Target: main.NodeID},
		},
	}
	w := do(t, r, http.MethodPost, "/documents/"+doc.ID+"/reconcile", graph)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[DocumentResponse](t, w)
	assert.Equal(t, "root", got.Addresses[main.NodeID])
	assert.Equal(t, "root-0", got.Addresses[c.NodeID])
	assert.Equal(t, "root-0-0", got.Addresses[b.NodeID])

	w = do(t, r, http.MethodPost, "/documents/"+doc.ID+"/reconcile", "not a graph")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconcile_DroppingMainNodeIsConflict(t *testing.T) {
	s, _ := newTestServer(t)
	r := s.Router()
	doc := createDoc(t, r, "Plan")
	main := insert(t, r, doc.ID, InsertNodeRequest{Content: "Main"})
	b := insert(t, r, doc.ID, InsertNodeRequest{ParentID: main.NodeID, Content: "B"})

	graph := model.CanvasGraph{Nodes: []model.CanvasNode{{ID: b.NodeID, Content: "B"}}}
	w := do(t, r, http.MethodPost, "/documents/"+doc.ID+"/reconcile", graph)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, "root_protected", decode[ErrorResponse](t, w).Code)

	w = do(t, r, http.MethodGet, "/documents/"+doc.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[DocumentResponse](t, w)
	assert.Equal(t, "root", got.Addresses[main.NodeID])
	assert.Equal(t, "root-0", got.Addresses[b.NodeID])
}

func TestReconcile_UntrimmedIDIsBadRequest(t *testing.T) {
	s, _ := newTestServer(t)
	r := s.Router()
	doc := createDoc(t, r, "Plan")

	graph := model.CanvasGraph{Nodes: []model.CanvasNode{{ID: " a", Content: "A"}}}
	w := do(t, r, http.MethodPost, "/documents/"+doc.ID+"/reconcile", graph)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "invalid_id", decode[ErrorResponse](t, w).Code)
}

func TestUpdateNode_RenameAndMove(t *testing.T) {
	s, _ := newTestServer(t)
	r := s.Router()
	doc := createDoc(t, r, "Plan")
	main := insert(t, r, doc.ID, InsertNodeRequest{Content: "Main"})
	b := insert(t, r, doc.ID, InsertNodeRequest{ParentID: main.NodeID, Content: "B"})
	c := insert(t, r, doc.ID, InsertNodeRequest{ParentID: main.NodeID, Content: "C"})

	content, parent := "Bee", c.NodeID
	w := do(t, r, http.MethodPatch, "/documents/"+doc.ID+"/nodes/"+b.NodeID, UpdateNodeRequest{Content: &content, ParentID: &parent})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[DocumentResponse](t, w)
	assert.Equal(t, "root-0-0", got.Addresses[b.NodeID])

	w = do(t, r, http.MethodPatch, "/documents/"+doc.ID+"/nodes/"+b.NodeID, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	into := b.NodeID
	w = do(t, r, http.MethodPatch, "/documents/"+doc.ID+"/nodes/"+c.NodeID, UpdateNodeRequest{ParentID: &into})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "cycle", decode[ErrorResponse](t, w).Code)
}

func TestResolve(t *testing.T) {
	s, _ := newTestServer(t)
	r := s.Router()
	doc := createDoc(t, r, "Plan")
	main := insert(t, r, doc.ID, InsertNodeRequest{Content: "Main"})
	b := insert(t, r, doc.ID, InsertNodeRequest{ParentID: main.NodeID, Content: "B"})

	w := do(t, r, http.MethodGet, "/documents/"+doc.ID+"/resolve/root-0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[ResolveResponse](t, w)
	assert.Equal(t, b.NodeID, got.NodeID)
	assert.Equal(t, 1, got.Depth)
	assert.Equal(t, "root", got.Parent)

	w = do(t, r, http.MethodGet, "/documents/"+doc.ID+"/resolve/root-7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, r, http.MethodGet, "/documents/"+doc.ID+"/resolve/branch-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_address", decode[ErrorResponse](t, w).Code)
}

func TestUnknownDocumentIsNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	r := s.Router()
	for _, path := range []string{"/documents/doc-missing", "/documents/doc-missing/events", "/documents/doc-missing/export"} {
		w := do(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestEventsAndExport(t *testing.T) {
	s, _ := newTestServer(t)
	r := s.Router()
	doc := createDoc(t, r, "Plan")
	main := insert(t, r, doc.ID, InsertNodeRequest{Content: "Main"})
	insert(t, r, doc.ID, InsertNodeRequest{ParentID: main.NodeID, Content: "**bold** child"})
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/documents/"+doc.ID+"/save", nil).Code)

	w := do(t, r, http.MethodGet, "/documents/"+doc.ID+"/events?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	evs := decode[struct {
		Events []model.Event `json:"events"`
	}](t, w)
	require.Len(t, evs.Events, 1)
	assert.Equal(t, "document.save", evs.Events[0].Type)

	w = do(t, r, http.MethodGet, "/documents/"+doc.ID+"/events?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/documents/"+doc.ID+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# Main `root`")

	w = do(t, r, http.MethodGet, "/documents/"+doc.ID+"/export?format=html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, w.Body.String(), "<strong>bold</strong>")
}

func TestReadOnly_HidesMutatingRoutes(t *testing.T) {
	st := store.Store{Dir: filepath.Join(t.TempDir(), ".mindmap")}
	r := NewServer(ServerConfig{Store: st, ReadOnly: true}).Router()
	w := do(t, r, http.MethodPost, "/documents", CreateDocumentRequest{Title: "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	r := s.Router()
	do(t, r, http.MethodGet, "/health", nil)
	w := do(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mindmap_http_requests_total")
}
