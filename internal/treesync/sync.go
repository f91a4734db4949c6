// Package treesync turns edited canvas graphs into canonical trees, applies
// structural edits, and persists trees as one replace-all transaction.
package treesync

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sort"

	"mindmap-cli/internal/layout"
	"mindmap-cli/internal/model"
	"mindmap-cli/internal/store"
	"mindmap-cli/internal/tree"
)

// Store is the persistence boundary. store.Store satisfies it.
type Store interface {
	LoadNodes(ctx context.Context, documentID string) ([]model.NodeRow, error)
	ReplaceNodes(ctx context.Context, documentID string, rows []model.NodeRow) error
}

type Synchronizer struct {
	store  Store
	log    *slog.Logger
	newID  func() string
	layout layout.Config
}

type Option func(*Synchronizer)

func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.log = l
		}
	}
}

// WithIDFunc replaces the node id generator.
func WithIDFunc(f func() string) Option {
	return func(s *Synchronizer) {
		if f != nil {
			s.newID = f
		}
	}
}

func WithLayout(cfg layout.Config) Option {
	return func(s *Synchronizer) { s.layout = cfg }
}

func New(st Store, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:  st,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:  func() string { return store.NewID("node") },
		layout: layout.DefaultConfig(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Synchronizer) Logger() *slog.Logger { return s.log }

// EdgesFromRows rebuilds the parent edges implied by persisted rows.
func EdgesFromRows(rows []model.NodeRow) []model.CanvasEdge {
	out := make([]model.CanvasEdge, 0, len(rows))
	for _, r := range rows {
		if r.ParentNodeID == nil || *r.ParentNodeID == "" {
			continue
		}
		p := *r.ParentNodeID
		out = append(out, model.CanvasEdge{
			ID:           layout.EdgeID(p, r.ID),
			Source:       p,
			Target:       r.ID,
			SourceHandle: model.HandleRight,
			TargetHandle: model.HandleLeft,
		})
	}
	return out
}

// Load derives a tree from persisted rows and an edge list. Parent links come
// from the edges only; a nil edge list means "use the rows' own parent ids".
// Stored sibling order ranks each group and is then renumbered densely.
func (s *Synchronizer) Load(rows []model.NodeRow, edges []model.CanvasEdge) (*tree.Tree, error) {
	if edges == nil {
		edges = EdgesFromRows(rows)
	}
	items := make([]item, 0, len(rows))
	for _, r := range rows {
		items = append(items, item{id: r.ID, content: r.Content, rank: float64(r.SiblingOrder)})
	}
	return s.derive(items, edges)
}

func (s *Synchronizer) LoadDocument(ctx context.Context, documentID string) (*tree.Tree, error) {
	rows, err := s.store.LoadNodes(ctx, documentID)
	if err != nil {
		return nil, err
	}
	t, err := s.Load(rows, nil)
	if err != nil {
		return nil, err
	}
	s.log.Debug("loaded document", "document", documentID, "nodes", t.Len())
	return t, nil
}

// Reconcile derives a canonical tree from an edited canvas graph.
//
// A node whose parent did not change keeps its previous place among its
// siblings; nodes new to a parent group follow them; canvas order breaks ties.
// Sibling order is then renumbered 0..n-1 per group. Depth is always derived.
//
// A graph that leaves out the main node while other nodes exist would delete
// it; that is refused with a RootProtectedError and prev is kept.
func (s *Synchronizer) Reconcile(prev *tree.Tree, graph model.CanvasGraph) (*tree.Tree, error) {
	if main, ok := prev.MainRoot(); ok && prev.Len() > 1 && !hasCanvasNode(graph.Nodes, main.ID) {
		protectedDeletes.Inc()
		return nil, RootProtectedError{NodeID: main.ID, Others: prev.Len() - 1}
	}
	parents := s.deriveParents(graph.Nodes, graph.Edges)

	items := make([]item, 0, len(graph.Nodes))
	seen := make(map[string]bool, len(graph.Nodes))
	for _, cn := range graph.Nodes {
		id := cn.ID
		if _, ok := parents[id]; !ok || seen[id] {
			continue
		}
		seen[id] = true
		rank := math.Inf(1)
		if old, ok := prev.Get(id); ok && old.Parent() == parents[id] {
			rank = float64(old.SiblingOrder)
		}
		items = append(items, item{id: id, content: cn.Content, rank: rank})
	}
	return s.build(items, parents)
}

func hasCanvasNode(nodes []model.CanvasNode, id string) bool {
	for _, n := range nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

type item struct {
	id      string
	content string
	rank    float64
}

func (s *Synchronizer) derive(items []item, edges []model.CanvasEdge) (*tree.Tree, error) {
	cn := make([]model.CanvasNode, 0, len(items))
	for _, it := range items {
		cn = append(cn, model.CanvasNode{ID: it.id})
	}
	parents := s.deriveParents(cn, edges)

	kept := make([]item, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if _, ok := parents[it.id]; !ok || seen[it.id] {
			continue
		}
		seen[it.id] = true
		kept = append(kept, it)
	}
	return s.build(kept, parents)
}

// deriveParents maps each usable node id to its parent id ("" for root-level).
//
// Repairs, in edge order: edges touching unknown nodes are dropped, self edges
// are dropped, a second incoming edge is dropped, and an edge that would close
// a cycle is dropped. Every node therefore reaches a root-level node.
func (s *Synchronizer) deriveParents(nodes []model.CanvasNode, edges []model.CanvasEdge) map[string]string {
	parents := make(map[string]string, len(nodes))
	for _, n := range nodes {
		id := n.ID
		if id == "" {
			s.repair(repairEmptyID, "")
			continue
		}
		if _, dup := parents[id]; dup {
			s.repair(repairDuplicateNode, id)
			continue
		}
		parents[id] = ""
	}

	for _, e := range edges {
		src, dst := e.Source, e.Target
		_, srcOK := parents[src]
		_, dstOK := parents[dst]
		switch {
		case !srcOK || !dstOK:
			s.repair(repairDanglingEdge, src+"->"+dst)
			continue
		case src == dst:
			s.repair(repairSelfEdge, src)
			continue
		case parents[dst] != "":
			s.repair(repairExtraParent, src+"->"+dst)
			continue
		case reaches(parents, src, dst):
			s.repair(repairCycleEdge, src+"->"+dst)
			continue
		}
		parents[dst] = src
	}
	return parents
}

// reaches reports whether walking up from id arrives at target. The parent
// map is acyclic by construction, so the walk terminates; the step bound
// guards it anyway.
func reaches(parents map[string]string, id, target string) bool {
	for steps := 0; id != "" && steps <= len(parents); steps++ {
		if id == target {
			return true
		}
		id = parents[id]
	}
	return false
}

func (s *Synchronizer) repair(kind, subject string) {
	reconcileRepairs.WithLabelValues(kind).Inc()
	s.log.Debug("structural repair", "kind", kind, "subject", subject)
}

func (s *Synchronizer) build(items []item, parents map[string]string) (*tree.Tree, error) {
	type ranked struct {
		item
		pos int
	}
	groups := map[string][]ranked{}
	var order []string
	for i, it := range items {
		p := parents[it.id]
		if _, ok := groups[p]; !ok {
			order = append(order, p)
		}
		groups[p] = append(groups[p], ranked{item: it, pos: i})
	}

	nodes := make([]model.Node, 0, len(items))
	for _, p := range order {
		g := groups[p]
		sort.SliceStable(g, func(a, b int) bool {
			if g[a].rank != g[b].rank {
				return g[a].rank < g[b].rank
			}
			return g[a].pos < g[b].pos
		})
		for i, r := range g {
			n := model.Node{ID: r.id, SiblingOrder: i, Content: r.content}
			if p != "" {
				n.ParentID = tree.StrPtr(p)
			}
			nodes = append(nodes, n)
		}
	}
	return tree.New(nodes)
}
