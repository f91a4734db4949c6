package treesync

import (
	"mindmap-cli/internal/address"
	"mindmap-cli/internal/layout"
	"mindmap-cli/internal/model"
	"mindmap-cli/internal/tree"
)

// View is everything a rendering surface needs for one tree snapshot.
type View struct {
	Graph     model.CanvasGraph `json:"graph" yaml:"graph"`
	Addresses map[string]string `json:"addresses" yaml:"addresses"`
	Layout    layout.Result     `json:"-" yaml:"-"`
}

// AddressOf returns the address of id, or "".
func (v View) AddressOf(id string) string { return v.Addresses[id] }

// View lays t out and addresses every node. Nodes are listed in pre-order.
func (s *Synchronizer) View(t *tree.Tree) (View, error) {
	addrs, err := address.Assign(t)
	if err != nil {
		return View{}, err
	}
	res := layout.Compute(t, s.layout)

	v := View{
		Graph: model.CanvasGraph{
			Nodes: make([]model.CanvasNode, 0, t.Len()),
			Edges: res.Edges,
		},
		Addresses: addrs,
		Layout:    res,
	}
	if v.Graph.Edges == nil {
		v.Graph.Edges = []model.CanvasEdge{}
	}
	t.Walk(func(n model.Node) {
		v.Graph.Nodes = append(v.Graph.Nodes, model.CanvasNode{
			ID:       n.ID,
			Position: res.Positions[n.ID],
			Content:  n.Content,
			Address:  addrs[n.ID],
		})
	})
	return v, nil
}
