package model

import "time"

type Document struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Node is one content unit of a mind map.
//
// ParentID is nil for root-level nodes. Depth is derived from the ParentID
// chain and is never trusted as input.
type Node struct {
	ID           string  `json:"id" yaml:"id"`
	ParentID     *string `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	SiblingOrder int     `json:"siblingOrder" yaml:"siblingOrder"`
	Depth        int     `json:"depth" yaml:"depth"`
	Content      string  `json:"content" yaml:"content"`
}

// Parent returns the parent id, or "" for root-level nodes.
func (n Node) Parent() string {
	if n.ParentID == nil {
		return ""
	}
	return *n.ParentID
}

// NodeRow is the persisted shape of a node (one row per node).
type NodeRow struct {
	ID           string  `json:"id"`
	DocumentID   string  `json:"documentId"`
	Content      string  `json:"content"`
	ParentNodeID *string `json:"parentNodeId,omitempty"`
	SiblingOrder int     `json:"siblingOrder"`
	Depth        int     `json:"depth"`
}

type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// CanvasNode is a node as the rendering surface sees it. It carries no depth or
// sibling order; both are re-derived from the edge list.
type CanvasNode struct {
	ID       string   `json:"id" yaml:"id"`
	Position Position `json:"position" yaml:"position"`
	Content  string   `json:"content" yaml:"content"`

	// Address is filled in on output only.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
}

// Anchor sides used by edges: parents are exited on the right, children entered on the left.
const (
	HandleRight = "right"
	HandleLeft  = "left"
)

type CanvasEdge struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

type CanvasGraph struct {
	Nodes []CanvasNode `json:"nodes" yaml:"nodes"`
	Edges []CanvasEdge `json:"edges" yaml:"edges"`
}

type Event struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	TS         time.Time `json:"ts"`
	Type       string    `json:"type"`
	Payload    any       `json:"payload"`
}
