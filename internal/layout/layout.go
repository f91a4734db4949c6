// Package layout places mind map nodes on a 2-D canvas.
//
// Nodes render left to right by depth: x is a fixed step per level, y is
// allocated per subtree in proportion to its leaf count so that sibling
// subtrees never share a vertical band.
package layout

import (
	"mindmap-cli/internal/model"
	"mindmap-cli/internal/tree"
)

type Config struct {
	BaseX float64 `json:"baseX" yaml:"baseX"`
	BaseY float64 `json:"baseY" yaml:"baseY"`

	// LevelSpacing is the horizontal distance between depths.
	LevelSpacing float64 `json:"levelSpacing" yaml:"levelSpacing" validate:"gt=0"`
	// SiblingSpacing is the vertical space granted per unit of subtree weight.
	SiblingSpacing float64 `json:"siblingSpacing" yaml:"siblingSpacing" validate:"gt=0"`
	// MinVerticalSpacing is the smallest band any subtree occupies.
	MinVerticalSpacing float64 `json:"minVerticalSpacing" yaml:"minVerticalSpacing" validate:"gt=0"`
	// RootGap separates the bands of consecutive root-level subtrees.
	RootGap float64 `json:"rootGap" yaml:"rootGap" validate:"gte=0"`
}

func DefaultConfig() Config {
	return Config{
		BaseX:              0,
		BaseY:              0,
		LevelSpacing:       250,
		SiblingSpacing:     80,
		MinVerticalSpacing: 60,
		RootGap:            120,
	}
}

type Result struct {
	Positions map[string]model.Position `json:"positions"`
	Edges     []model.CanvasEdge        `json:"edges"`
}

// EdgeID is the id given to the edge from parent to child.
func EdgeID(parentID, childID string) string {
	return "e-" + parentID + "-" + childID
}

type engine struct {
	cfg    Config
	t      *tree.Tree
	weight map[string]int
	extent map[string]float64
	placed map[string]bool
	out    Result
}

// Compute lays out every node of t. The result depends only on t and cfg.
func Compute(t *tree.Tree, cfg Config) Result {
	e := &engine{
		cfg:    cfg,
		t:      t,
		weight: map[string]int{},
		extent: map[string]float64{},
		placed: map[string]bool{},
		out: Result{
			Positions: map[string]model.Position{},
			Edges:     []model.CanvasEdge{},
		},
	}
	if t.Len() == 0 {
		return e.out
	}

	top := cfg.BaseY
	for _, r := range t.Roots() {
		top = e.placeBand(r.ID, top)
	}

	// Nodes not reachable from a root (broken parent chains) still get a band
	// below everything else.
	for _, n := range t.Nodes() {
		if e.placed[n.ID] {
			continue
		}
		top = e.placeBand(n.ID, top)
	}
	return e.out
}

func (e *engine) placeBand(id string, top float64) float64 {
	ext := e.extentOf(id, map[string]bool{})
	e.place(id, top, map[string]bool{})
	return top + ext + e.cfg.RootGap
}

// Weight is the leaf count of a subtree, at least 1.
func (e *engine) weightOf(id string, visiting map[string]bool) int {
	if w, ok := e.weight[id]; ok {
		return w
	}
	if visiting[id] {
		return 1
	}
	visiting[id] = true
	defer delete(visiting, id)

	w := 0
	for _, ch := range e.t.ChildrenOf(id) {
		w += e.weightOf(ch.ID, visiting)
	}
	if w < 1 {
		w = 1
	}
	e.weight[id] = w
	return w
}

// extentOf is the vertical band a subtree occupies: weight x SiblingSpacing,
// floored at MinVerticalSpacing, and never smaller than the bands of its
// children stacked together.
func (e *engine) extentOf(id string, visiting map[string]bool) float64 {
	if x, ok := e.extent[id]; ok {
		return x
	}
	if visiting[id] {
		return e.cfg.MinVerticalSpacing
	}
	visiting[id] = true
	defer delete(visiting, id)

	ext := float64(e.weightOf(id, map[string]bool{})) * e.cfg.SiblingSpacing
	if ext < e.cfg.MinVerticalSpacing {
		ext = e.cfg.MinVerticalSpacing
	}
	sum := 0.0
	for _, ch := range e.t.ChildrenOf(id) {
		sum += e.extentOf(ch.ID, visiting)
	}
	if sum > ext {
		ext = sum
	}
	e.extent[id] = ext
	return ext
}

func (e *engine) place(id string, top float64, visiting map[string]bool) {
	if e.placed[id] || visiting[id] {
		return
	}
	visiting[id] = true
	e.placed[id] = true

	ext := e.extentOf(id, map[string]bool{})
	e.out.Positions[id] = model.Position{
		X: e.cfg.BaseX + float64(e.t.DepthOf(id))*e.cfg.LevelSpacing,
		Y: top + ext/2,
	}

	kids := e.t.ChildrenOf(id)
	total := 0.0
	for _, ch := range kids {
		total += e.extentOf(ch.ID, map[string]bool{})
	}
	offset := top + (ext-total)/2
	for _, ch := range kids {
		if e.placed[ch.ID] {
			continue
		}
		e.out.Edges = append(e.out.Edges, model.CanvasEdge{
			ID:           EdgeID(id, ch.ID),
			Source:       id,
			Target:       ch.ID,
			SourceHandle: model.HandleRight,
			TargetHandle: model.HandleLeft,
		})
		e.place(ch.ID, offset, visiting)
		offset += e.extentOf(ch.ID, map[string]bool{})
	}
}
