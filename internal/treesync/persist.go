package treesync

import (
	"context"
	"time"

	"mindmap-cli/internal/model"
	"mindmap-cli/internal/tree"
)

// Rows flattens t into persisted rows, parents before children.
func Rows(documentID string, t *tree.Tree) []model.NodeRow {
	out := make([]model.NodeRow, 0, t.Len())
	seen := make(map[string]bool, t.Len())
	add := func(n model.Node) {
		if seen[n.ID] {
			return
		}
		seen[n.ID] = true
		out = append(out, model.NodeRow{
			ID:           n.ID,
			DocumentID:   documentID,
			Content:      n.Content,
			ParentNodeID: n.ParentID,
			SiblingOrder: n.SiblingOrder,
			Depth:        n.Depth,
		})
	}
	t.Walk(add)
	// Nodes off every root chain only exist in trees not built by this package.
	for _, n := range t.Nodes() {
		add(n)
	}
	return out
}

// Persist replaces every stored row of the document with the rows of t in one
// transaction. On failure nothing is written and t remains the source of
// truth; the next Persist retries the full state.
func (s *Synchronizer) Persist(ctx context.Context, documentID string, t *tree.Tree) error {
	rows := Rows(documentID, t)
	start := time.Now()
	err := s.store.ReplaceNodes(ctx, documentID, rows)
	elapsed := time.Since(start)

	if err != nil {
		persistDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		persistFailures.Inc()
		s.log.Error("persist failed", "document", documentID, "nodes", len(rows), "duration", elapsed, "error", err)
		return PersistError{DocumentID: documentID, Err: err}
	}
	persistDuration.WithLabelValues("ok").Observe(elapsed.Seconds())
	persistNodes.Observe(float64(len(rows)))
	s.log.Info("persisted document", "document", documentID, "nodes", len(rows), "duration", elapsed)
	return nil
}
