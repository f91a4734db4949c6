package cli

import (
	"errors"
	"strings"

	"mindmap-cli/internal/address"
	"mindmap-cli/internal/model"
	"mindmap-cli/internal/tree"
	"mindmap-cli/internal/treesync"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
)

type nodeJSON struct {
	ID            string   `json:"id"`
	Address       string   `json:"address"`
	Content       string   `json:"content"`
	ParentID      string   `json:"parentId,omitempty"`
	ParentAddress string   `json:"parentAddress,omitempty"`
	Depth         int      `json:"depth"`
	SiblingOrder  int      `json:"siblingOrder"`
	Children      []string `json:"children"`
}

func nodeView(n model.Node, addrs map[string]string, t *tree.Tree) nodeJSON {
	out := nodeJSON{
		ID:           n.ID,
		Address:      addrs[n.ID],
		Content:      n.Content,
		ParentID:     n.Parent(),
		Depth:        n.Depth,
		SiblingOrder: n.SiblingOrder,
		Children:     []string{},
	}
	if out.ParentID != "" {
		out.ParentAddress = addrs[out.ParentID]
	}
	for _, c := range t.ChildrenOf(n.ID) {
		out.Children = append(out.Children, addrs[c.ID])
	}
	return out
}

// resolveNodeRef accepts an address ("root-0-1") or a node id.
func resolveNodeRef(t *tree.Tree, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("missing node (address or id)")
	}
	if address.Valid(ref) {
		return address.Resolve(t, ref)
	}
	if t.Has(ref) {
		return ref, nil
	}
	if strings.HasPrefix(ref, address.Root) || strings.HasPrefix(ref, address.FloatPrefix) {
		// Looks like an address but isn't one: report the parse error.
		if _, err := address.Parse(ref); err != nil {
			return "", err
		}
	}
	return "", treesync.NotFoundError{Kind: "node", ID: ref}
}

func newNodesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Edit the nodes of the current document (by address or id)",
	}
	cmd.AddCommand(newNodesAddCmd(app))
	cmd.AddCommand(newNodesRenameCmd(app))
	cmd.AddCommand(newNodesMoveCmd(app))
	cmd.AddCommand(newNodesRmCmd(app))
	cmd.AddCommand(newNodesShowCmd(app))
	cmd.AddCommand(newNodesTreeCmd(app))
	cmd.AddCommand(newNodesFindCmd(app))
	return cmd
}

func newNodesAddCmd(app *App) *cobra.Command {
	var parent, siblingOf string

	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Add a node (child with --parent, sibling with --sibling-of, else root-level)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if parent != "" && siblingOf != "" {
				return writeErr(cmd, app, errors.New("use either --parent or --sibling-of"))
			}
			_, se, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			t := se.Tree()

			var id string
			switch {
			case parent != "":
				pid, err := resolveNodeRef(t, parent)
				if err != nil {
					return writeErr(cmd, app, err)
				}
				id, err = se.InsertChild(pid, args[0])
				if err != nil {
					return writeErr(cmd, app, err)
				}
			case siblingOf != "":
				sid, err := resolveNodeRef(t, siblingOf)
				if err != nil {
					return writeErr(cmd, app, err)
				}
				id, err = se.InsertSibling(sid, args[0])
				if err != nil {
					return writeErr(cmd, app, err)
				}
			default:
				id, err = se.InsertRoot(args[0])
				if err != nil {
					return writeErr(cmd, app, err)
				}
			}
			if err := se.Save(ctx); err != nil {
				return writeErr(cmd, app, err)
			}
			n, _ := se.Tree().Get(id)
			return writeOut(cmd, app, map[string]any{"data": nodeView(n, se.View().Addresses, se.Tree())})
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "Parent node (address or id)")
	cmd.Flags().StringVar(&siblingOf, "sibling-of", "", "Add after the siblings of this node (address or id)")
	return cmd
}

func newNodesRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <node> <content>",
		Short: "Replace a node's content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, se, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			id, err := resolveNodeRef(se.Tree(), args[0])
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if err := se.Rename(id, args[1]); err != nil {
				return writeErr(cmd, app, err)
			}
			if err := se.Save(ctx); err != nil {
				return writeErr(cmd, app, err)
			}
			n, _ := se.Tree().Get(id)
			return writeOut(cmd, app, map[string]any{"data": nodeView(n, se.View().Addresses, se.Tree())})
		},
	}
}

func newNodesMoveCmd(app *App) *cobra.Command {
	var to string
	var toRoot bool

	cmd := &cobra.Command{
		Use:   "move <node>",
		Short: "Re-parent a node (and its subtree)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if (to == "") == !toRoot {
				return writeErr(cmd, app, errors.New("use exactly one of --to or --root"))
			}
			_, se, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			t := se.Tree()
			id, err := resolveNodeRef(t, args[0])
			if err != nil {
				return writeErr(cmd, app, err)
			}
			newParent := ""
			if !toRoot {
				if newParent, err = resolveNodeRef(t, to); err != nil {
					return writeErr(cmd, app, err)
				}
			}
			if err := se.Move(id, newParent); err != nil {
				return writeErr(cmd, app, err)
			}
			if err := se.Save(ctx); err != nil {
				return writeErr(cmd, app, err)
			}
			n, _ := se.Tree().Get(id)
			return writeOut(cmd, app, map[string]any{"data": nodeView(n, se.View().Addresses, se.Tree())})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "New parent (address or id)")
	cmd.Flags().BoolVar(&toRoot, "root", false, "Move to root level (as a floating node)")
	return cmd
}

func newNodesRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <node>",
		Aliases: []string{"delete"},
		Short:   "Delete a node and its whole subtree",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, se, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			before := se.View().Addresses
			id, err := resolveNodeRef(se.Tree(), args[0])
			if err != nil {
				return writeErr(cmd, app, err)
			}
			d, err := se.DeleteSubtree(id)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if err := se.Save(ctx); err != nil {
				return writeErr(cmd, app, err)
			}
			removed := make([]string, 0, len(d.Removed))
			for _, rid := range d.Removed {
				removed = append(removed, before[rid])
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"removed":          d.Removed,
					"removedAddresses": removed,
					"selection":        d.Selection,
					"selectionAddress": se.View().AddressOf(d.Selection),
				},
			})
		},
	}
}

func newNodesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <node>",
		Short: "Show one node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, se, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			t := se.Tree()
			id, err := resolveNodeRef(t, args[0])
			if err != nil {
				return writeErr(cmd, app, err)
			}
			n, _ := t.Get(id)
			return writeOut(cmd, app, map[string]any{"data": nodeView(n, se.View().Addresses, t)})
		},
	}
}

func newNodesTreeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "List every node in outline order",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, se, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			t := se.Tree()
			addrs := se.View().Addresses
			out := make([]nodeJSON, 0, t.Len())
			t.Walk(func(n model.Node) {
				out = append(out, nodeView(n, addrs, t))
			})
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
}

func newNodesFindCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "find <query>",
		Short: "Fuzzy-search node content (best match first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, se, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			t := se.Tree()
			addrs := se.View().Addresses

			var nodes []model.Node
			t.Walk(func(n model.Node) { nodes = append(nodes, n) })
			contents := make([]string, len(nodes))
			for i, n := range nodes {
				contents[i] = n.Content
			}

			out := []nodeJSON{}
			for _, m := range fuzzy.Find(strings.TrimSpace(args[0]), contents) {
				if limit > 0 && len(out) >= limit {
					break
				}
				out = append(out, nodeView(nodes[m.Index], addrs, t))
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Max matches (0 = all)")
	return cmd
}
