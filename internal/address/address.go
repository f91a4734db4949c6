// Package address derives path-encoded node addresses ("root", "float-2",
// "root-0-1") from a tree snapshot, and parses them back.
//
// Addresses are recomputed from scratch on every call; nothing is cached
// between calls.
package address

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mindmap-cli/internal/tree"
)

const (
	Root        = "root"
	FloatPrefix = "float-"
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	// ErrContract marks a snapshot the assigner refuses to address: a node
	// whose parent is not in the same snapshot, or one stuck in a parent cycle.
	ErrContract = errors.New("address contract violation")
	ErrNotFound = errors.New("address not found")
)

var addressRe = regexp.MustCompile(`^(root|float-[0-9]+)(-[0-9]+)*$`)

type ContractError struct {
	NodeID   string
	ParentID string
	Reason   string
}

func (e ContractError) Error() string {
	return fmt.Sprintf("cannot address node %s (parent %s): %s", e.NodeID, e.ParentID, e.Reason)
}

func (e ContractError) Unwrap() error { return ErrContract }

// Assign returns an address for every node of t.
//
// The main node is "root"; other root-level nodes are "float-<k>" by position
// among them; every other node extends its parent's address with "-<index>".
func Assign(t *tree.Tree) (map[string]string, error) {
	out := make(map[string]string, t.Len())
	if t.Len() == 0 {
		return out, nil
	}

	type frame struct {
		id   string
		addr string
	}
	var stack []frame
	roots := t.Roots()
	for k := len(roots) - 1; k >= 0; k-- {
		addr := Root
		if k > 0 {
			addr = FloatPrefix + strconv.Itoa(k-1)
		}
		stack = append(stack, frame{id: roots[k].ID, addr: addr})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, dup := out[f.id]; dup {
			continue
		}
		out[f.id] = f.addr
		kids := t.ChildrenOf(f.id)
		for s := len(kids) - 1; s >= 0; s-- {
			stack = append(stack, frame{id: kids[s].ID, addr: f.addr + "-" + strconv.Itoa(s)})
		}
	}

	if len(out) == t.Len() {
		return out, nil
	}
	// Anything left over was not reachable from a root-level node.
	for _, n := range t.Nodes() {
		if _, ok := out[n.ID]; ok {
			continue
		}
		parent := n.Parent()
		if !t.Has(parent) {
			return nil, ContractError{NodeID: n.ID, ParentID: parent, Reason: "parent not in snapshot"}
		}
		return nil, ContractError{NodeID: n.ID, ParentID: parent, Reason: "parent chain never reaches a root-level node"}
	}
	return out, nil
}

// Parsed is the structure of a well-formed address.
type Parsed struct {
	Address string `json:"address"`
	// Base is "root" or "float-<k>".
	Base string `json:"base"`
	// Float is k for "float-<k>" bases, -1 otherwise.
	Float int `json:"float"`
	// Path holds the sibling index of each segment after the base.
	Path []int `json:"path"`
	// Depth is the number of path segments.
	Depth int `json:"depth"`
	// Parent is the address minus its last segment; empty for root-level addresses.
	Parent string `json:"parent,omitempty"`
}

func (p Parsed) IsRootLevel() bool { return len(p.Path) == 0 }

// Valid reports whether s is a well-formed address. Index runs too large
// for an int are not.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func Parse(s string) (Parsed, error) {
	s = strings.TrimSpace(s)
	if !addressRe.MatchString(s) {
		return Parsed{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	p := Parsed{Address: s, Float: -1, Path: []int{}}

	rest := s
	if strings.HasPrefix(s, FloatPrefix) {
		rest = strings.TrimPrefix(s, FloatPrefix)
		head, tail, _ := strings.Cut(rest, "-")
		k, err := strconv.Atoi(head)
		if err != nil {
			return Parsed{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		p.Float = k
		p.Base = FloatPrefix + head
		rest = tail
	} else {
		p.Base = Root
		rest = strings.TrimPrefix(strings.TrimPrefix(s, Root), "-")
	}

	if rest != "" {
		for _, seg := range strings.Split(rest, "-") {
			i, err := strconv.Atoi(seg)
			if err != nil {
				return Parsed{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
			}
			p.Path = append(p.Path, i)
		}
	}
	p.Depth = len(p.Path)
	if p.Depth > 0 {
		p.Parent = s[:strings.LastIndex(s, "-")]
	}
	return p, nil
}

// Resolve walks t along addr and returns the id of the node it names.
func Resolve(t *tree.Tree, addr string) (string, error) {
	p, err := Parse(addr)
	if err != nil {
		return "", err
	}
	roots := t.Roots()
	// Floating nodes follow the main node; compare before adding one so the
	// largest float index cannot wrap.
	if len(roots) == 0 || p.Float >= len(roots)-1 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p.Address)
	}
	k := 0
	if p.Float >= 0 {
		k = p.Float + 1
	}
	id := roots[k].ID
	for _, s := range p.Path {
		kids := t.ChildrenOf(id)
		if s >= len(kids) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, p.Address)
		}
		id = kids[s].ID
	}
	return id, nil
}
