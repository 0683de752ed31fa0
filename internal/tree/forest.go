// Package tree indexes a flat list of checklist nodes into an arena keyed by
// id, with children kept in (order_key, id) order.
package tree

import (
	"fmt"
	"sort"

	"github.com/alexanderramin/implanta/internal/domain"
)

// Forest is an arena over the nodes of one owner (template or implementation).
type Forest struct {
	nodes    map[string]*domain.ChecklistNode
	children map[string][]string
	roots    []string
}

// Build indexes nodes. A node whose parent is not in the slice is treated as a
// root, which lets callers build a Forest over any loaded subtree.
func Build(nodes []*domain.ChecklistNode) *Forest {
	f := &Forest{
		nodes:    make(map[string]*domain.ChecklistNode, len(nodes)),
		children: make(map[string][]string),
	}
	for _, n := range nodes {
		f.nodes[n.ID] = n
	}
	for _, n := range nodes {
		if n.ParentID != nil {
			if _, ok := f.nodes[*n.ParentID]; ok {
				f.children[*n.ParentID] = append(f.children[*n.ParentID], n.ID)
				continue
			}
		}
		f.roots = append(f.roots, n.ID)
	}
	for id := range f.children {
		f.sortIDs(f.children[id])
	}
	f.sortIDs(f.roots)
	return f
}

func (f *Forest) sortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := f.nodes[ids[i]], f.nodes[ids[j]]
		if a.OrderKey != b.OrderKey {
			return a.OrderKey < b.OrderKey
		}
		return a.ID < b.ID
	})
}

// Len returns the number of indexed nodes.
func (f *Forest) Len() int { return len(f.nodes) }

// Node returns the node with id, or nil.
func (f *Forest) Node(id string) *domain.ChecklistNode { return f.nodes[id] }

// Roots returns the root nodes in sibling order.
func (f *Forest) Roots() []*domain.ChecklistNode { return f.lookup(f.roots) }

// Children returns the direct children of id in sibling order.
func (f *Forest) Children(id string) []*domain.ChecklistNode { return f.lookup(f.children[id]) }

func (f *Forest) lookup(ids []string) []*domain.ChecklistNode {
	out := make([]*domain.ChecklistNode, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.nodes[id])
	}
	return out
}

// VisitFunc is called for each node with its depth below the walk's start.
type VisitFunc func(n *domain.ChecklistNode, depth int) error

// Walk visits every root subtree depth-first in pre-order.
func (f *Forest) Walk(fn VisitFunc) error {
	for _, id := range f.roots {
		if err := f.walk(id, 0, fn, map[string]bool{}); err != nil {
			return err
		}
	}
	return nil
}

// WalkFrom visits the subtree rooted at id depth-first in pre-order.
func (f *Forest) WalkFrom(id string, fn VisitFunc) error {
	if _, ok := f.nodes[id]; !ok {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return f.walk(id, 0, fn, map[string]bool{})
}

func (f *Forest) walk(id string, depth int, fn VisitFunc, seen map[string]bool) error {
	if seen[id] {
		return fmt.Errorf("cycle detected at node %s", id)
	}
	seen[id] = true
	if err := fn(f.nodes[id], depth); err != nil {
		return err
	}
	for _, child := range f.children[id] {
		if err := f.walk(child, depth+1, fn, seen); err != nil {
			return err
		}
	}
	return nil
}

// Subtree returns id and all its descendants in post-order (children before
// parents), the order in which they can be removed without orphaning rows.
func (f *Forest) Subtree(id string) ([]*domain.ChecklistNode, error) {
	if _, ok := f.nodes[id]; !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	var out []*domain.ChecklistNode
	var visit func(string)
	visit = func(cur string) {
		for _, child := range f.children[cur] {
			visit(child)
		}
		out = append(out, f.nodes[cur])
	}
	visit(id)
	return out, nil
}

// Path returns the chain of ancestors from the root down to id, inclusive.
func (f *Forest) Path(id string) []*domain.ChecklistNode {
	var chain []*domain.ChecklistNode
	seen := map[string]bool{}
	for cur := f.nodes[id]; cur != nil && !seen[cur.ID]; {
		seen[cur.ID] = true
		chain = append([]*domain.ChecklistNode{cur}, chain...)
		if cur.ParentID == nil {
			break
		}
		cur = f.nodes[*cur.ParentID]
	}
	return chain
}

// Validate checks every node against the ownership and nesting invariants.
func (f *Forest) Validate() error {
	for _, n := range f.nodes {
		if err := n.ValidateOwnership(); err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
		var parent *domain.ChecklistNode
		if n.ParentID != nil {
			parent = f.nodes[*n.ParentID]
			if parent == nil {
				return fmt.Errorf("node %s: %w", n.ID,
					domain.NewValidationError("parent_id", "parent is not part of the same tree"))
			}
		}
		if err := n.ValidateParent(parent); err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	return nil
}
