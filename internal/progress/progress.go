// Package progress computes weighted completion over a checklist forest. It is
// recomputed from node state on every query; there is no stored running total.
package progress

import (
	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/alexanderramin/implanta/internal/tree"
)

// Progress is the (numerator, denominator) pair of a subtree plus its
// rounded percentage.
type Progress struct {
	Done    int
	Total   int
	Percent int
}

// Empty reports whether the subtree has no leaves. Empty subtrees are
// weightless in their parent's aggregation.
func (p Progress) Empty() bool { return p.Total == 0 }

// Add combines two pairs and recomputes the percentage.
func (p Progress) Add(o Progress) Progress {
	return New(p.Done+o.Done, p.Total+o.Total)
}

// New builds a Progress from counts.
func New(done, total int) Progress {
	return Progress{Done: done, Total: total, Percent: Percent(done, total)}
}

// Percent returns 100*done/total rounded half up, or 0 when total is 0.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*done + total) / (2 * total)
}

// Subtree aggregates the subtree rooted at rootID. Every leaf-kind node adds
// one unit to the denominator and one to the numerator when completed.
// Containers add only what their children add.
func Subtree(f *tree.Forest, rootID string) (Progress, error) {
	var done, total int
	err := f.WalkFrom(rootID, func(n *domain.ChecklistNode, _ int) error {
		if !n.IsLeaf() {
			return nil
		}
		total++
		if n.Completed {
			done++
		}
		return nil
	})
	if err != nil {
		return Progress{}, err
	}
	return New(done, total), nil
}

// RootProgress is the progress of one top-level node.
type RootProgress struct {
	Node     *domain.ChecklistNode
	Progress Progress
}

// Report is the progress of a whole forest.
type Report struct {
	Overall Progress
	Roots   []RootProgress
}

// Forest aggregates every root subtree and their total.
func Forest(f *tree.Forest) (Report, error) {
	var r Report
	for _, root := range f.Roots() {
		p, err := Subtree(f, root.ID)
		if err != nil {
			return Report{}, err
		}
		r.Roots = append(r.Roots, RootProgress{Node: root, Progress: p})
		r.Overall = r.Overall.Add(p)
	}
	return r, nil
}
