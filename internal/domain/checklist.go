package domain

import (
	"fmt"
	"time"
)

// ChecklistNode is one node of a checklist forest. A node belongs either to a
// plan template (PlanoID set) or to a live implementation (ImplantacaoID set),
// never both.
type ChecklistNode struct {
	ID               string
	ParentID         *string
	Kind             NodeKind
	OrderKey         int
	Title            string
	Description      string
	Completed        bool
	CompletionDate   *time.Time
	Tag              Tag
	Responsible      string
	DayOffset        *int
	BusinessDaysOnly bool
	OriginalDeadline *time.Time
	Deadline         *time.Time
	ImplantacaoID    *string
	PlanoID          *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OwnerID returns the id of the owning template or implementation.
func (n *ChecklistNode) OwnerID() string {
	if n.ImplantacaoID != nil {
		return *n.ImplantacaoID
	}
	if n.PlanoID != nil {
		return *n.PlanoID
	}
	return ""
}

// IsPrototype reports whether the node is part of a template.
func (n *ChecklistNode) IsPrototype() bool { return n.PlanoID != nil }

// IsLeaf reports whether the node counts toward progress.
func (n *ChecklistNode) IsLeaf() bool { return n.Kind.IsLeaf() }

// ValidateOwnership enforces the plano_id/implantacao_id exclusivity and that
// the kind matches the side of the forest the node lives on.
func (n *ChecklistNode) ValidateOwnership() error {
	hasImpl := n.ImplantacaoID != nil && *n.ImplantacaoID != ""
	hasPlan := n.PlanoID != nil && *n.PlanoID != ""
	switch {
	case hasImpl && hasPlan:
		return NewValidationError("owner", "node cannot belong to both a template and an implementation")
	case !hasImpl && !hasPlan:
		return NewValidationError("owner", "node must belong to a template or an implementation")
	}
	if !n.Kind.Valid() {
		return NewValidationError("kind", fmt.Sprintf("unknown node kind %q", n.Kind))
	}
	if hasPlan && !n.Kind.IsTemplate() {
		return NewValidationError("kind", fmt.Sprintf("template node cannot have live kind %q", n.Kind))
	}
	if hasImpl && n.Kind.IsTemplate() {
		return NewValidationError("kind", fmt.Sprintf("implementation node cannot have template kind %q", n.Kind))
	}
	return nil
}

// ValidateParent checks that parent may hold n: same owner and the kind
// nesting rule. A nil parent means n is a root, which only fase kinds may be.
func (n *ChecklistNode) ValidateParent(parent *ChecklistNode) error {
	if parent == nil {
		if n.Kind.Level() != 0 {
			return NewValidationError("parent_id", fmt.Sprintf("%s cannot be a root node", n.Kind))
		}
		return nil
	}
	if parent.OwnerID() != n.OwnerID() || parent.IsPrototype() != n.IsPrototype() {
		return NewValidationError("parent_id", "parent belongs to a different tree")
	}
	if !parent.Kind.CanParent(n.Kind) {
		return NewValidationError("kind", fmt.Sprintf("%s cannot be nested under %s", n.Kind, parent.Kind))
	}
	return nil
}

// SetCompleted applies a completion transition and keeps CompletionDate in
// step with the flag. Containers reject the call.
func (n *ChecklistNode) SetCompleted(completed bool, at time.Time) error {
	if !n.IsLeaf() {
		return NewValidationError("completed", fmt.Sprintf("%s nodes do not carry completion state", n.Kind))
	}
	n.Completed = completed
	if completed {
		t := at
		n.CompletionDate = &t
	} else {
		n.CompletionDate = nil
	}
	n.UpdatedAt = at
	return nil
}
