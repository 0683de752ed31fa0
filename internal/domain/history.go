package domain

import "time"

// HistoryEvent is an immutable record of one transition. NodeID is a logical
// reference that survives deletion of the node; it is empty for
// implementation-level entries such as plan_applied.
type HistoryEvent struct {
	ID            string
	NodeID        string
	ImplantacaoID string
	Kind          EventKind
	OldValue      string
	NewValue      string
	Actor         string
	OccurredAt    time.Time
}

// Comment is a free-text note attached to a node. Comments are removed with
// their node.
type Comment struct {
	ID        string
	NodeID    string
	Author    string
	Body      string
	CreatedAt time.Time
}
