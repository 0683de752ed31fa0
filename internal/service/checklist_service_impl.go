package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/implanta/internal/db"
	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/alexanderramin/implanta/internal/repository"
	"github.com/alexanderramin/implanta/internal/tree"
)

type checklistService struct {
	nodes    repository.ChecklistNodeRepo
	history  repository.HistoryRepo
	comments repository.CommentRepo
	impls    repository.ImplementationRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewChecklistService(
	nodes repository.ChecklistNodeRepo,
	history repository.HistoryRepo,
	comments repository.CommentRepo,
	impls repository.ImplementationRepo,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) ChecklistService {
	return &checklistService{
		nodes:    nodes,
		history:  history,
		comments: comments,
		impls:    impls,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

// fieldChange reads the lock-held node, lets apply mutate it and, when apply
// reports a change, writes the node and its history event in the same tx.
func (s *checklistService) fieldChange(
	ctx context.Context,
	nodeID, actor string,
	kind domain.EventKind,
	apply func(n *domain.ChecklistNode, now time.Time) (oldValue, newValue string, changed bool, err error),
) (*MutationResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	result := &MutationResult{}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txNodes := repository.NewSQLChecklistNodeRepo(tx)
		txHistory := repository.NewSQLHistoryRepo(tx)

		n, err := txNodes.GetForUpdate(ctx, nodeID)
		if err != nil {
			return err
		}
		if err := requireLive(n); err != nil {
			return err
		}
		result.Node = n

		now := storedNow()
		oldValue, newValue, changed, err := apply(n, now)
		if err != nil || !changed {
			return err
		}
		n.UpdatedAt = now
		if err := txNodes.Update(ctx, n); err != nil {
			return err
		}
		event := &domain.HistoryEvent{
			NodeID:        n.ID,
			ImplantacaoID: *n.ImplantacaoID,
			Kind:          kind,
			OldValue:      oldValue,
			NewValue:      newValue,
			Actor:         actor,
			OccurredAt:    now,
		}
		if err := txHistory.Append(ctx, event); err != nil {
			return err
		}
		result.Changed = true
		result.Event = event
		return nil
	})
	if err != nil {
		return nil, domain.ClassifyStoreError(string(kind), err)
	}
	return result, nil
}

// Toggle sets a leaf's completion flag. Parent and child completion are
// independent; nothing cascades.
func (s *checklistService) Toggle(ctx context.Context, nodeID string, completed bool, actor string) (result *MutationResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"node_id": nodeID, "completed": completed, "actor": actor}
	defer func() { observe(ctx, s.observer, "toggle-task", startedAt, fields, &err) }()

	result, err = s.setCompleted(ctx, nodeID, actor, func(*domain.ChecklistNode) bool { return completed })
	if result != nil {
		fields["changed"] = result.Changed
	}
	return result, err
}

// Flip inverts a leaf's completion flag. The current state is read under the
// row lock, so concurrent flips each record a change.
func (s *checklistService) Flip(ctx context.Context, nodeID, actor string) (result *MutationResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"node_id": nodeID, "actor": actor}
	defer func() { observe(ctx, s.observer, "flip-task", startedAt, fields, &err) }()

	result, err = s.setCompleted(ctx, nodeID, actor, func(n *domain.ChecklistNode) bool { return !n.Completed })
	if result != nil {
		fields["completed"] = result.Node.Completed
	}
	return result, err
}

func (s *checklistService) setCompleted(ctx context.Context, nodeID, actor string, target func(*domain.ChecklistNode) bool) (*MutationResult, error) {
	return s.fieldChange(ctx, nodeID, actor, domain.EventStatusChanged,
		func(n *domain.ChecklistNode, now time.Time) (string, string, bool, error) {
			if !n.IsLeaf() {
				return "", "", false, domain.NewValidationError("node_id", string(n.Kind)+" nodes do not carry completion state")
			}
			completed := target(n)
			if n.Completed == completed {
				return "", "", false, nil
			}
			old := strconv.FormatBool(n.Completed)
			if err := n.SetCompleted(completed, now); err != nil {
				return "", "", false, err
			}
			return old, strconv.FormatBool(completed), true, nil
		})
}

func (s *checklistService) Reassign(ctx context.Context, nodeID, responsible, actor string) (result *MutationResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"node_id": nodeID, "actor": actor}
	defer func() { observe(ctx, s.observer, "reassign-task", startedAt, fields, &err) }()

	responsible = strings.TrimSpace(responsible)
	result, err = s.fieldChange(ctx, nodeID, actor, domain.EventResponsibleChanged,
		func(n *domain.ChecklistNode, _ time.Time) (string, string, bool, error) {
			if n.Responsible == responsible {
				return "", "", false, nil
			}
			old := n.Responsible
			n.Responsible = responsible
			return old, responsible, true, nil
		})
	if result != nil {
		fields["changed"] = result.Changed
	}
	return result, err
}

// Reschedule overrides the current deadline. The offset is not re-evaluated
// and original_deadline is kept. A nil deadline clears it.
func (s *checklistService) Reschedule(ctx context.Context, nodeID string, newDeadline *time.Time, actor string) (result *MutationResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"node_id": nodeID, "deadline": formatDate(newDeadline), "actor": actor}
	defer func() { observe(ctx, s.observer, "reschedule-task", startedAt, fields, &err) }()

	var target *time.Time
	if newDeadline != nil {
		d := dateOnly(*newDeadline)
		target = &d
	}
	result, err = s.fieldChange(ctx, nodeID, actor, domain.EventDeadlineChanged,
		func(n *domain.ChecklistNode, _ time.Time) (string, string, bool, error) {
			if sameDate(n.Deadline, target) {
				return "", "", false, nil
			}
			old := formatDate(n.Deadline)
			n.Deadline = target
			return old, formatDate(target), true, nil
		})
	if result != nil {
		fields["changed"] = result.Changed
	}
	return result, err
}

// Delete removes the node and its descendants, children first, recording one
// node_deleted event per removed node. History rows are kept.
func (s *checklistService) Delete(ctx context.Context, nodeID, actor string) (result *DeleteResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"node_id": nodeID, "actor": actor}
	defer func() { observe(ctx, s.observer, "delete-node", startedAt, fields, &err) }()

	if err = requireActor(actor); err != nil {
		return nil, err
	}
	result = &DeleteResult{}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txNodes := repository.NewSQLChecklistNodeRepo(tx)
		txHistory := repository.NewSQLHistoryRepo(tx)

		target, err := txNodes.GetForUpdate(ctx, nodeID)
		if err != nil {
			return err
		}
		if err := requireLive(target); err != nil {
			return err
		}
		implID := *target.ImplantacaoID

		all, err := txNodes.ListByImplementation(ctx, implID)
		if err != nil {
			return err
		}
		doomed, err := tree.Build(all).Subtree(nodeID)
		if err != nil {
			return err
		}

		now := storedNow()
		for _, n := range doomed {
			if err := txNodes.Delete(ctx, n.ID); err != nil {
				return err
			}
			if err := txHistory.Append(ctx, &domain.HistoryEvent{
				NodeID:        n.ID,
				ImplantacaoID: implID,
				Kind:          domain.EventNodeDeleted,
				OldValue:      n.Title,
				Actor:         actor,
				OccurredAt:    now,
			}); err != nil {
				return err
			}
			result.RemovedIDs = append(result.RemovedIDs, n.ID)
		}
		return nil
	})
	if err != nil {
		err = domain.ClassifyStoreError("delete node", err)
		return nil, err
	}
	fields["removed"] = len(result.RemovedIDs)
	return result, nil
}

func (s *checklistService) AddComment(ctx context.Context, nodeID, author, body string) (comment *domain.Comment, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"node_id": nodeID, "actor": author}
	defer func() { observe(ctx, s.observer, "add-comment", startedAt, fields, &err) }()

	if err = requireActor(author); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		err = domain.NewValidationError("body", "is required")
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txNodes := repository.NewSQLChecklistNodeRepo(tx)
		n, err := txNodes.GetByID(ctx, nodeID)
		if err != nil {
			return err
		}
		if err := requireLive(n); err != nil {
			return err
		}
		now := storedNow()
		comment = &domain.Comment{NodeID: n.ID, Author: author, Body: body, CreatedAt: now}
		if err := repository.NewSQLCommentRepo(tx).Create(ctx, comment); err != nil {
			return err
		}
		return repository.NewSQLHistoryRepo(tx).Append(ctx, &domain.HistoryEvent{
			NodeID:        n.ID,
			ImplantacaoID: *n.ImplantacaoID,
			Kind:          domain.EventCommentAdded,
			NewValue:      body,
			Actor:         author,
			OccurredAt:    now,
		})
	})
	if err != nil {
		err = domain.ClassifyStoreError("add comment", err)
		return nil, err
	}
	fields["comment_id"] = comment.ID
	return comment, nil
}

func (s *checklistService) DeleteComment(ctx context.Context, commentID, actor string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"comment_id": commentID, "actor": actor}
	defer func() { observe(ctx, s.observer, "delete-comment", startedAt, fields, &err) }()

	if err = requireActor(actor); err != nil {
		return err
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txComments := repository.NewSQLCommentRepo(tx)
		c, err := txComments.GetByID(ctx, commentID)
		if err != nil {
			return err
		}
		n, err := repository.NewSQLChecklistNodeRepo(tx).GetByID(ctx, c.NodeID)
		if err != nil {
			return err
		}
		if err := txComments.Delete(ctx, c.ID); err != nil {
			return err
		}
		return repository.NewSQLHistoryRepo(tx).Append(ctx, &domain.HistoryEvent{
			NodeID:        n.ID,
			ImplantacaoID: n.OwnerID(),
			Kind:          domain.EventCommentDeleted,
			OldValue:      c.Body,
			Actor:         actor,
			OccurredAt:    storedNow(),
		})
	})
	return domain.ClassifyStoreError("delete comment", err)
}

func (s *checklistService) Comments(ctx context.Context, nodeID string) ([]*domain.Comment, error) {
	if _, err := s.nodes.GetByID(ctx, nodeID); err != nil {
		return nil, domain.ClassifyStoreError("get node", err)
	}
	list, err := s.comments.ListByNode(ctx, nodeID)
	return list, domain.ClassifyStoreError("list comments", err)
}

// minNodePrefix is the shortest id prefix ResolveNode will search for.
const minNodePrefix = 4

func (s *checklistService) ResolveNode(ctx context.Context, ref string) (*domain.ChecklistNode, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.NewValidationError("node_id", "is required")
	}
	n, err := s.nodes.GetByID(ctx, ref)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ClassifyStoreError("get node", err)
	}
	if len(ref) < minNodePrefix || strings.ContainsAny(ref, "%_") {
		return nil, err
	}
	matches, err := s.nodes.ListByIDPrefix(ctx, ref, 2)
	if err != nil {
		return nil, domain.ClassifyStoreError("resolve node", err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("checklist node %q: %w", ref, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, domain.NewValidationError("node_id", fmt.Sprintf("prefix %q matches more than one node", ref))
	}
}

// NodeHistory returns the events recorded for nodeID, oldest first. It keeps
// working after the node is deleted, so an unknown id yields an empty list.
func (s *checklistService) NodeHistory(ctx context.Context, nodeID string) ([]*domain.HistoryEvent, error) {
	events, err := s.history.ListForNode(ctx, nodeID)
	return events, domain.ClassifyStoreError("list node history", err)
}

func (s *checklistService) ImplementationHistory(ctx context.Context, implID string) ([]*domain.HistoryEvent, error) {
	if _, err := s.impls.GetByID(ctx, implID); err != nil {
		return nil, domain.ClassifyStoreError("get implementation", err)
	}
	events, err := s.history.ListForImplementation(ctx, implID)
	return events, domain.ClassifyStoreError("list implementation history", err)
}

func (s *checklistService) Overdue(ctx context.Context, implID string, asOf time.Time) ([]*domain.ChecklistNode, error) {
	if _, err := s.impls.GetByID(ctx, implID); err != nil {
		return nil, domain.ClassifyStoreError("get implementation", err)
	}
	nodes, err := s.nodes.ListOverdue(ctx, implID, dateOnly(asOf))
	return nodes, domain.ClassifyStoreError("list overdue", err)
}

func (s *checklistService) Forest(ctx context.Context, implID string) (*tree.Forest, error) {
	if _, err := s.impls.GetByID(ctx, implID); err != nil {
		return nil, domain.ClassifyStoreError("get implementation", err)
	}
	nodes, err := s.nodes.ListByImplementation(ctx, implID)
	if err != nil {
		return nil, domain.ClassifyStoreError("list implementation nodes", err)
	}
	return tree.Build(nodes), nil
}
