package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/alexanderramin/implanta/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggle_ReturnedNodeMatchesStored(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	impl, _ := env.applied(t, onboardingPadrao(), day(2025, 1, 1))
	task := env.nodeByTitle(t, impl.ID, "Enviar contrato")

	res, err := env.checklistSvc.Toggle(ctx, task.ID, true, "ana")
	require.NoError(t, err)

	stored, err := env.nodes.GetByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Node.CompletionDate)
	require.NotNil(t, stored.CompletionDate)
	assert.True(t, res.Node.CompletionDate.Equal(*stored.CompletionDate))
	assert.True(t, res.Node.UpdatedAt.Equal(stored.UpdatedAt))

	events, err := env.history.ListForNode(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, res.Event.OccurredAt.Equal(events[0].OccurredAt))
}

func TestToggle_HistoryAndCompletionDate(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	impl, _ := env.applied(t, onboardingPadrao(), day(2025, 1, 1))
	task := env.nodeByTitle(t, impl.ID, "Reunião inicial")

	res, err := env.checklistSvc.Toggle(ctx, task.ID, true, "ana")
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.NotNil(t, res.Event)
	assert.True(t, res.Node.Completed)
	assert.NotNil(t, res.Node.CompletionDate)

	stored, err := env.nodes.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	require.NotNil(t, stored.CompletionDate)

	_, err = env.checklistSvc.Toggle(ctx, task.ID, false, "bruno")
	require.NoError(t, err)

	stored, err = env.nodes.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, stored.Completed)
	assert.Nil(t, stored.CompletionDate, "reopening clears the completion date")

	events, err := env.checklistSvc.NodeHistory(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventStatusChanged, events[0].Kind)
	assert.Equal(t, "false", events[0].OldValue)
	assert.Equal(t, "true", events[0].NewValue)
	assert.Equal(t, "ana", events[0].Actor)
	assert.Equal(t, "true", events[1].OldValue)
	assert.Equal(t, "false", events[1].NewValue)
	assert.Equal(t, "bruno", events[1].Actor)
	assert.False(t, events[1].OccurredAt.Before(events[0].OccurredAt))
	assert.Equal(t, impl.ID, events[0].ImplantacaoID)
}

func TestToggle_SameValueRecordsNothing(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	impl, _ := env.applied(t, onboardingPadrao(), day(2025, 1, 1))
	task := env.nodeByTitle(t, impl.ID, "Enviar contrato")

	res, err := env.checklistSvc.Toggle(ctx, task.ID, false, "ana")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Nil(t, res.Event)

	events, err := env.checklistSvc.NodeHistory(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestToggle_DoesNotCascade(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	impl, _ := env.applied(t, onboardingPadrao(), day(2025, 1, 1))

	for _, title := range []string{"Reunião inicial", "Enviar contrato"} {
		_, err := env.checklistSvc.Toggle(ctx, env.nodeByTitle(t, impl.ID, title).ID, true, "ana")
		require.NoError(t, err)
	}
	grupo := env.nodeByTitle(t, impl.ID, "Preparação")
	assert.False(t, grupo.Completed, "containers derive completion through progress only")
}

func TestToggle_Rejections(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	impl, _ := env.applied(t, onboardingPadrao(), day(2025, 1, 1))
	grupo := env.nodeByTitle(t, impl.ID, "Preparação")

	_, err := env.checklistSvc.Toggle(ctx, grupo.ID, true, "ana")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.checklistSvc.Toggle(ctx, "missing", true, "ana")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	task := env.nodeByTitle(t, impl.ID, "Reunião inicial")
	_, err = env.checklistSvc.Toggle(ctx, task.ID, true, " ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	tpl := env.importTemplate(t, twoByTwo())
	protos, err := env.nodes.ListByTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	for _, p := range protos {
		if p.IsLeaf() {
			_, err = env.checklistSvc.Toggle(ctx, p.ID, true, "ana")
			assert.ErrorIs(t, err, domain.ErrValidation, "template prototypes are not tracked")
			break
		}
	}
}

func TestToggle_RollsBackWhenHistoryAppendFails(t *testing.T) {
	store := testutil.NewTestDB(t)
	env := newEnvWithStore(t, store, nil)
	impl, _ := env.applied(t, onboardingPadrao(), day(2025, 1, 1))
	task := env.nodeByTitle(t, impl.ID, "Reunião inicial")

	uow := &testutil.FailOnNthExecUoW{Store: store, FailOn: 1, Table: "history_events", Err: errors.New("disk full")}
	failing := newEnvWithStore(t, store, uow)
	_, err := failing.checklistSvc.Toggle(context.Background(), task.ID, true, "ana")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, 1, uow.Attempts())

	stored, err := env.nodes.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.False(t, stored.Completed, "node write must not survive without its event")
}

func TestReassign_RecordsResponsibleChange(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	impl, _ := env.applied(t, onboardingPadrao(), day(2025, 1, 1))
	task := env.nodeByTitle(t, impl.ID, "Reunião inicial")

	res, err := env.checklistSvc.Reassign(ctx, task.ID, "Carla", "ana")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "Carla", res.Node.Responsible)

	res, err = env.checklistSvc.Reassign(ctx, task.ID, "Carla", "ana")
	require.NoError(t, err)
	assert.False(t, res.Changed)

	_, err = env.checklistSvc.Reassign(ctx, task.ID, "Diego", "ana")
	require.NoError(t, err)

	events, err := env.checklistSvc.NodeHistory(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventResponsibleChanged, events[0].Kind)
	assert.Equal(t, "", events[0].OldValue)
	assert.Equal(t, "Carla", events[0].NewValue)
	assert.Equal(t, "Carla", events[1].OldValue)
	assert.Equal(t, "Diego", events[1].NewValue)

	// Containers carry a responsible too.
	fase := env.nodeByTitle(t, impl.ID, "Kickoff")
	_, err = env.checklistSvc.Reassign(ctx, fase.ID, "Elisa", "ana")
	require.NoError(t, err)
}

func TestReschedule_KeepsOriginalDeadline(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	impl, _ := env.applied(t, onboardingPadrao(), day(2025, 1, 1))
	task := env.nodeByTitle(t, impl.ID, "Reunião inicial")

	moved := day(2025, 1, 20)
	res, err := env.checklistSvc.Reschedule(ctx, task.ID, &moved, "ana")
	require.NoError(t, err)
	require.True(t, res.Changed)

	stored, err := env.nodes.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-20", stored.Deadline.Format("2006-01-02"))
	assert.Equal(t, "2025-01-04", stored.OriginalDeadline.Format("2006-01-02"))
	require.NotNil(t, stored.DayOffset)
	assert.Equal(t, 3, *stored.DayOffset, "offset is not re-evaluated")

	sameDay := time.Date(2025, 1, 20, 17, 30, 0, 0, time.UTC)
	res, err = env.checklistSvc.Reschedule(ctx, task.ID, &sameDay, "ana")
	require.NoError(t, err)
	assert.False(t, res.Changed, "time of day is ignored")

	res, err = env.checklistSvc.Reschedule(ctx, task.ID, nil, "ana")
	require.NoError(t, err)
	assert.True(t, res.Changed)

	events, err := env.checklistSvc.NodeHistory(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventDeadlineChanged, events[0].Kind)
	assert.Equal(t, "2025-01-04", events[0].OldValue)
	assert.Equal(t, "2025-01-20", events[0].NewValue)
	assert.Equal(t, "2025-01-20", events[1].OldValue)
	assert.Equal(t, "", events[1].NewValue)

	stored, err = env.nodes.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Deadline)
	assert.NotNil(t, stored.OriginalDeadline)
}

func TestDelete_CascadesAndKeepsHistory(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	impl, res := env.applied(t, twoByTwo(), day(2025, 1, 1))
	require.Len(t, res.RootIDs, 1)
	faseID := res.RootIDs[0]

	leaf := env.nodeByTitle(t, impl.ID, "G1 / A")
	_, err := env.checklistSvc.Toggle(ctx, leaf.ID, true, "ana")
	require.NoError(t, err)
	comment, err := env.checklistSvc.AddComment(ctx, leaf.ID, "ana", "cliente confirmou")
	require.NoError(t, err)

	del, err := env.checklistSvc.Delete(ctx, faseID, "ana")
	require.NoError(t, err)
	assert.Len(t, del.RemovedIDs, 7)
	assert.Equal(t, faseID, del.RemovedIDs[len(del.RemovedIDs)-1], "children are removed before their parent")

	nodes, err := env.nodes.ListByImplementation(ctx, impl.ID)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	_, err = env.comments.GetByID(ctx, comment.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "comments go with their node")

	events, err := env.checklistSvc.NodeHistory(ctx, leaf.ID)
	require.NoError(t, err)
	kinds := make([]domain.EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []domain.EventKind{domain.EventStatusChanged, domain.EventCommentAdded, domain.EventNodeDeleted}, kinds)
	assert.Equal(t, "G1 / A", events[2].OldValue)

	all, err := env.checklistSvc.ImplementationHistory(ctx, impl.ID)
	require.NoError(t, err)
	var deleted int
	for _, e := range all {
		if e.Kind == domain.EventNodeDeleted {
			deleted++
		}
	}
	assert.Equal(t, 7, deleted)
}

func TestDelete_SubtreeOnly(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	impl, _ := env.applied(t, twoByTwo(), day(2025, 1, 1))
	g1 := env.nodeByTitle(t, impl.ID, "G1")

	del, err := env.checklistSvc.Delete(ctx, g1.ID, "ana")
	require.NoError(t, err)
	assert.Len(t, del.RemovedIDs, 3)

	f, err := env.checklistSvc.Forest(ctx, impl.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, f.Len())
	assert.NoError(t, f.Validate())

	_, err = env.checklistSvc.Delete(ctx, g1.ID, "ana")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestComments_AddDeleteRecordEvents(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	impl, _ := env.applied(t, onboardingPadrao(), day(2025, 1, 1))
	task := env.nodeByTitle(t, impl.ID, "Enviar contrato")

	_, err := env.checklistSvc.AddComment(ctx, task.ID, "ana", "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	c1, err := env.checklistSvc.AddComment(ctx, task.ID, "ana", "enviado por email")
	require.NoError(t, err)
	_, err = env.checklistSvc.AddComment(ctx, task.ID, "bruno", "aguardando assinatura")
	require.NoError(t, err)

	list, err := env.checklistSvc.Comments(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "enviado por email", list[0].Body)

	require.NoError(t, env.checklistSvc.DeleteComment(ctx, c1.ID, "ana"))
	assert.ErrorIs(t, env.checklistSvc.DeleteComment(ctx, c1.ID, "ana"), domain.ErrNotFound)

	list, err = env.checklistSvc.Comments(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	events, err := env.checklistSvc.NodeHistory(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventCommentAdded, events[0].Kind)
	assert.Equal(t, "enviado por email", events[0].NewValue)
	assert.Equal(t, domain.EventCommentDeleted, events[2].Kind)
	assert.Equal(t, "enviado por email", events[2].OldValue)
}

func TestOverdue(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	impl, _ := env.applied(t, onboardingPadrao(), day(2025, 1, 1))

	overdue, err := env.checklistSvc.Overdue(ctx, impl.ID, day(2025, 1, 4))
	require.NoError(t, err)
	assert.Empty(t, overdue, "a deadline equal to today is not overdue")

	overdue, err = env.checklistSvc.Overdue(ctx, impl.ID, time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "Reunião inicial", overdue[0].Title)

	_, err = env.checklistSvc.Toggle(ctx, overdue[0].ID, true, "ana")
	require.NoError(t, err)

	overdue, err = env.checklistSvc.Overdue(ctx, impl.ID, day(2025, 2, 1))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "Enviar contrato", overdue[0].Title)

	_, err = env.checklistSvc.Overdue(ctx, "missing", day(2025, 2, 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistory_UnknownNodeIsEmpty(t *testing.T) {
	env := newEnv(t)
	events, err := env.checklistSvc.NodeHistory(context.Background(), "never-existed")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestResolveNode_FullIDAndPrefix(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	impl, _ := env.applied(t, onboardingPadrao(), day(2025, 1, 1))
	task := env.nodeByTitle(t, impl.ID, "Enviar contrato")

	got, err := env.checklistSvc.ResolveNode(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	got, err = env.checklistSvc.ResolveNode(ctx, "  "+task.ID[:8]+" ")
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
}

func TestResolveNode_Rejections(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	impl := env.createImpl(t, "Host", day(2025, 1, 1))
	for _, id := range []string{"beef-0001", "beef-0002"} {
		n := testutil.NewTestNode(impl.ID, domain.KindFase, id)
		n.ID = id
		require.NoError(t, env.nodes.Create(ctx, n))
	}

	_, err := env.checklistSvc.ResolveNode(ctx, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.checklistSvc.ResolveNode(ctx, "beef")
	assert.ErrorIs(t, err, domain.ErrValidation, "ambiguous prefix")

	_, err = env.checklistSvc.ResolveNode(ctx, "bee")
	assert.ErrorIs(t, err, domain.ErrNotFound, "too short to search")

	_, err = env.checklistSvc.ResolveNode(ctx, "dead")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := env.checklistSvc.ResolveNode(ctx, "beef-0002")
	require.NoError(t, err)
	assert.Equal(t, "beef-0002", got.ID)
}

func TestFlip_AlternatesAndRejectsContainers(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	impl, _ := env.applied(t, onboardingPadrao(), day(2025, 1, 1))
	task := env.nodeByTitle(t, impl.ID, "Reunião inicial")

	res, err := env.checklistSvc.Flip(ctx, task.ID, "ana")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Node.Completed)

	res, err = env.checklistSvc.Flip(ctx, task.ID, "ana")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Node.Completed)
	assert.Nil(t, res.Node.CompletionDate)

	_, err = env.checklistSvc.Flip(ctx, env.nodeByTitle(t, impl.ID, "Kickoff").ID, "ana")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFlip_ConcurrentFlipsEachRecordAChange(t *testing.T) {
	store := testutil.NewTestFileDB(t)
	env := newEnvWithStore(t, store, nil)
	ctx := context.Background()
	impl, _ := env.applied(t, onboardingPadrao(), day(2025, 1, 1))
	task := env.nodeByTitle(t, impl.ID, "Enviar contrato")

	const flips = 6
	var wg sync.WaitGroup
	errs := make([]error, flips)
	for i := 0; i < flips; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := env.checklistSvc.Flip(ctx, task.ID, "ana")
			if err == nil && !res.Changed {
				err = errors.New("flip recorded no change")
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	events, err := env.history.ListForNode(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, events, flips)

	stored, err := env.nodes.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, stored.Completed, "an even number of flips ends where it started")
}
