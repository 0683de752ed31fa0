package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/implanta/internal/db"
	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/alexanderramin/implanta/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupChecklistRepo(t *testing.T) (*SQLChecklistNodeRepo, *domain.Implementation, db.DBTX) {
	t.Helper()
	store := testutil.NewTestDB(t)
	conn := store.Conn()
	impl := testutil.NewTestImplementation("Host")
	require.NoError(t, NewSQLImplementationRepo(conn).Create(context.Background(), impl))
	return NewSQLChecklistNodeRepo(conn), impl, conn
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestChecklistNodeRepo_CreateAndGetByID(t *testing.T) {
	repo, impl, _ := setupChecklistRepo(t)
	ctx := context.Background()

	fase := testutil.NewTestNode(impl.ID, domain.KindFase, "Kickoff")
	require.NoError(t, repo.Create(ctx, fase))
	grupo := testutil.NewTestNode(impl.ID, domain.KindGrupo, "Setup", testutil.WithParent(fase.ID))
	require.NoError(t, repo.Create(ctx, grupo))

	done := time.Date(2025, 1, 2, 10, 30, 0, 123456000, time.UTC)
	task := testutil.NewTestNode(impl.ID, domain.KindTarefa, "Send welcome",
		testutil.WithParent(grupo.ID),
		testutil.WithOrderKey(4),
		testutil.WithDayOffset(3, true),
		testutil.WithDeadline(date(2025, 1, 6)),
		testutil.WithResponsible("ana"),
		testutil.WithTag(domain.TagCliente),
		testutil.WithCompleted(done),
	)
	require.NoError(t, repo.Create(ctx, task))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.KindTarefa, got.Kind)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, grupo.ID, *got.ParentID)
	assert.Equal(t, 4, got.OrderKey)
	require.NotNil(t, got.DayOffset)
	assert.Equal(t, 3, *got.DayOffset)
	assert.True(t, got.BusinessDaysOnly)
	require.NotNil(t, got.Deadline)
	assert.True(t, date(2025, 1, 6).Equal(*got.Deadline))
	require.NotNil(t, got.OriginalDeadline)
	assert.Equal(t, "ana", got.Responsible)
	assert.Equal(t, domain.TagCliente, got.Tag)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletionDate)
	assert.True(t, done.Equal(*got.CompletionDate))
	require.NotNil(t, got.ImplantacaoID)
	assert.Equal(t, impl.ID, *got.ImplantacaoID)
	assert.Nil(t, got.PlanoID)
}

func TestChecklistNodeRepo_CreateAssignsID(t *testing.T) {
	repo, impl, _ := setupChecklistRepo(t)
	n := testutil.NewTestNode(impl.ID, domain.KindFase, "No id")
	n.ID = ""
	require.NoError(t, repo.Create(context.Background(), n))
	assert.NotEmpty(t, n.ID)
}

func TestChecklistNodeRepo_GetByID_NotFound(t *testing.T) {
	repo, _, _ := setupChecklistRepo(t)
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetForUpdate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChecklistNodeRepo_ListChildren_Ordered(t *testing.T) {
	repo, impl, _ := setupChecklistRepo(t)
	ctx := context.Background()

	fase := testutil.NewTestNode(impl.ID, domain.KindFase, "F")
	require.NoError(t, repo.Create(ctx, fase))
	g2 := testutil.NewTestNode(impl.ID, domain.KindGrupo, "G2", testutil.WithParent(fase.ID), testutil.WithOrderKey(2))
	g1 := testutil.NewTestNode(impl.ID, domain.KindGrupo, "G1", testutil.WithParent(fase.ID), testutil.WithOrderKey(1))
	require.NoError(t, repo.Create(ctx, g2))
	require.NoError(t, repo.Create(ctx, g1))

	children, err := repo.ListChildren(ctx, fase.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "G1", children[0].Title)
	assert.Equal(t, "G2", children[1].Title)

	all, err := repo.ListByImplementation(ctx, impl.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestChecklistNodeRepo_ListByTemplate(t *testing.T) {
	repo, impl, conn := setupChecklistRepo(t)
	ctx := context.Background()

	tpl := testutil.NewTestTemplate("Plan")
	require.NoError(t, NewSQLTemplateRepo(conn).Create(ctx, tpl))
	require.NoError(t, repo.Create(ctx, testutil.NewTestPrototype(tpl.ID, domain.KindPlanoFase, "PF")))
	require.NoError(t, repo.Create(ctx, testutil.NewTestNode(impl.ID, domain.KindFase, "F")))

	protos, err := repo.ListByTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, protos, 1)
	assert.Equal(t, domain.KindPlanoFase, protos[0].Kind)
	assert.True(t, protos[0].IsPrototype())
}

func TestChecklistNodeRepo_ListOverdue(t *testing.T) {
	repo, impl, _ := setupChecklistRepo(t)
	ctx := context.Background()

	fase := testutil.NewTestNode(impl.ID, domain.KindFase, "F", testutil.WithDeadline(date(2025, 1, 1)))
	require.NoError(t, repo.Create(ctx, fase))
	grupo := testutil.NewTestNode(impl.ID, domain.KindGrupo, "G", testutil.WithParent(fase.ID))
	require.NoError(t, repo.Create(ctx, grupo))

	late := testutil.NewTestNode(impl.ID, domain.KindTarefa, "late",
		testutil.WithParent(grupo.ID), testutil.WithDeadline(date(2025, 1, 3)))
	later := testutil.NewTestNode(impl.ID, domain.KindTarefa, "later",
		testutil.WithParent(grupo.ID), testutil.WithDeadline(date(2025, 1, 2)))
	dueToday := testutil.NewTestNode(impl.ID, domain.KindTarefa, "today",
		testutil.WithParent(grupo.ID), testutil.WithDeadline(date(2025, 1, 10)))
	done := testutil.NewTestNode(impl.ID, domain.KindTarefa, "done",
		testutil.WithParent(grupo.ID), testutil.WithDeadline(date(2025, 1, 2)), testutil.WithCompleted(date(2025, 1, 2)))
	noDeadline := testutil.NewTestNode(impl.ID, domain.KindTarefa, "open", testutil.WithParent(grupo.ID))
	for _, n := range []*domain.ChecklistNode{late, later, dueToday, done, noDeadline} {
		require.NoError(t, repo.Create(ctx, n))
	}

	overdue, err := repo.ListOverdue(ctx, impl.ID, date(2025, 1, 10))
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	assert.Equal(t, "later", overdue[0].Title)
	assert.Equal(t, "late", overdue[1].Title)
}

func TestChecklistNodeRepo_UpdateAndDelete(t *testing.T) {
	repo, impl, _ := setupChecklistRepo(t)
	ctx := context.Background()

	fase := testutil.NewTestNode(impl.ID, domain.KindFase, "F")
	require.NoError(t, repo.Create(ctx, fase))

	fase.Title = "Renamed"
	fase.Responsible = "bruno"
	fase.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.Update(ctx, fase))

	got, err := repo.GetByID(ctx, fase.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "bruno", got.Responsible)

	require.NoError(t, repo.Delete(ctx, fase.ID))
	_, err = repo.GetByID(ctx, fase.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, fase.ID), ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, fase), ErrNotFound)
}

func TestChecklistNodeRepo_DeleteCascadesComments(t *testing.T) {
	repo, impl, conn := setupChecklistRepo(t)
	ctx := context.Background()
	comments := NewSQLCommentRepo(conn)

	fase := testutil.NewTestNode(impl.ID, domain.KindFase, "F")
	require.NoError(t, repo.Create(ctx, fase))
	require.NoError(t, comments.Create(ctx, &domain.Comment{NodeID: fase.ID, Author: "ana", Body: "hi", CreatedAt: time.Now()}))

	require.NoError(t, repo.Delete(ctx, fase.ID))
	list, err := comments.ListByNode(ctx, fase.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestChecklistNodeRepo_ListByIDPrefix(t *testing.T) {
	repo, impl, _ := setupChecklistRepo(t)
	ctx := context.Background()

	for _, id := range []string{"abc-1", "abc-2", "abd-1"} {
		n := testutil.NewTestNode(impl.ID, domain.KindFase, id)
		n.ID = id
		require.NoError(t, repo.Create(ctx, n))
	}

	got, err := repo.ListByIDPrefix(ctx, "abc", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "abc-1", got[0].ID)

	limited, err := repo.ListByIDPrefix(ctx, "ab", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := repo.ListByIDPrefix(ctx, "zz", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
