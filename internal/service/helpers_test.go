package service

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/implanta/internal/db"
	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/alexanderramin/implanta/internal/planfile"
	"github.com/alexanderramin/implanta/internal/repository"
	"github.com/alexanderramin/implanta/internal/testutil"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store     *db.Store
	nodes     *repository.SQLChecklistNodeRepo
	history   *repository.SQLHistoryRepo
	comments  *repository.SQLCommentRepo
	templates *repository.SQLTemplateRepo
	impls     *repository.SQLImplementationRepo

	implSvc      ImplementationService
	planSvc      PlanService
	checklistSvc ChecklistService
	progressSvc  ProgressService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	return newEnvWithStore(t, testutil.NewTestDB(t), nil)
}

// newEnvWithStore wires every service over store. A non-nil uow replaces
// the real unit of work (for failure injection).
func newEnvWithStore(t *testing.T, store *db.Store, uow db.UnitOfWork) *testEnv {
	t.Helper()
	if uow == nil {
		uow = testutil.NewTestUoW(store)
	}
	conn := store.Conn()
	e := &testEnv{
		store:     store,
		nodes:     repository.NewSQLChecklistNodeRepo(conn),
		history:   repository.NewSQLHistoryRepo(conn),
		comments:  repository.NewSQLCommentRepo(conn),
		templates: repository.NewSQLTemplateRepo(conn),
		impls:     repository.NewSQLImplementationRepo(conn),
	}
	e.implSvc = NewImplementationService(e.impls)
	e.planSvc = NewPlanService(e.templates, e.nodes, uow)
	e.checklistSvc = NewChecklistService(e.nodes, e.history, e.comments, e.impls, uow)
	e.progressSvc = NewProgressService(e.nodes, e.impls)
	return e
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func (e *testEnv) createImpl(t *testing.T, name string, start time.Time) *domain.Implementation {
	t.Helper()
	impl, err := e.implSvc.Create(context.Background(), CreateImplementationInput{Name: name, Customer: "ACME", StartDate: start})
	require.NoError(t, err)
	return impl
}

// onboardingPadrao is one fase > one grupo > two tarefas with calendar
// offsets 3 and 10.
func onboardingPadrao() *planfile.Definition {
	return &planfile.Definition{
		Name:         "Onboarding Padrão",
		DurationDays: 30,
		Nodes: []planfile.NodeDef{{
			Kind:  "fase",
			Title: "Kickoff",
			Children: []planfile.NodeDef{{
				Kind:  "grupo",
				Title: "Preparação",
				Children: []planfile.NodeDef{
					{Kind: "tarefa", Title: "Reunião inicial", DayOffset: intPtr(3), Tag: "Reunião"},
					{Kind: "tarefa", Title: "Enviar contrato", DayOffset: intPtr(10)},
				},
			}},
		}},
	}
}

// twoByTwo is one fase with two grupos of two tarefas each: seven nodes.
func twoByTwo() *planfile.Definition {
	grupo := func(title string) planfile.NodeDef {
		return planfile.NodeDef{Kind: "grupo", Title: title, Children: []planfile.NodeDef{
			{Kind: "tarefa", Title: title + " / A", DayOffset: intPtr(1)},
			{Kind: "tarefa", Title: title + " / B", DayOffset: intPtr(2)},
		}}
	}
	return &planfile.Definition{
		Name:  "Dois por dois",
		Nodes: []planfile.NodeDef{{Kind: "fase", Title: "Fase", Children: []planfile.NodeDef{grupo("G1"), grupo("G2")}}},
	}
}

func (e *testEnv) importTemplate(t *testing.T, def *planfile.Definition) *domain.PlanTemplate {
	t.Helper()
	res, err := e.planSvc.ImportTemplate(context.Background(), def, "author")
	require.NoError(t, err)
	return res.Template
}

// applied imports def, creates an implementation starting at start and
// applies the template to it.
func (e *testEnv) applied(t *testing.T, def *planfile.Definition, start time.Time) (*domain.Implementation, *ApplyResult) {
	t.Helper()
	tpl := e.importTemplate(t, def)
	impl := e.createImpl(t, "Cliente "+def.Name, start)
	res, err := e.planSvc.Apply(context.Background(), ApplyInput{TemplateID: tpl.ID, ImplantacaoID: impl.ID, Actor: "cs"})
	require.NoError(t, err)
	return impl, res
}

// leafByTitle finds a live node of impl by title.
func (e *testEnv) nodeByTitle(t *testing.T, implID, title string) *domain.ChecklistNode {
	t.Helper()
	nodes, err := e.nodes.ListByImplementation(context.Background(), implID)
	require.NoError(t, err)
	for _, n := range nodes {
		if n.Title == title {
			return n
		}
	}
	t.Fatalf("node %q not found in implementation %s", title, implID)
	return nil
}
