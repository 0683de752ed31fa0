package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/alexanderramin/implanta/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	events []UseCaseEvent
}

func (r *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	r.events = append(r.events, e)
}

func TestLogUseCaseObserver_WritesRecord(t *testing.T) {
	var buf bytes.Buffer
	store := testutil.NewTestDB(t)
	svc := NewPlanService(
		newEnvWithStore(t, store, nil).templates,
		nil,
		testutil.NewTestUoW(store),
		NewLogUseCaseObserver(&buf, slog.LevelInfo),
	)

	_, err := svc.CreateTemplate(context.Background(), CreateTemplateInput{Name: "Logado", Actor: "ana"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "service_use_case")
	assert.Contains(t, out, "use_case=create-template")
	assert.Contains(t, out, "success=true")
	assert.Contains(t, out, "template_id=")
}

func TestLogUseCaseObserver_LevelFiltersSuccess(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogUseCaseObserver(&buf, slog.LevelError)
	env := newEnv(t)
	svc := NewImplementationService(env.impls, obs)

	_, err := svc.Create(context.Background(), CreateImplementationInput{Name: "Ok", StartDate: day(2025, 1, 1)})
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	_, err = svc.Create(context.Background(), CreateImplementationInput{Name: ""})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "success=false")
}

func TestObserve_ReportsFinalError(t *testing.T) {
	rec := &recordingObserver{}
	env := newEnv(t)
	tpl := env.importTemplate(t, onboardingPadrao())
	svc := NewPlanService(env.templates, env.nodes, testutil.NewTestUoW(env.store), rec)

	_, err := svc.Apply(context.Background(), ApplyInput{TemplateID: tpl.ID, ImplantacaoID: "missing", Actor: "cs"})
	require.Error(t, err)
	require.Len(t, rec.events, 1)
	assert.Equal(t, "apply-plan", rec.events[0].Name)
	assert.False(t, rec.events[0].Success)
	assert.ErrorIs(t, rec.events[0].Err, err)

	assert.IsType(t, NoopUseCaseObserver{}, NewLogUseCaseObserver(nil, slog.LevelInfo))
}
