package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/alexanderramin/implanta/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liveNode(id string, kind domain.NodeKind, parent string, order int) *domain.ChecklistNode {
	impl := "impl"
	n := &domain.ChecklistNode{ID: id, Kind: kind, Title: "node " + id, OrderKey: order, ImplantacaoID: &impl}
	if parent != "" {
		p := parent
		n.ParentID = &p
	}
	return n
}

func TestChecklistItems_OrderAndDetails(t *testing.T) {
	due := time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)
	t1 := liveNode("t1", domain.KindTarefa, "g1", 0)
	t1.Deadline = &due
	t1.Responsible = "Ana"
	t2 := liveNode("t2", domain.KindTarefa, "g1", 1)
	t2.Completed = true
	now := time.Now()
	t2.CompletionDate = &now

	f := tree.Build([]*domain.ChecklistNode{
		t2, t1,
		liveNode("f1", domain.KindFase, "", 0),
		liveNode("g1", domain.KindGrupo, "f1", 0),
	})

	items := ChecklistItems(f, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, items, 4)
	ids := []string{items[0].ID, items[1].ID, items[2].ID, items[3].ID}
	assert.Equal(t, []string{"f1", "g1", "t1", "t2"}, ids)
	assert.Equal(t, []int{0, 1, 2, 2}, []int{items[0].Level, items[1].Level, items[2].Level, items[3].Level})
	assert.False(t, items[2].IsLast)
	assert.True(t, items[3].IsLast)
	assert.Equal(t, "2025-01-04 em 3d · Ana", items[2].Detail)
	assert.Equal(t, "50%", items[0].Detail)
	assert.True(t, items[3].Completed)
}

func TestRenderTree_Connectors(t *testing.T) {
	out := RenderTree([]TreeItem{
		{Title: "Kickoff", Kind: domain.KindFase, Level: 0, IsLast: true},
		{Title: "Preparação", Kind: domain.KindGrupo, Level: 1, IsLast: true},
		{Title: "Reunião", Kind: domain.KindTarefa, Level: 2, Leaf: true, Detail: "D+3"},
		{Title: "Contrato", Kind: domain.KindTarefa, Level: 2, Leaf: true, IsLast: true, Completed: true},
	})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], treeCorner)
	assert.Contains(t, lines[2], treePipe+treeBranch)
	assert.Contains(t, lines[2], "[ D+3 ]")
	assert.Contains(t, lines[3], "✔")
	assert.Empty(t, RenderTree(nil))
}

func TestRelativeDays(t *testing.T) {
	today := time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "hoje", RelativeDays(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), today))
	assert.Equal(t, "amanhã", RelativeDays(time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC), today))
	assert.Equal(t, "ontem", RelativeDays(time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC), today))
	assert.Equal(t, "em 5d", RelativeDays(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), today))
	assert.Equal(t, "6d atrás", RelativeDays(time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC), today))
}
