package formatter

import (
	"strings"
	"testing"

	"github.com/alexanderramin/implanta/internal/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestRenderProgress(t *testing.T) {
	tests := []struct {
		name    string
		percent int
		width   int
		filled  int
		label   string
	}{
		{"zero", 0, 10, 0, "  0%"},
		{"half", 50, 10, 5, " 50%"},
		{"full", 100, 10, 10, "100%"},
		{"over clamps", 150, 10, 10, "100%"},
		{"negative clamps", -5, 10, 0, "  0%"},
		{"tiny width clamps to 2", 50, 1, 1, " 50%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderProgress(tt.percent, tt.width)
			assert.Equal(t, tt.filled, strings.Count(got, filledBlock))
			assert.True(t, strings.HasSuffix(got, tt.label), got)
			assert.Equal(t, max(tt.width, 2)+3+len(tt.label), lipgloss.Width(got))
		})
	}
}

func TestProgressLine(t *testing.T) {
	assert.Contains(t, ProgressLine(progress.New(1, 3), 10), "1/3")
	assert.Contains(t, ProgressLine(progress.New(1, 3), 10), "33%")
	assert.Contains(t, ProgressLine(progress.Progress{}, 10), "sem tarefas")
}
