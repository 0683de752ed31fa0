package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/alexanderramin/implanta/internal/tree"
)

// FormatTemplateList renders templates with their status inside a box.
func FormatTemplateList(templates []*domain.PlanTemplate) string {
	headers := []string{"ID", "NAME", "STATUS", "DAYS"}
	rows := make([][]string, 0, len(templates))
	active := 0
	for _, t := range templates {
		if t.IsActive() {
			active++
		}
		rows = append(rows, []string{
			TruncID(t.ID),
			Bold(t.Name),
			TemplateStatusPill(t.Status),
			fmt.Sprintf("%d", t.DurationDays),
		})
	}
	footer := Dim(fmt.Sprintf("%d/%d em andamento", active, domain.MaxActiveTemplates))
	return RenderBox("Plan templates", RenderTable(headers, rows)+"\n"+footer)
}

// FormatTemplateShow renders template metadata followed by its prototype tree.
func FormatTemplateShow(t *domain.PlanTemplate, f *tree.Forest) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s\n\n", StyleBold.Render(t.Name), TemplateStatusPill(t.Status)))
	b.WriteString(fmt.Sprintf("  %s  %s\n", StyleDim.Render("ID      "), Dim(t.ID)))
	b.WriteString(fmt.Sprintf("  %s  %d\n", StyleDim.Render("DURATION"), t.DurationDays))
	if t.ProcessoID != nil {
		b.WriteString(fmt.Sprintf("  %s  %s\n", StyleDim.Render("PROCESSO"), *t.ProcessoID))
	}
	b.WriteString(fmt.Sprintf("  %s  %s\n", StyleDim.Render("AUTHOR  "), orDash(t.CreatedBy)))
	if t.Description != "" {
		b.WriteString("\n  " + t.Description + "\n")
	}

	b.WriteString("\n")
	b.WriteString(Header("Structure"))
	b.WriteString("\n")
	if f == nil || f.Len() == 0 {
		b.WriteString(Dim("  (empty)") + "\n")
	} else {
		b.WriteString(RenderTree(ChecklistItems(f, time.Now())))
	}
	return RenderBox("", b.String())
}
