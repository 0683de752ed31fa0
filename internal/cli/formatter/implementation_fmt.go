package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/alexanderramin/implanta/internal/progress"
	"github.com/alexanderramin/implanta/internal/tree"
)

func FormatImplementationList(impls []*domain.Implementation) string {
	headers := []string{"ID", "NAME", "CUSTOMER", "RESPONSIBLE", "START"}
	rows := make([][]string, 0, len(impls))
	for _, i := range impls {
		rows = append(rows, []string{
			TruncID(i.ID),
			Bold(i.Name),
			orDash(i.Customer),
			orDash(i.Responsible),
			i.StartDate.Format("2006-01-02"),
		})
	}
	return RenderBox("Implementations", RenderTable(headers, rows))
}

// FormatImplementationShow renders an implementation card, its overall
// progress and the checklist tree.
func FormatImplementationShow(impl *domain.Implementation, f *tree.Forest, report *progress.Report, today time.Time) string {
	var b strings.Builder
	b.WriteString(StyleBold.Render(impl.Name) + "\n\n")
	b.WriteString(fmt.Sprintf("  %s  %s\n", StyleDim.Render("ID         "), Dim(impl.ID)))
	b.WriteString(fmt.Sprintf("  %s  %s\n", StyleDim.Render("CUSTOMER   "), orDash(impl.Customer)))
	b.WriteString(fmt.Sprintf("  %s  %s\n", StyleDim.Render("RESPONSIBLE"), orDash(impl.Responsible)))
	b.WriteString(fmt.Sprintf("  %s  %s\n", StyleDim.Render("START      "), impl.StartDate.Format("2006-01-02")))
	if report != nil {
		b.WriteString(fmt.Sprintf("  %s  %s\n", StyleDim.Render("PROGRESS   "), ProgressLine(report.Overall, 20)))
	}

	b.WriteString("\n")
	b.WriteString(Header("Checklist"))
	b.WriteString("\n")
	if f == nil || f.Len() == 0 {
		b.WriteString(Dim("  no plan applied yet") + "\n")
	} else {
		b.WriteString(RenderTree(ChecklistItems(f, today)))
	}
	return RenderBox("", b.String())
}

// FormatProgressReport renders the overall bar and one bar per fase.
func FormatProgressReport(impl *domain.Implementation, r *progress.Report) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s\n\n", StyleBold.Render(impl.Name), ProgressLine(r.Overall, 24)))
	if len(r.Roots) == 0 {
		b.WriteString(Dim("no plan applied yet") + "\n")
		return RenderBox("Progress", b.String())
	}
	headers := []string{"FASE", "PROGRESS"}
	rows := make([][]string, 0, len(r.Roots))
	for _, rp := range r.Roots {
		rows = append(rows, []string{KindStyle(rp.Node.Kind).Render(rp.Node.Title), ProgressLine(rp.Progress, 16)})
	}
	b.WriteString(RenderTable(headers, rows))
	return RenderBox("Progress", b.String())
}

// FormatNodeProgress is the one-line summary for a single subtree.
func FormatNodeProgress(n *domain.ChecklistNode, p progress.Progress) string {
	return fmt.Sprintf("%s  %s", KindStyle(n.Kind).Render(n.Title), ProgressLine(p, 20))
}
