package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/implanta/internal/domain"
)

// FormatHistory renders events oldest first as a table.
func FormatHistory(title string, events []*domain.HistoryEvent) string {
	if len(events) == 0 {
		return RenderBox(title, Dim("no history recorded"))
	}
	headers := []string{"WHEN", "EVENT", "NODE", "CHANGE", "BY"}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.OccurredAt.Local().Format("2006-01-02 15:04:05"),
			eventLabel(e.Kind),
			nodeRef(e),
			describeChange(e),
			orDash(e.Actor),
		})
	}
	return RenderBox(title, RenderTable(headers, rows))
}

func nodeRef(e *domain.HistoryEvent) string {
	if e.NodeID == "" {
		return Dim("--")
	}
	return TruncID(e.NodeID)
}

func eventLabel(kind domain.EventKind) string {
	switch kind {
	case domain.EventStatusChanged:
		return StyleGreen.Render(string(kind))
	case domain.EventDeadlineChanged:
		return StyleYellow.Render(string(kind))
	case domain.EventNodeDeleted, domain.EventCommentDeleted:
		return StyleRed.Render(string(kind))
	case domain.EventPlanApplied:
		return StyleHeader.Render(string(kind))
	default:
		return StyleBlue.Render(string(kind))
	}
}

// describeChange renders old → new, quoting free text kinds.
func describeChange(e *domain.HistoryEvent) string {
	switch e.Kind {
	case domain.EventCommentAdded:
		return quote(e.NewValue)
	case domain.EventCommentDeleted, domain.EventNodeDeleted:
		return Dim(quote(e.OldValue))
	case domain.EventPlanApplied:
		return "template " + TruncID(e.NewValue)
	default:
		return fmt.Sprintf("%s → %s", orDash(e.OldValue), orDash(e.NewValue))
	}
}

func quote(s string) string {
	const limit = 48
	if r := []rune(s); len(r) > limit {
		s = string(r[:limit-1]) + "…"
	}
	return fmt.Sprintf("%q", s)
}

// FormatComments renders a node's comments oldest first.
func FormatComments(comments []*domain.Comment) string {
	if len(comments) == 0 {
		return Dim("No comments.") + "\n"
	}
	var b strings.Builder
	for _, c := range comments {
		b.WriteString(fmt.Sprintf("%s %s %s\n", TruncID(c.ID), Bold(orDash(c.Author)), Dim(c.CreatedAt.Local().Format("2006-01-02 15:04"))))
		for _, line := range strings.Split(c.Body, "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

// FormatOverdue renders overdue leaves with how late each one is.
func FormatOverdue(nodes []*domain.ChecklistNode, asOf time.Time) string {
	if len(nodes) == 0 {
		return RenderBox("Overdue", StyleGreen.Render("nothing overdue as of "+asOf.Format("2006-01-02")))
	}
	headers := []string{"ID", "TASK", "DEADLINE", "LATE", "RESPONSIBLE", "TAG"}
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, []string{
			TruncID(n.ID),
			n.Title,
			DeadlineStyled(n.Deadline, n.Completed, asOf),
			StyleRed.Render(RelativeDays(*n.Deadline, asOf)),
			orDash(n.Responsible),
			TagBadge(n.Tag),
		})
	}
	return RenderBox("Overdue", RenderTable(headers, rows))
}
