package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/alexanderramin/implanta/internal/progress"
	"github.com/alexanderramin/implanta/internal/tree"
	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one rendered line of a checklist tree.
type TreeItem struct {
	ID        string
	Title     string
	Kind      domain.NodeKind
	Level     int
	IsLast    bool
	Completed bool
	Leaf      bool
	Detail    string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
)

// RenderTree renders items as an indented tree with box-drawing connectors.
// Completed leaves get a green ✔, open leaves an empty box. Details are
// right-aligned in a badge column.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	contents := make([]string, len(items))
	maxWidth := 0
	for idx, item := range items {
		var prefix string
		if item.Level > 0 {
			prefix = strings.Repeat(treePipe, item.Level-1)
			if item.IsLast {
				prefix += treeCorner
			} else {
				prefix += treeBranch
			}
		}

		title := KindStyle(item.Kind).Render(item.Title)
		marker := ""
		if item.Leaf {
			if item.Completed {
				marker = StyleGreen.Render("✔ ")
				title = Dim(item.Title)
			} else {
				marker = StyleDim.Render("☐ ")
			}
		}
		if item.ID != "" {
			title += " " + TruncID(item.ID)
		}

		contents[idx] = prefix + marker + title
		maxWidth = max(maxWidth, lipgloss.Width(contents[idx]))
	}

	var b strings.Builder
	for idx, item := range items {
		b.WriteString(contents[idx])
		if item.Detail != "" {
			pad := maxWidth - lipgloss.Width(contents[idx])
			b.WriteString(strings.Repeat(" ", pad) + "  " + StyleBlue.Render(fmt.Sprintf("[ %s ]", item.Detail)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ChecklistItems flattens f in display order. Leaves carry their deadline as
// detail; containers carry their progress when the forest has counted leaves.
func ChecklistItems(f *tree.Forest, today time.Time) []TreeItem {
	var items []TreeItem
	_ = f.Walk(func(n *domain.ChecklistNode, depth int) error {
		item := TreeItem{
			ID:        n.ID,
			Title:     n.Title,
			Kind:      n.Kind,
			Level:     depth,
			Completed: n.Completed,
			Leaf:      n.IsLeaf(),
			IsLast:    isLastSibling(f, n),
		}
		if n.IsLeaf() {
			var parts []string
			if n.Deadline != nil {
				parts = append(parts, n.Deadline.Format("2006-01-02")+" "+RelativeDays(*n.Deadline, today))
			} else if n.DayOffset != nil {
				parts = append(parts, offsetLabel(*n.DayOffset, n.BusinessDaysOnly))
			}
			if n.Responsible != "" {
				parts = append(parts, n.Responsible)
			}
			item.Detail = strings.Join(parts, " · ")
		} else if p, err := progress.Subtree(f, n.ID); err == nil && !p.Empty() {
			item.Detail = fmt.Sprintf("%d%%", p.Percent)
		}
		items = append(items, item)
		return nil
	})
	return items
}

func isLastSibling(f *tree.Forest, n *domain.ChecklistNode) bool {
	var siblings []*domain.ChecklistNode
	if n.ParentID == nil {
		siblings = f.Roots()
	} else {
		siblings = f.Children(*n.ParentID)
	}
	return len(siblings) > 0 && siblings[len(siblings)-1].ID == n.ID
}

func offsetLabel(days int, businessOnly bool) string {
	if businessOnly {
		return fmt.Sprintf("D+%d úteis", days)
	}
	return fmt.Sprintf("D+%d", days)
}
