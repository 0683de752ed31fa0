package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// RelativeDays describes how far date is from today in whole days.
func RelativeDays(date, today time.Time) string {
	days := int(math.Round(dayStart(date).Sub(dayStart(today)).Hours() / 24))
	switch {
	case days == 0:
		return "hoje"
	case days == 1:
		return "amanhã"
	case days == -1:
		return "ontem"
	case days > 0:
		return fmt.Sprintf("em %dd", days)
	default:
		return fmt.Sprintf("%dd atrás", -days)
	}
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DeadlineStyled renders a deadline date colored by urgency relative to
// today. Completed nodes are always dimmed.
func DeadlineStyled(deadline *time.Time, completed bool, today time.Time) string {
	if deadline == nil {
		return Dim("--")
	}
	text := deadline.Format("2006-01-02")
	if completed {
		return Dim(text)
	}
	days := int(math.Round(dayStart(*deadline).Sub(dayStart(today)).Hours() / 24))
	switch {
	case days < 0:
		return StyleRed.Render(text)
	case days <= 2:
		return StyleYellow.Render(text)
	default:
		return StyleFg.Render(text)
	}
}

// TemplateStatusPill returns a colored indicator for a template status.
func TemplateStatusPill(status domain.TemplateStatus) string {
	switch status {
	case domain.TemplateEmAndamento:
		return StyleGreen.Render("● em andamento")
	case domain.TemplateConcluido:
		return StyleDim.Render("✔ concluído")
	default:
		return StyleDim.Render(string(status))
	}
}

// TagBadge returns a purple tag label, or nothing for untagged nodes.
func TagBadge(tag domain.Tag) string {
	if tag == domain.TagNone {
		return ""
	}
	return StylePurple.Render(string(tag))
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return Dim("--")
	}
	return s
}
