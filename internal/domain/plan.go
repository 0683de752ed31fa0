package domain

import "time"

// Implementation is one customer's onboarding engagement. It owns a live
// checklist forest.
type Implementation struct {
	ID          string
	Name        string
	Customer    string
	Responsible string
	StartDate   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlanTemplate is a reusable success plan: metadata plus a prototype forest
// stored as ChecklistNodes with PlanoID set.
type PlanTemplate struct {
	ID           string
	Name         string
	Description  string
	DurationDays int
	Status       TemplateStatus
	ProcessoID   *string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ConcludedAt  *time.Time
}

// IsActive reports whether the template counts against MaxActiveTemplates.
func (t *PlanTemplate) IsActive() bool { return t.Status == TemplateEmAndamento }

// Conclude moves the template to its terminal state. It reports false when
// the template was already concluded.
func (t *PlanTemplate) Conclude(at time.Time) bool {
	if t.Status == TemplateConcluido {
		return false
	}
	t.Status = TemplateConcluido
	t.ConcludedAt = &at
	t.UpdatedAt = at
	return true
}
