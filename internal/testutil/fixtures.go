package testutil

import (
	"time"

	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/google/uuid"
)

// Implementation options
type ImplementationOption func(*domain.Implementation)

func WithStartDate(d time.Time) ImplementationOption {
	return func(i *domain.Implementation) {
		i.StartDate = d
	}
}

func WithCustomer(c string) ImplementationOption {
	return func(i *domain.Implementation) {
		i.Customer = c
	}
}

func NewTestImplementation(name string, opts ...ImplementationOption) *domain.Implementation {
	now := time.Now().UTC()
	i := &domain.Implementation{
		ID:        uuid.New().String(),
		Name:      name,
		Customer:  "ACME",
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Template options
type TemplateOption func(*domain.PlanTemplate)

func WithTemplateStatus(s domain.TemplateStatus) TemplateOption {
	return func(p *domain.PlanTemplate) {
		p.Status = s
		if s == domain.TemplateConcluido {
			at := time.Now().UTC()
			p.ConcludedAt = &at
		}
	}
}

func WithDurationDays(d int) TemplateOption {
	return func(p *domain.PlanTemplate) {
		p.DurationDays = d
	}
}

func NewTestTemplate(name string, opts ...TemplateOption) *domain.PlanTemplate {
	now := time.Now().UTC()
	p := &domain.PlanTemplate{
		ID:        uuid.New().String(),
		Name:      name,
		Status:    domain.TemplateEmAndamento,
		CreatedBy: "tester",
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ChecklistNode options
type NodeOption func(*domain.ChecklistNode)

func WithParent(id string) NodeOption {
	return func(n *domain.ChecklistNode) {
		n.ParentID = &id
	}
}

func WithOrderKey(k int) NodeOption {
	return func(n *domain.ChecklistNode) {
		n.OrderKey = k
	}
}

func WithDayOffset(days int, businessOnly bool) NodeOption {
	return func(n *domain.ChecklistNode) {
		n.DayOffset = &days
		n.BusinessDaysOnly = businessOnly
	}
}

func WithDeadline(d time.Time) NodeOption {
	return func(n *domain.ChecklistNode) {
		n.Deadline = &d
		n.OriginalDeadline = &d
	}
}

func WithResponsible(r string) NodeOption {
	return func(n *domain.ChecklistNode) {
		n.Responsible = r
	}
}

func WithTag(t domain.Tag) NodeOption {
	return func(n *domain.ChecklistNode) {
		n.Tag = t
	}
}

func WithCompleted(at time.Time) NodeOption {
	return func(n *domain.ChecklistNode) {
		n.Completed = true
		n.CompletionDate = &at
	}
}

// NewTestNode builds a live node owned by implementation implID.
func NewTestNode(implID string, kind domain.NodeKind, title string, opts ...NodeOption) *domain.ChecklistNode {
	n := newNode(kind, title)
	n.ImplantacaoID = &implID
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewTestPrototype builds a template node owned by template planID.
func NewTestPrototype(planID string, kind domain.NodeKind, title string, opts ...NodeOption) *domain.ChecklistNode {
	n := newNode(kind, title)
	n.PlanoID = &planID
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func newNode(kind domain.NodeKind, title string) *domain.ChecklistNode {
	now := time.Now().UTC()
	return &domain.ChecklistNode{
		ID:        uuid.New().String(),
		Kind:      kind,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
