package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/implanta/internal/domain"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = domain.ErrNotFound

type ImplementationRepo interface {
	Create(ctx context.Context, i *domain.Implementation) error
	GetByID(ctx context.Context, id string) (*domain.Implementation, error)
	List(ctx context.Context) ([]*domain.Implementation, error)
}

type TemplateRepo interface {
	Create(ctx context.Context, p *domain.PlanTemplate) error
	GetByID(ctx context.Context, id string) (*domain.PlanTemplate, error)
	GetForUpdate(ctx context.Context, id string) (*domain.PlanTemplate, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.PlanTemplate, error)
	CountActive(ctx context.Context) (int, error)
	Update(ctx context.Context, p *domain.PlanTemplate) error
}

type ChecklistNodeRepo interface {
	Create(ctx context.Context, n *domain.ChecklistNode) error
	GetByID(ctx context.Context, id string) (*domain.ChecklistNode, error)
	GetForUpdate(ctx context.Context, id string) (*domain.ChecklistNode, error)
	ListChildren(ctx context.Context, parentID string) ([]*domain.ChecklistNode, error)
	ListByImplementation(ctx context.Context, implID string) ([]*domain.ChecklistNode, error)
	ListByTemplate(ctx context.Context, planID string) ([]*domain.ChecklistNode, error)
	ListOverdue(ctx context.Context, implID string, asOf time.Time) ([]*domain.ChecklistNode, error)
	ListByIDPrefix(ctx context.Context, prefix string, limit int) ([]*domain.ChecklistNode, error)
	Update(ctx context.Context, n *domain.ChecklistNode) error
	Delete(ctx context.Context, id string) error
}

type HistoryRepo interface {
	Append(ctx context.Context, e *domain.HistoryEvent) error
	ListForNode(ctx context.Context, nodeID string) ([]*domain.HistoryEvent, error)
	ListForImplementation(ctx context.Context, implID string) ([]*domain.HistoryEvent, error)
}

type CommentRepo interface {
	Create(ctx context.Context, c *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByNode(ctx context.Context, nodeID string) ([]*domain.Comment, error)
	Delete(ctx context.Context, id string) error
}
