package service

import (
	"context"
	"time"

	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/alexanderramin/implanta/internal/planfile"
	"github.com/alexanderramin/implanta/internal/progress"
	"github.com/alexanderramin/implanta/internal/tree"
)

type CreateImplementationInput struct {
	Name        string    `validate:"required,max=200"`
	Customer    string    `validate:"max=200"`
	Responsible string    `validate:"max=200"`
	StartDate   time.Time `validate:"required"`
}

type ImplementationService interface {
	Create(ctx context.Context, in CreateImplementationInput) (*domain.Implementation, error)
	GetByID(ctx context.Context, id string) (*domain.Implementation, error)
	List(ctx context.Context) ([]*domain.Implementation, error)
}

type CreateTemplateInput struct {
	Name         string `validate:"required,max=200"`
	Description  string
	DurationDays int `validate:"gte=0"`
	ProcessoID   string
	Actor        string `validate:"required"`
}

// PrototypeNodeInput describes one node added to a template. Kind may be a
// live or a template kind name; the template kind is stored. A nil OrderKey
// appends after the existing siblings.
type PrototypeNodeInput struct {
	TemplateID       string `validate:"required"`
	ParentID         string
	Kind             string `validate:"required"`
	Title            string `validate:"required,max=500"`
	Description      string
	Tag              string
	OrderKey         *int
	DayOffset        *int
	BusinessDaysOnly bool
}

// ApplyInput requests a clone of a template onto an implementation. A zero
// StartDate falls back to the implementation's start date.
type ApplyInput struct {
	TemplateID    string `validate:"required"`
	ImplantacaoID string `validate:"required"`
	Actor         string `validate:"required"`
	StartDate     time.Time
}

type ApplyResult struct {
	RootIDs   []string
	NodeCount int
}

type ImportResult struct {
	Template  *domain.PlanTemplate
	NodeCount int
}

type PlanService interface {
	CreateTemplate(ctx context.Context, in CreateTemplateInput) (*domain.PlanTemplate, error)
	AddPrototypeNode(ctx context.Context, in PrototypeNodeInput) (*domain.ChecklistNode, error)
	DeletePrototypeNode(ctx context.Context, nodeID, actor string) (*DeleteResult, error)
	ImportTemplate(ctx context.Context, def *planfile.Definition, actor string) (*ImportResult, error)
	GetTemplate(ctx context.Context, id string) (*domain.PlanTemplate, error)
	ListTemplates(ctx context.Context, activeOnly bool) ([]*domain.PlanTemplate, error)
	TemplateForest(ctx context.Context, id string) (*tree.Forest, error)
	ConcludeTemplate(ctx context.Context, id, actor string) (*domain.PlanTemplate, error)
	Apply(ctx context.Context, in ApplyInput) (*ApplyResult, error)
}

// MutationResult reports a node after a field change. Changed is false when
// the requested value was already current, in which case Event is nil.
type MutationResult struct {
	Node    *domain.ChecklistNode
	Changed bool
	Event   *domain.HistoryEvent
}

type DeleteResult struct {
	RemovedIDs []string
}

type ChecklistService interface {
	// ResolveNode finds a node by full id or by an unambiguous id prefix.
	ResolveNode(ctx context.Context, ref string) (*domain.ChecklistNode, error)
	Toggle(ctx context.Context, nodeID string, completed bool, actor string) (*MutationResult, error)
	Flip(ctx context.Context, nodeID, actor string) (*MutationResult, error)
	Reassign(ctx context.Context, nodeID, responsible, actor string) (*MutationResult, error)
	Reschedule(ctx context.Context, nodeID string, deadline *time.Time, actor string) (*MutationResult, error)
	Delete(ctx context.Context, nodeID, actor string) (*DeleteResult, error)
	AddComment(ctx context.Context, nodeID, author, body string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, commentID, actor string) error
	Comments(ctx context.Context, nodeID string) ([]*domain.Comment, error)
	NodeHistory(ctx context.Context, nodeID string) ([]*domain.HistoryEvent, error)
	ImplementationHistory(ctx context.Context, implID string) ([]*domain.HistoryEvent, error)
	Overdue(ctx context.Context, implID string, asOf time.Time) ([]*domain.ChecklistNode, error)
	Forest(ctx context.Context, implID string) (*tree.Forest, error)
}

type ProgressService interface {
	NodeProgress(ctx context.Context, nodeID string) (progress.Progress, error)
	ImplementationProgress(ctx context.Context, implID string) (*progress.Report, error)
}
