package service

import (
	"context"

	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/alexanderramin/implanta/internal/progress"
	"github.com/alexanderramin/implanta/internal/repository"
	"github.com/alexanderramin/implanta/internal/tree"
)

// progressService computes completion on demand from current node state.
type progressService struct {
	nodes repository.ChecklistNodeRepo
	impls repository.ImplementationRepo
}

func NewProgressService(nodes repository.ChecklistNodeRepo, impls repository.ImplementationRepo) ProgressService {
	return &progressService{nodes: nodes, impls: impls}
}

func (s *progressService) NodeProgress(ctx context.Context, nodeID string) (progress.Progress, error) {
	n, err := s.nodes.GetByID(ctx, nodeID)
	if err != nil {
		return progress.Progress{}, domain.ClassifyStoreError("get node", err)
	}
	var nodes []*domain.ChecklistNode
	if n.ImplantacaoID != nil {
		nodes, err = s.nodes.ListByImplementation(ctx, *n.ImplantacaoID)
	} else {
		nodes, err = s.nodes.ListByTemplate(ctx, n.OwnerID())
	}
	if err != nil {
		return progress.Progress{}, domain.ClassifyStoreError("list nodes", err)
	}
	return progress.Subtree(tree.Build(nodes), nodeID)
}

func (s *progressService) ImplementationProgress(ctx context.Context, implID string) (*progress.Report, error) {
	if _, err := s.impls.GetByID(ctx, implID); err != nil {
		return nil, domain.ClassifyStoreError("get implementation", err)
	}
	nodes, err := s.nodes.ListByImplementation(ctx, implID)
	if err != nil {
		return nil, domain.ClassifyStoreError("list nodes", err)
	}
	r, err := progress.Forest(tree.Build(nodes))
	if err != nil {
		return nil, err
	}
	return &r, nil
}
