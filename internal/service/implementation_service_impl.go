package service

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/alexanderramin/implanta/internal/repository"
)

type implementationService struct {
	impls    repository.ImplementationRepo
	observer UseCaseObserver
}

func NewImplementationService(impls repository.ImplementationRepo, observers ...UseCaseObserver) ImplementationService {
	return &implementationService{impls: impls, observer: useCaseObserverOrNoop(observers)}
}

func (s *implementationService) Create(ctx context.Context, in CreateImplementationInput) (impl *domain.Implementation, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"name": in.Name}
	defer func() { observe(ctx, s.observer, "create-implementation", startedAt, fields, &err) }()

	in.Name = strings.TrimSpace(in.Name)
	if err = validateInput(in); err != nil {
		return nil, err
	}

	now := storedNow()
	impl = &domain.Implementation{
		Name:        in.Name,
		Customer:    in.Customer,
		Responsible: in.Responsible,
		StartDate:   dateOnly(in.StartDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = s.impls.Create(ctx, impl); err != nil {
		err = domain.ClassifyStoreError("create implementation", err)
		return nil, err
	}
	fields["implantacao_id"] = impl.ID
	return impl, nil
}

func (s *implementationService) GetByID(ctx context.Context, id string) (*domain.Implementation, error) {
	impl, err := s.impls.GetByID(ctx, id)
	return impl, domain.ClassifyStoreError("get implementation", err)
}

func (s *implementationService) List(ctx context.Context) ([]*domain.Implementation, error) {
	list, err := s.impls.List(ctx)
	return list, domain.ClassifyStoreError("list implementations", err)
}
