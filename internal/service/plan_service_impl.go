package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/implanta/internal/db"
	"github.com/alexanderramin/implanta/internal/deadline"
	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/alexanderramin/implanta/internal/planfile"
	"github.com/alexanderramin/implanta/internal/repository"
	"github.com/alexanderramin/implanta/internal/tree"
	"github.com/google/uuid"
)

type planService struct {
	templates repository.TemplateRepo
	nodes     repository.ChecklistNodeRepo
	uow       db.UnitOfWork
	observer  UseCaseObserver
}

func NewPlanService(
	templates repository.TemplateRepo,
	nodes repository.ChecklistNodeRepo,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) PlanService {
	return &planService{
		templates: templates,
		nodes:     nodes,
		uow:       uow,
		observer:  useCaseObserverOrNoop(observers),
	}
}

func (s *planService) CreateTemplate(ctx context.Context, in CreateTemplateInput) (tpl *domain.PlanTemplate, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"name": in.Name, "actor": in.Actor}
	defer func() { observe(ctx, s.observer, "create-template", startedAt, fields, &err) }()

	in.Name = strings.TrimSpace(in.Name)
	if err = validateInput(in); err != nil {
		return nil, err
	}
	tpl = newTemplate(in.Name, in.Description, in.DurationDays, in.ProcessoID, in.Actor)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return admit(ctx, tx, tpl)
	})
	if err != nil {
		err = domain.ClassifyStoreError("create template", err)
		return nil, err
	}
	fields["template_id"] = tpl.ID
	return tpl, nil
}

// admit inserts tpl if fewer than MaxActiveTemplates are em_andamento. The
// count and the insert share tx; on PostgreSQL an advisory lock serializes
// concurrent admissions, on SQLite the immediate write lock does.
func admit(ctx context.Context, tx db.DBTX, tpl *domain.PlanTemplate) error {
	if err := db.LockAdmission(ctx, tx); err != nil {
		return fmt.Errorf("locking template admission: %w", err)
	}
	txTemplates := repository.NewSQLTemplateRepo(tx)
	active, err := txTemplates.CountActive(ctx)
	if err != nil {
		return err
	}
	if active >= domain.MaxActiveTemplates {
		return fmt.Errorf("%d templates em_andamento: %w", active, domain.ErrAdmissionLimitExceeded)
	}
	return txTemplates.Create(ctx, tpl)
}

func newTemplate(name, description string, durationDays int, processoID, actor string) *domain.PlanTemplate {
	now := storedNow()
	tpl := &domain.PlanTemplate{
		ID:           uuid.New().String(),
		Name:         name,
		Description:  description,
		DurationDays: durationDays,
		Status:       domain.TemplateEmAndamento,
		CreatedBy:    actor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if processoID != "" {
		p := processoID
		tpl.ProcessoID = &p
	}
	return tpl
}

func (s *planService) AddPrototypeNode(ctx context.Context, in PrototypeNodeInput) (node *domain.ChecklistNode, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"template_id": in.TemplateID, "kind": in.Kind}
	defer func() { observe(ctx, s.observer, "add-prototype-node", startedAt, fields, &err) }()

	if err = validateInput(in); err != nil {
		return nil, err
	}
	kind, err := domain.ParseNodeKind(in.Kind)
	if err != nil {
		return nil, err
	}
	tag, err := domain.ParseTag(in.Tag)
	if err != nil {
		return nil, err
	}
	if in.BusinessDaysOnly && in.DayOffset == nil {
		err = domain.NewValidationError("business_days_only", "requires day_offset")
		return nil, err
	}

	now := storedNow()
	planID := in.TemplateID
	node = &domain.ChecklistNode{
		ID:               uuid.New().String(),
		Kind:             kind.Prototype(),
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		Tag:              tag,
		DayOffset:        in.DayOffset,
		BusinessDaysOnly: in.BusinessDaysOnly,
		PlanoID:          &planID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.ParentID != "" {
		parentID := in.ParentID
		node.ParentID = &parentID
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTemplates := repository.NewSQLTemplateRepo(tx)
		txNodes := repository.NewSQLChecklistNodeRepo(tx)

		tpl, err := txTemplates.GetForUpdate(ctx, in.TemplateID)
		if err != nil {
			return err
		}
		if !tpl.IsActive() {
			return domain.NewValidationError("template_id", "template is concluido and can no longer be edited")
		}

		var parent *domain.ChecklistNode
		var siblings []*domain.ChecklistNode
		if node.ParentID != nil {
			if parent, err = txNodes.GetByID(ctx, *node.ParentID); err != nil {
				return fmt.Errorf("parent: %w", err)
			}
			if siblings, err = txNodes.ListChildren(ctx, parent.ID); err != nil {
				return err
			}
		} else {
			all, err := txNodes.ListByTemplate(ctx, in.TemplateID)
			if err != nil {
				return err
			}
			siblings = tree.Build(all).Roots()
		}
		if err := node.ValidateOwnership(); err != nil {
			return err
		}
		if err := node.ValidateParent(parent); err != nil {
			return err
		}

		if in.OrderKey != nil {
			node.OrderKey = *in.OrderKey
		} else {
			node.OrderKey = nextOrderKey(siblings)
		}
		return txNodes.Create(ctx, node)
	})
	if err != nil {
		err = domain.ClassifyStoreError("add prototype node", err)
		return nil, err
	}
	fields["node_id"] = node.ID
	return node, nil
}

func nextOrderKey(siblings []*domain.ChecklistNode) int {
	next := 0
	for _, s := range siblings {
		if s.OrderKey >= next {
			next = s.OrderKey + 1
		}
	}
	return next
}

// DeletePrototypeNode removes a prototype and its descendants from a template
// still em andamento. Prototypes are not tracked, so no history is written.
// Implementations the template was already applied to are unaffected.
func (s *planService) DeletePrototypeNode(ctx context.Context, nodeID, actor string) (result *DeleteResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"node_id": nodeID, "actor": actor}
	defer func() { observe(ctx, s.observer, "delete-prototype-node", startedAt, fields, &err) }()

	if err = requireActor(actor); err != nil {
		return nil, err
	}
	result = &DeleteResult{}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTemplates := repository.NewSQLTemplateRepo(tx)
		txNodes := repository.NewSQLChecklistNodeRepo(tx)

		target, err := txNodes.GetForUpdate(ctx, nodeID)
		if err != nil {
			return err
		}
		if target.PlanoID == nil {
			return domain.NewValidationError("node_id", "not a template node; use the checklist delete")
		}
		fields["template_id"] = *target.PlanoID

		tpl, err := txTemplates.GetForUpdate(ctx, *target.PlanoID)
		if err != nil {
			return err
		}
		if !tpl.IsActive() {
			return domain.NewValidationError("template_id", "template is concluido and can no longer be edited")
		}

		all, err := txNodes.ListByTemplate(ctx, tpl.ID)
		if err != nil {
			return err
		}
		doomed, err := tree.Build(all).Subtree(nodeID)
		if err != nil {
			return err
		}
		for _, n := range doomed {
			if err := txNodes.Delete(ctx, n.ID); err != nil {
				return err
			}
			result.RemovedIDs = append(result.RemovedIDs, n.ID)
		}
		return nil
	})
	if err != nil {
		err = domain.ClassifyStoreError("delete prototype node", err)
		return nil, err
	}
	fields["removed"] = len(result.RemovedIDs)
	return result, nil
}

func (s *planService) ImportTemplate(ctx context.Context, def *planfile.Definition, actor string) (result *ImportResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"actor": actor}
	defer func() { observe(ctx, s.observer, "import-template", startedAt, fields, &err) }()

	if err = requireActor(actor); err != nil {
		return nil, err
	}
	if err = planfile.Validate(def); err != nil {
		return nil, err
	}
	fields["name"] = def.Name
	fields["source"] = def.Source

	tpl := newTemplate(strings.TrimSpace(def.Name), def.Description, def.DurationDays, def.ProcessoID, actor)
	protos, err := prototypesFromDefinition(tpl.ID, def.Nodes)
	if err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := admit(ctx, tx, tpl); err != nil {
			return err
		}
		txNodes := repository.NewSQLChecklistNodeRepo(tx)
		for _, n := range protos {
			if err := txNodes.Create(ctx, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		err = domain.ClassifyStoreError("import template", err)
		return nil, err
	}
	fields["template_id"] = tpl.ID
	fields["node_count"] = len(protos)
	return &ImportResult{Template: tpl, NodeCount: len(protos)}, nil
}

// prototypesFromDefinition flattens defs into prototype nodes, parents before
// children.
func prototypesFromDefinition(planID string, defs []planfile.NodeDef) ([]*domain.ChecklistNode, error) {
	now := storedNow()
	var out []*domain.ChecklistNode
	var visit func(parentID *string, defs []planfile.NodeDef) error
	visit = func(parentID *string, defs []planfile.NodeDef) error {
		for i := range defs {
			d := &defs[i]
			kind, err := domain.ParseNodeKind(d.Kind)
			if err != nil {
				return err
			}
			tag, err := domain.ParseTag(d.Tag)
			if err != nil {
				return err
			}
			pid := planID
			n := &domain.ChecklistNode{
				ID:               uuid.New().String(),
				ParentID:         parentID,
				Kind:             kind.Prototype(),
				OrderKey:         d.OrderKey(i),
				Title:            strings.TrimSpace(d.Title),
				Description:      d.Description,
				Tag:              tag,
				DayOffset:        d.DayOffset,
				BusinessDaysOnly: d.BusinessDaysOnly,
				PlanoID:          &pid,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			out = append(out, n)
			id := n.ID
			if err := visit(&id, d.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(nil, defs); err != nil {
		return nil, err
	}
	if err := tree.Build(out).Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *planService) GetTemplate(ctx context.Context, id string) (*domain.PlanTemplate, error) {
	tpl, err := s.templates.GetByID(ctx, id)
	return tpl, domain.ClassifyStoreError("get template", err)
}

func (s *planService) ListTemplates(ctx context.Context, activeOnly bool) ([]*domain.PlanTemplate, error) {
	list, err := s.templates.List(ctx, activeOnly)
	return list, domain.ClassifyStoreError("list templates", err)
}

func (s *planService) TemplateForest(ctx context.Context, id string) (*tree.Forest, error) {
	if _, err := s.templates.GetByID(ctx, id); err != nil {
		return nil, domain.ClassifyStoreError("get template", err)
	}
	nodes, err := s.nodes.ListByTemplate(ctx, id)
	if err != nil {
		return nil, domain.ClassifyStoreError("list template nodes", err)
	}
	return tree.Build(nodes), nil
}

// ConcludeTemplate moves a template to concluido. Concluding an already
// concluded template succeeds without touching it.
func (s *planService) ConcludeTemplate(ctx context.Context, id, actor string) (tpl *domain.PlanTemplate, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"template_id": id, "actor": actor}
	defer func() { observe(ctx, s.observer, "conclude-template", startedAt, fields, &err) }()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTemplates := repository.NewSQLTemplateRepo(tx)
		t, err := txTemplates.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		tpl = t
		changed := t.Conclude(storedNow())
		fields["changed"] = changed
		if !changed {
			return nil
		}
		return txTemplates.Update(ctx, t)
	})
	if err != nil {
		err = domain.ClassifyStoreError("conclude template", err)
		return nil, err
	}
	return tpl, nil
}

// Apply clones the template's prototype forest onto an implementation in one
// transaction. Each clone gets a fresh id and is re-linked to its cloned
// parent; deadlines come from the prototype offsets counted from StartDate.
// Creation of the clones is recorded once, as a plan_applied event.
func (s *planService) Apply(ctx context.Context, in ApplyInput) (result *ApplyResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"template_id": in.TemplateID, "implantacao_id": in.ImplantacaoID, "actor": in.Actor}
	defer func() { observe(ctx, s.observer, "apply-plan", startedAt, fields, &err) }()

	if err = validateInput(in); err != nil {
		return nil, err
	}

	result = &ApplyResult{}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTemplates := repository.NewSQLTemplateRepo(tx)
		txImpls := repository.NewSQLImplementationRepo(tx)
		txNodes := repository.NewSQLChecklistNodeRepo(tx)
		txHistory := repository.NewSQLHistoryRepo(tx)

		if _, err := txTemplates.GetByID(ctx, in.TemplateID); err != nil {
			return err
		}
		impl, err := txImpls.GetByID(ctx, in.ImplantacaoID)
		if err != nil {
			return err
		}
		start := in.StartDate
		if start.IsZero() {
			start = impl.StartDate
		}
		start = dateOnly(start)

		protos, err := txNodes.ListByTemplate(ctx, in.TemplateID)
		if err != nil {
			return err
		}
		forest := tree.Build(protos)
		if err := forest.Validate(); err != nil {
			return err
		}

		clones, err := cloneForest(forest, impl.ID, start)
		if err != nil {
			return err
		}
		for _, c := range clones {
			if err := txNodes.Create(ctx, c); err != nil {
				return err
			}
			if c.ParentID == nil {
				result.RootIDs = append(result.RootIDs, c.ID)
			}
		}
		result.NodeCount = len(clones)

		return txHistory.Append(ctx, &domain.HistoryEvent{
			ImplantacaoID: impl.ID,
			Kind:          domain.EventPlanApplied,
			NewValue:      in.TemplateID,
			Actor:         in.Actor,
			OccurredAt:    storedNow(),
		})
	})
	if err != nil {
		err = domain.ClassifyStoreError("apply plan", err)
		return nil, err
	}
	fields["node_count"] = result.NodeCount
	fields["root_count"] = len(result.RootIDs)
	return result, nil
}

// cloneForest returns live copies of every prototype in pre-order, so each
// parent precedes its children.
func cloneForest(forest *tree.Forest, implID string, start time.Time) ([]*domain.ChecklistNode, error) {
	now := storedNow()
	newIDs := make(map[string]string, forest.Len())
	clones := make([]*domain.ChecklistNode, 0, forest.Len())

	err := forest.Walk(func(p *domain.ChecklistNode, _ int) error {
		owner := implID
		c := &domain.ChecklistNode{
			ID:               uuid.New().String(),
			Kind:             p.Kind.Live(),
			OrderKey:         p.OrderKey,
			Title:            p.Title,
			Description:      p.Description,
			Tag:              p.Tag,
			DayOffset:        p.DayOffset,
			BusinessDaysOnly: p.BusinessDaysOnly,
			ImplantacaoID:    &owner,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if p.ParentID != nil {
			parentID, ok := newIDs[*p.ParentID]
			if !ok {
				return fmt.Errorf("prototype %s visited before its parent", p.ID)
			}
			c.ParentID = &parentID
		}
		if p.DayOffset != nil {
			d := deadline.AddOffset(start, *p.DayOffset, p.BusinessDaysOnly)
			orig := d
			c.Deadline = &d
			c.OriginalDeadline = &orig
		}
		newIDs[p.ID] = c.ID
		clones = append(clones, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clones, nil
}
