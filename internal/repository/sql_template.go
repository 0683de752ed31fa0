package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/implanta/internal/db"
	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/google/uuid"
)

const templateColumns = `id, name, description, duration_days, status, processo_id,
		created_by, created_at, updated_at, concluded_at`

// SQLTemplateRepo implements TemplateRepo over a DBTX.
type SQLTemplateRepo struct {
	db db.DBTX
}

func NewSQLTemplateRepo(tx db.DBTX) *SQLTemplateRepo {
	return &SQLTemplateRepo{db: tx}
}

func (r *SQLTemplateRepo) Create(ctx context.Context, p *domain.PlanTemplate) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `INSERT INTO plan_templates (` + templateColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.DurationDays,
		string(p.Status),
		nullableString(p.ProcessoID),
		p.CreatedBy,
		formatTimestamp(p.CreatedAt),
		formatTimestamp(p.UpdatedAt),
		nullableTimeToString(p.ConcludedAt, timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting plan template: %w", err)
	}
	return nil
}

func (r *SQLTemplateRepo) GetByID(ctx context.Context, id string) (*domain.PlanTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM plan_templates WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLTemplateRepo) GetForUpdate(ctx context.Context, id string) (*domain.PlanTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM plan_templates WHERE id = ?` + db.DialectOf(r.db).ForUpdate()
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLTemplateRepo) List(ctx context.Context, activeOnly bool) ([]*domain.PlanTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM plan_templates`
	var args []any
	if activeOnly {
		query += ` WHERE status = ?`
		args = append(args, string(domain.TemplateEmAndamento))
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing plan templates: %w", err)
	}
	defer rows.Close()

	var out []*domain.PlanTemplate
	for rows.Next() {
		p, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan template row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plan templates: %w", err)
	}
	return out, nil
}

// CountActive counts em_andamento templates. Callers enforcing the
// admission cap must hold db.LockAdmission in the same transaction.
func (r *SQLTemplateRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM plan_templates WHERE status = ?`, string(domain.TemplateEmAndamento)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting active plan templates: %w", err)
	}
	return n, nil
}

func (r *SQLTemplateRepo) Update(ctx context.Context, p *domain.PlanTemplate) error {
	query := `UPDATE plan_templates SET name = ?, description = ?, duration_days = ?, status = ?,
		processo_id = ?, updated_at = ?, concluded_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		p.Name,
		p.Description,
		p.DurationDays,
		string(p.Status),
		nullableString(p.ProcessoID),
		formatTimestamp(p.UpdatedAt),
		nullableTimeToString(p.ConcludedAt, timestampLayout),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating plan template: %w", err)
	}
	return requireAffected(res, "plan template")
}

func (r *SQLTemplateRepo) scanOne(row *sql.Row) (*domain.PlanTemplate, error) {
	p, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("plan template: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning plan template: %w", err)
	}
	return p, nil
}

func scanTemplate(s rowScanner) (*domain.PlanTemplate, error) {
	var p domain.PlanTemplate
	var statusStr, createdStr, updatedStr string
	var processoID, concludedStr sql.NullString

	if err := s.Scan(&p.ID, &p.Name, &p.Description, &p.DurationDays, &statusStr, &processoID,
		&p.CreatedBy, &createdStr, &updatedStr, &concludedStr); err != nil {
		return nil, err
	}
	p.Status = domain.TemplateStatus(statusStr)
	if processoID.Valid {
		p.ProcessoID = &processoID.String
	}
	p.ConcludedAt = parseNullableTime(concludedStr, timestampLayout)

	var err error
	if p.CreatedAt, err = parseTimestamp(createdStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTimestamp(updatedStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &p, nil
}
