package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/implanta/internal/db"
	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/google/uuid"
)

// checklistNodeColumns is the canonical SELECT column list for checklist_nodes.
const checklistNodeColumns = `id, parent_id, kind, order_key, title, description,
		completed, completion_date, tag, responsible, day_offset, business_days_only,
		original_deadline, deadline, implantacao_id, plano_id, created_at, updated_at`

// SQLChecklistNodeRepo implements ChecklistNodeRepo over a DBTX.
type SQLChecklistNodeRepo struct {
	db db.DBTX
}

// NewSQLChecklistNodeRepo creates a new SQLChecklistNodeRepo.
func NewSQLChecklistNodeRepo(tx db.DBTX) *SQLChecklistNodeRepo {
	return &SQLChecklistNodeRepo{db: tx}
}

// Create inserts n, assigning a fresh id when n.ID is empty.
func (r *SQLChecklistNodeRepo) Create(ctx context.Context, n *domain.ChecklistNode) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	query := `INSERT INTO checklist_nodes (` + checklistNodeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		nullableString(n.ParentID),
		string(n.Kind),
		n.OrderKey,
		n.Title,
		n.Description,
		boolToInt(n.Completed),
		nullableTimeToString(n.CompletionDate, timestampLayout),
		string(n.Tag),
		n.Responsible,
		nullableIntToValue(n.DayOffset),
		boolToInt(n.BusinessDaysOnly),
		nullableTimeToString(n.OriginalDeadline, dateLayout),
		nullableTimeToString(n.Deadline, dateLayout),
		nullableString(n.ImplantacaoID),
		nullableString(n.PlanoID),
		formatTimestamp(n.CreatedAt),
		formatTimestamp(n.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting checklist node: %w", err)
	}
	return nil
}

func (r *SQLChecklistNodeRepo) GetByID(ctx context.Context, id string) (*domain.ChecklistNode, error) {
	query := `SELECT ` + checklistNodeColumns + ` FROM checklist_nodes WHERE id = ?`
	return r.scanNode(r.db.QueryRowContext(ctx, query, id))
}

// GetForUpdate reads a node and, on PostgreSQL, row-locks it until the
// enclosing transaction ends.
func (r *SQLChecklistNodeRepo) GetForUpdate(ctx context.Context, id string) (*domain.ChecklistNode, error) {
	query := `SELECT ` + checklistNodeColumns + ` FROM checklist_nodes WHERE id = ?` + db.DialectOf(r.db).ForUpdate()
	return r.scanNode(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLChecklistNodeRepo) ListChildren(ctx context.Context, parentID string) ([]*domain.ChecklistNode, error) {
	query := `SELECT ` + checklistNodeColumns + ` FROM checklist_nodes WHERE parent_id = ? ORDER BY order_key, id`
	return r.query(ctx, "listing child checklist nodes", query, parentID)
}

func (r *SQLChecklistNodeRepo) ListByImplementation(ctx context.Context, implID string) ([]*domain.ChecklistNode, error) {
	query := `SELECT ` + checklistNodeColumns + ` FROM checklist_nodes WHERE implantacao_id = ? ORDER BY order_key, id`
	return r.query(ctx, "listing checklist nodes by implementation", query, implID)
}

func (r *SQLChecklistNodeRepo) ListByTemplate(ctx context.Context, planID string) ([]*domain.ChecklistNode, error) {
	query := `SELECT ` + checklistNodeColumns + ` FROM checklist_nodes WHERE plano_id = ? ORDER BY order_key, id`
	return r.query(ctx, "listing checklist nodes by template", query, planID)
}

// ListByIDPrefix returns up to limit nodes whose id starts with prefix.
func (r *SQLChecklistNodeRepo) ListByIDPrefix(ctx context.Context, prefix string, limit int) ([]*domain.ChecklistNode, error) {
	query := `SELECT ` + checklistNodeColumns + ` FROM checklist_nodes WHERE id LIKE ? ORDER BY id LIMIT ?`
	return r.query(ctx, "listing checklist nodes by id prefix", query, prefix+"%", limit)
}

// ListOverdue returns incomplete leaves of implID whose deadline falls
// strictly before asOf, earliest deadline first.
func (r *SQLChecklistNodeRepo) ListOverdue(ctx context.Context, implID string, asOf time.Time) ([]*domain.ChecklistNode, error) {
	query := `SELECT ` + checklistNodeColumns + ` FROM checklist_nodes
		WHERE implantacao_id = ? AND completed = 0 AND deadline IS NOT NULL AND deadline < ?
		  AND kind IN ('tarefa', 'subtarefa')
		ORDER BY deadline, order_key, id`
	return r.query(ctx, "listing overdue checklist nodes", query, implID, asOf.UTC().Format(dateLayout))
}

func (r *SQLChecklistNodeRepo) Update(ctx context.Context, n *domain.ChecklistNode) error {
	query := `UPDATE checklist_nodes SET parent_id = ?, kind = ?, order_key = ?, title = ?,
		description = ?, completed = ?, completion_date = ?, tag = ?, responsible = ?,
		day_offset = ?, business_days_only = ?, original_deadline = ?, deadline = ?,
		updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableString(n.ParentID),
		string(n.Kind),
		n.OrderKey,
		n.Title,
		n.Description,
		boolToInt(n.Completed),
		nullableTimeToString(n.CompletionDate, timestampLayout),
		string(n.Tag),
		n.Responsible,
		nullableIntToValue(n.DayOffset),
		boolToInt(n.BusinessDaysOnly),
		nullableTimeToString(n.OriginalDeadline, dateLayout),
		nullableTimeToString(n.Deadline, dateLayout),
		formatTimestamp(n.UpdatedAt),
		n.ID,
	)
	if err != nil {
		return fmt.Errorf("updating checklist node: %w", err)
	}
	return requireAffected(res, "checklist node")
}

func (r *SQLChecklistNodeRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM checklist_nodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting checklist node: %w", err)
	}
	return requireAffected(res, "checklist node")
}

func (r *SQLChecklistNodeRepo) query(ctx context.Context, op, query string, args ...any) ([]*domain.ChecklistNode, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	return r.scanNodes(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanNode scans a single checklist node from a *sql.Row.
func (r *SQLChecklistNodeRepo) scanNode(row *sql.Row) (*domain.ChecklistNode, error) {
	n, err := scanChecklistNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("checklist node: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning checklist node: %w", err)
	}
	return n, nil
}

// scanNodes scans multiple checklist nodes from *sql.Rows.
func (r *SQLChecklistNodeRepo) scanNodes(rows *sql.Rows) ([]*domain.ChecklistNode, error) {
	var nodes []*domain.ChecklistNode
	for rows.Next() {
		n, err := scanChecklistNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning checklist node row: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating checklist nodes: %w", err)
	}
	return nodes, nil
}

func scanChecklistNode(s rowScanner) (*domain.ChecklistNode, error) {
	var n domain.ChecklistNode
	var kindStr, tagStr, createdAtStr, updatedAtStr string
	var parentID, implID, planID sql.NullString
	var completionStr, originalStr, deadlineStr sql.NullString
	var dayOffset sql.NullInt64
	var completedInt, businessInt int

	err := s.Scan(
		&n.ID, &parentID, &kindStr, &n.OrderKey, &n.Title, &n.Description,
		&completedInt, &completionStr, &tagStr, &n.Responsible, &dayOffset, &businessInt,
		&originalStr, &deadlineStr, &implID, &planID, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	n.Kind = domain.NodeKind(kindStr)
	n.Tag = domain.Tag(tagStr)
	n.Completed = intToBool(completedInt)
	n.BusinessDaysOnly = intToBool(businessInt)
	if parentID.Valid {
		n.ParentID = &parentID.String
	}
	if implID.Valid {
		n.ImplantacaoID = &implID.String
	}
	if planID.Valid {
		n.PlanoID = &planID.String
	}
	if dayOffset.Valid {
		v := int(dayOffset.Int64)
		n.DayOffset = &v
	}
	n.CompletionDate = parseNullableTime(completionStr, timestampLayout)
	n.OriginalDeadline = parseNullableTime(originalStr, dateLayout)
	n.Deadline = parseNullableTime(deadlineStr, dateLayout)

	if n.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if n.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &n, nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
