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

const implementationColumns = `id, name, customer, responsible, start_date, created_at, updated_at`

type SQLImplementationRepo struct {
	db db.DBTX
}

func NewSQLImplementationRepo(tx db.DBTX) *SQLImplementationRepo {
	return &SQLImplementationRepo{db: tx}
}

func (r *SQLImplementationRepo) Create(ctx context.Context, i *domain.Implementation) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	query := `INSERT INTO implementations (` + implementationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		i.ID, i.Name, i.Customer, i.Responsible,
		i.StartDate.Format(dateLayout),
		formatTimestamp(i.CreatedAt),
		formatTimestamp(i.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting implementation: %w", err)
	}
	return nil
}

func (r *SQLImplementationRepo) GetByID(ctx context.Context, id string) (*domain.Implementation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+implementationColumns+` FROM implementations WHERE id = ?`, id)
	i, err := scanImplementation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("implementation: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning implementation: %w", err)
	}
	return i, nil
}

func (r *SQLImplementationRepo) List(ctx context.Context) ([]*domain.Implementation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+implementationColumns+` FROM implementations ORDER BY start_date, name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing implementations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Implementation
	for rows.Next() {
		i, err := scanImplementation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning implementation row: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating implementations: %w", err)
	}
	return out, nil
}

func scanImplementation(s rowScanner) (*domain.Implementation, error) {
	var i domain.Implementation
	var startStr, createdStr, updatedStr string
	if err := s.Scan(&i.ID, &i.Name, &i.Customer, &i.Responsible, &startStr, &createdStr, &updatedStr); err != nil {
		return nil, err
	}
	var err error
	if i.StartDate, err = time.Parse(dateLayout, startStr); err != nil {
		return nil, fmt.Errorf("parsing start_date: %w", err)
	}
	if i.CreatedAt, err = parseTimestamp(createdStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if i.UpdatedAt, err = parseTimestamp(updatedStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &i, nil
}
