package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/implanta/internal/db"
	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/google/uuid"
)

const historyColumns = `id, node_id, implantacao_id, kind, old_value, new_value, actor, occurred_at`

// SQLHistoryRepo is the append-only event log. It has no update or delete.
type SQLHistoryRepo struct {
	db db.DBTX
}

func NewSQLHistoryRepo(tx db.DBTX) *SQLHistoryRepo {
	return &SQLHistoryRepo{db: tx}
}

// Append stores e. Ids are UUIDv7 so that events sharing a timestamp still
// sort in insertion order.
func (r *SQLHistoryRepo) Append(ctx context.Context, e *domain.HistoryEvent) error {
	if e.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generating event id: %w", err)
		}
		e.ID = id.String()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	query := `INSERT INTO history_events (` + historyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.NodeID, e.ImplantacaoID, string(e.Kind),
		e.OldValue, e.NewValue, e.Actor, formatTimestamp(e.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("appending history event: %w", err)
	}
	return nil
}

func (r *SQLHistoryRepo) ListForNode(ctx context.Context, nodeID string) ([]*domain.HistoryEvent, error) {
	query := `SELECT ` + historyColumns + ` FROM history_events WHERE node_id = ? ORDER BY occurred_at, id`
	return r.list(ctx, query, nodeID)
}

func (r *SQLHistoryRepo) ListForImplementation(ctx context.Context, implID string) ([]*domain.HistoryEvent, error) {
	query := `SELECT ` + historyColumns + ` FROM history_events WHERE implantacao_id = ? ORDER BY occurred_at, id`
	return r.list(ctx, query, implID)
}

func (r *SQLHistoryRepo) list(ctx context.Context, query string, arg string) ([]*domain.HistoryEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing history events: %w", err)
	}
	defer rows.Close()

	var events []*domain.HistoryEvent
	for rows.Next() {
		e, err := scanHistoryEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history events: %w", err)
	}
	return events, nil
}

func scanHistoryEvent(rows *sql.Rows) (*domain.HistoryEvent, error) {
	var e domain.HistoryEvent
	var kindStr, occurredStr string
	if err := rows.Scan(&e.ID, &e.NodeID, &e.ImplantacaoID, &kindStr,
		&e.OldValue, &e.NewValue, &e.Actor, &occurredStr); err != nil {
		return nil, fmt.Errorf("scanning history event: %w", err)
	}
	e.Kind = domain.EventKind(kindStr)
	t, err := parseTimestamp(occurredStr)
	if err != nil {
		return nil, fmt.Errorf("parsing occurred_at: %w", err)
	}
	e.OccurredAt = t
	return &e, nil
}
