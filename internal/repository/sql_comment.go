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

type SQLCommentRepo struct {
	db db.DBTX
}

func NewSQLCommentRepo(tx db.DBTX) *SQLCommentRepo {
	return &SQLCommentRepo{db: tx}
}

func (r *SQLCommentRepo) Create(ctx context.Context, c *domain.Comment) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO node_comments (id, node_id, author, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.NodeID, c.Author, c.Body, formatTimestamp(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}
	return nil
}

func (r *SQLCommentRepo) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, node_id, author, body, created_at FROM node_comments WHERE id = ?`, id)
	c, err := scanComment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comment: %w", ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

func (r *SQLCommentRepo) ListByNode(ctx context.Context, nodeID string) ([]*domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, node_id, author, body, created_at FROM node_comments WHERE node_id = ? ORDER BY created_at, id`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}
	return out, nil
}

func (r *SQLCommentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM node_comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	return requireAffected(res, "comment")
}

func scanComment(s rowScanner) (*domain.Comment, error) {
	var c domain.Comment
	var createdStr string
	if err := s.Scan(&c.ID, &c.NodeID, &c.Author, &c.Body, &createdStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning comment: %w", err)
	}
	t, err := parseTimestamp(createdStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	c.CreatedAt = t
	return &c, nil
}
