package db

import (
	"context"
	"database/sql"
)

// DBTX is the common interface satisfied by both *sql.DB and *sql.Tx.
// Repository implementations depend on this interface instead of the
// concrete *sql.DB, enabling transactional composition.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Compile-time verification that *sql.DB and *sql.Tx satisfy DBTX.
var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
	_ DBTX = (*boundDBTX)(nil)
)

// boundDBTX rewrites queries written with '?' placeholders for its dialect.
type boundDBTX struct {
	inner   DBTX
	dialect Dialect
}

// Bind wraps inner so queries are rebound for dialect. Queries are always
// written with '?' placeholders.
func Bind(inner DBTX, dialect Dialect) DBTX {
	if dialect == SQLite {
		return inner
	}
	return &boundDBTX{inner: inner, dialect: dialect}
}

// DialectOf reports the dialect a DBTX speaks. Unwrapped handles are SQLite.
func DialectOf(tx DBTX) Dialect {
	if b, ok := tx.(*boundDBTX); ok {
		return b.dialect
	}
	return SQLite
}

func (b *boundDBTX) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return b.inner.ExecContext(ctx, b.dialect.Rebind(query), args...)
}

func (b *boundDBTX) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return b.inner.QueryContext(ctx, b.dialect.Rebind(query), args...)
}

func (b *boundDBTX) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return b.inner.QueryRowContext(ctx, b.dialect.Rebind(query), args...)
}
