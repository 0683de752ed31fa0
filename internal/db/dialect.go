package db

import (
	"context"
	"strconv"
	"strings"
)

// Dialect captures the few places where SQLite and PostgreSQL differ.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// Rebind converts '?' placeholders to '$n' for PostgreSQL. Question marks
// inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ForUpdate is the row-lock suffix for a SELECT that precedes an update in
// the same transaction. SQLite transactions are opened IMMEDIATE, which
// already holds the write lock.
func (d Dialect) ForUpdate() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

// admissionLockKey identifies the advisory lock guarding template admission.
const admissionLockKey = 7305001

// LockAdmission serializes template admission checks inside tx.
func LockAdmission(ctx context.Context, tx DBTX) error {
	if DialectOf(tx) != Postgres {
		return nil
	}
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(?)`, admissionLockKey)
	return err
}
