package testutil

import (
	"context"
	"database/sql"
	"strings"
	"sync/atomic"

	"github.com/alexanderramin/implanta/internal/db"
)

// FailOnNthExecUoW runs transactions through the real unit of work and fails
// the FailOn-th write (counting from 1) with Err, so rollback paths can be
// exercised at a chosen point of a multi-write operation. When Table is set
// only statements mentioning it are counted. Reads are never counted.
type FailOnNthExecUoW struct {
	Store  *db.Store
	FailOn int32
	Table  string
	Err    error

	attempts atomic.Int32
}

// Attempts reports how many counted writes were issued across all
// transactions, the failing one included.
func (u *FailOnNthExecUoW) Attempts() int { return int(u.attempts.Load()) }

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return db.NewSQLUnitOfWork(u.Store).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &faultyTx{DBTX: tx, uow: u})
	})
}

// faultyTx counts per transaction; each WithinTx call starts from zero.
type faultyTx struct {
	db.DBTX
	uow   *FailOnNthExecUoW
	count int32
}

func (f *faultyTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.uow.Table == "" || strings.Contains(query, f.uow.Table) {
		f.count++
		f.uow.attempts.Add(1)
		if f.count == f.uow.FailOn {
			return nil, f.uow.Err
		}
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
