package db

import (
	"context"
	"database/sql"
	"errors"
)

// TxDB adapts an already-open transaction to the DB interface, so the
// loader and planner — both written against DB — run every query and
// statement on the one transaction a migration owns, per spec.md §6
// "Database driver contract... both on the enclosing transaction".
type TxDB struct {
	tx *sql.Tx
}

// NewTxDB wraps tx.
func NewTxDB(tx *sql.Tx) *TxDB {
	return &TxDB{tx: tx}
}

// BeginTx always fails: a migration's transaction does not nest.
func (t *TxDB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return nil, errors.New("db: TxDB does not support nested transactions")
}

func (t *TxDB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *TxDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

// Close is a no-op: the transaction's lifetime is owned by whoever called
// BeginTx, not by this wrapper.
func (t *TxDB) Close() error { return nil }
