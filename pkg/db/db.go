// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cloudflare/backoff"
	_ "github.com/lib/pq"
)

const (
	maxConnectBackoff  = 30 * time.Second
	connectBackoffStep = 500 * time.Millisecond
)

// DB is the transactional query/execute interface the core planner and
// deployment driver depend on. The concrete implementation is PostgreSQL
// over the standard wire protocol via lib/pq; FakeDB exists for tests that
// never touch a real server.
type DB interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Close() error
}

// RDB wraps a *sql.DB opened against PostgreSQL. A migration runs inside a
// single transaction, so RDB does not retry individual statements:
// retrying one that already partially applied under lock contention is the
// server-side DO-block's job (pkg/plan/retry.go), not the client's. The
// one place RDB retries is the initial connection attempt, where a deploy
// pipeline racing a database that is still coming up is routine.
type RDB struct {
	conn *sql.DB
}

// Open establishes a connection to dsn, retrying with exponential backoff
// while the server isn't yet accepting connections.
func Open(ctx context.Context, dsn string) (*RDB, error) {
	b := backoff.New(maxConnectBackoff, connectBackoffStep)

	var lastErr error
	for {
		conn, err := sql.Open("postgres", dsn)
		if err == nil {
			if pingErr := conn.PingContext(ctx); pingErr == nil {
				return &RDB{conn: conn}, nil
			} else {
				lastErr = pingErr
				_ = conn.Close()
			}
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ctx.Err(), lastErr)
		case <-time.After(b.Duration()):
		}
	}
}

func (db *RDB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.conn.BeginTx(ctx, nil)
}

func (db *RDB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, query, args...)
}

func (db *RDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.conn.ExecContext(ctx, query, args...)
}

func (db *RDB) Close() error {
	return db.conn.Close()
}

// ScanFirstValue scans the first value of a single-row, single-column
// result set, for current_database() and similar lookups the loader
// issues.
func ScanFirstValue[T any](rows *sql.Rows, dest *T) error {
	if rows.Next() {
		if err := rows.Scan(dest); err != nil {
			return err
		}
	}
	return rows.Err()
}
