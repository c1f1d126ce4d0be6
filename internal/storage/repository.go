// Package storage is the persistence layer: a sqlite-backed repository over
// the relational schema in migrations/. It is both the write side used by the
// services and the read side ("ledger store") the balance calculator
// aggregates over.
//
// Monetary columns hold integer cents; conversion to decimals happens at the
// package boundary so SQL SUMs stay exact.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DBTX is satisfied by *sql.DB and *sql.Tx so every query method works both
// standalone and inside an explicit transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repository struct {
	db   DBTX
	root *sql.DB // nil when this Repository is transaction-scoped
}

// NewRepository opens (creating if needed) the sqlite database at dbPath and
// runs pending migrations.
//
// The DSN uses _txlock=immediate: explicit transactions take the write lock
// up front, so a guard's check-then-insert sequence serializes against other
// writers instead of racing them.
func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_txlock=immediate&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, root: db}, nil
}

func (r *Repository) Close() error {
	if r.root != nil {
		return r.root.Close()
	}
	return nil
}

// InTx runs fn against a transaction-scoped Repository and commits if fn
// returns nil. Recurring execution (transaction insert + schedule advance)
// and savings deduction (transfer insert + goal increment) use this for
// their atomic pairs; the transaction guard uses it to serialize
// check-then-write. Calls nest: inside a transaction fn runs on the same one.
func (r *Repository) InTx(ctx context.Context, fn func(*Repository) error) error {
	if r.root == nil {
		return fn(r)
	}

	tx, err := r.root.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&Repository{db: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
