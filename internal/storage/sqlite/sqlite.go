// Package sqlite implements C7's Storage/Transaction contract on top of
// ncruces/go-sqlite3, a CGo-free SQLite driver, the same backend and
// registration idiom (blank-imported driver + embed packages, then
// sql.Open("sqlite3", path)) the teacher uses for its own on-disk store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/edgeplane/corectl/internal/storage"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteStorage implements storage.Storage.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) a corectl database at path and runs
// any pending migrations.
func Open(ctx context.Context, path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single-writer discipline, matching the teacher's BEGIN IMMEDIATE story

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys=ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStorage{db: db, path: path}, nil
}

func (s *SQLiteStorage) Close() error         { return s.db.Close() }
func (s *SQLiteStorage) Path() string         { return s.path }
func (s *SQLiteStorage) UnderlyingDB() *sql.DB { return s.db }

// RunInTransaction executes fn within a single database transaction,
// committing on nil return and rolling back on error or panic, mirroring
// the teacher's RunInTransaction contract (storage.go doc comment).
func (s *SQLiteStorage) RunInTransaction(ctx context.Context, fn func(tx storage.Transaction) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	tx := &sqliteTx{db: sqlTx}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx, letting the same
// query code in category.go run either against the top-level connection
// or inside RunInTransaction. schedule.go and interest.go query s.db
// directly.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqliteTx adapts a live *sql.Tx to storage.Transaction.
type sqliteTx struct {
	db *sql.Tx
}

func (t *sqliteTx) q() querier { return t.db }
