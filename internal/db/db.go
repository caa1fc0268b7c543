package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/existflow/binge/internal/config"
	"github.com/existflow/binge/internal/logger"
	"github.com/existflow/binge/internal/model"
)

//go:embed schema/*.sql
var embedMigrations embed.FS

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is the entity store. Mutations are written into a pending transaction
// that Save commits; reads see pending changes.
type DB struct {
	conn *sql.DB

	mu        sync.Mutex
	tx        *sql.Tx
	observers []func(Change)
	obsMu     sync.RWMutex
}

// DefaultDBPath returns the default database path (~/.binge/binge.db)
func DefaultDBPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "binge.db"), nil
}

// Open opens or creates the SQLite database and applies migrations
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := "file:" + dbPath +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("Database opened", logger.F("path", dbPath))
	return &DB{conn: conn}, nil
}

// OpenDefault opens the database at the default path
func OpenDefault() (*DB, error) {
	path, err := DefaultDBPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

func migrate(conn *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(conn, "schema"); err != nil {
		return err
	}
	return nil
}

// gooseLogger routes migration output to the application log instead of stdout
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf(format, v...), logger.F("component", "migrate"))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	logger.Error(fmt.Sprintf(format, v...), logger.F("component", "migrate"))
	os.Exit(1)
}

// Close commits pending changes and closes the database
func (db *DB) Close() error {
	db.Save()
	return db.conn.Close()
}

// q returns the pending transaction if there is one, so reads observe uncommitted edits
func (db *DB) q() querier {
	if db.tx != nil {
		return db.tx
	}
	return db.conn
}

// begin returns the pending transaction, starting one if needed. Callers hold mu.
// The transaction outlives any single request, so it is not bound to a caller context.
func (db *DB) begin() (*sql.Tx, error) {
	if db.tx != nil {
		return db.tx, nil
	}
	tx, err := db.conn.BeginTx(context.Background(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	db.tx = tx
	return tx, nil
}

// mutate runs fn inside a savepoint of the pending transaction and publishes
// the changes it reports once the lock is released. A failed fn leaves no trace.
func (db *DB) mutate(ctx context.Context, fn func(tx *sql.Tx) ([]Change, error)) error {
	db.mu.Lock()
	fresh := db.tx == nil
	tx, err := db.begin()
	if err != nil {
		db.mu.Unlock()
		return err
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT mutation"); err != nil {
		db.abort(fresh)
		db.mu.Unlock()
		return fmt.Errorf("failed to open savepoint: %w", err)
	}

	changes, err := fn(tx)
	if err != nil {
		_, _ = tx.ExecContext(ctx, "ROLLBACK TO mutation")
		_, _ = tx.ExecContext(ctx, "RELEASE mutation")
		db.abort(fresh)
		db.mu.Unlock()
		return err
	}

	if _, err := tx.ExecContext(ctx, "RELEASE mutation"); err != nil {
		db.abort(true)
		db.mu.Unlock()
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	db.mu.Unlock()

	db.publish(changes)
	return nil
}

// abort rolls back the pending transaction when it holds nothing worth keeping
func (db *DB) abort(fresh bool) {
	if fresh && db.tx != nil {
		_ = db.tx.Rollback()
		db.tx = nil
	}
}

// HasChanges reports whether there are uncommitted mutations
func (db *DB) HasChanges() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.tx != nil
}

// Flush commits pending mutations. It is a no-op when nothing changed.
// On failure the pending edits are discarded and ErrPersistence is returned.
func (db *DB) Flush() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.tx == nil {
		return nil
	}

	tx := db.tx
	db.tx = nil
	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	return nil
}

// Save commits pending mutations. Failures are logged and the uncommitted edits dropped.
func (db *DB) Save() {
	if err := db.Flush(); err != nil {
		logger.Error("Failed to save changes", logger.F("error", err))
	}
}

// Discard drops pending mutations
func (db *DB) Discard() {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.tx != nil {
		_ = db.tx.Rollback()
		db.tx = nil
	}
}
