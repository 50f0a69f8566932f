package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"sharedlists/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS lists (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL CHECK (title <> ''),
	owner_id TEXT NOT NULL CHECK (owner_id <> ''),
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS list_shares (
	list_id INTEGER NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL CHECK (user_id <> ''),
	permission TEXT NOT NULL CHECK (permission IN ('owner', 'editor', 'viewer')),
	shared_at INTEGER NOT NULL,
	PRIMARY KEY (list_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_list_shares_user ON list_shares(user_id);

CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	list_id INTEGER NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
	content TEXT NOT NULL CHECK (content <> ''),
	completed INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_list ON tasks(list_id);
`

type sqliteStore struct {
	db *sql.DB
}

// NewStore opens the database at dataSourceName and creates the schema.
// Foreign keys are enabled on every connection the pool opens.
func NewStore(dataSourceName string) (*sqliteStore, error) {
	db, err := sql.Open(driverName, withForeignKeys(dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" databases whole.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"driver":         driverName,
		"cgo":            CGOEnabled,
		"dataSourceName": dataSourceName,
	}).Debug("SQLite store ready")
	return &sqliteStore{db: db}, nil
}

func withForeignKeys(dataSourceName string) string {
	sep := "?"
	if strings.Contains(dataSourceName, "?") {
		sep = "&"
	}
	return dataSourceName + sep + foreignKeysParam
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction, committing only if fn succeeds.
func (s *sqliteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// requireList fails with core.ErrListNotFound unless the list exists when
// tx runs. Inserts of child rows check it in the same transaction.
func requireList(ctx context.Context, tx *sql.Tx, listID int64) error {
	var exists bool
	err := tx.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM lists WHERE id = ?)", listID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("list %d: %w", listID, core.ErrListNotFound)
	}
	return nil
}

func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanList(row scanner) (*core.List, error) {
	var l core.List
	var createdAt int64
	if err := row.Scan(&l.ID, &l.Title, &l.OwnerID, &createdAt); err != nil {
		return nil, err
	}
	l.CreatedAt = fromUnix(createdAt)
	return &l, nil
}

func scanGrant(row scanner) (*core.Grant, error) {
	var g core.Grant
	var permission string
	var sharedAt int64
	if err := row.Scan(&g.ListID, &g.UserID, &permission, &sharedAt); err != nil {
		return nil, err
	}
	level, err := core.ParsePermission(permission)
	if err != nil {
		return nil, err
	}
	g.Permission = level
	g.SharedAt = fromUnix(sharedAt)
	return &g, nil
}

func scanTask(row scanner) (*core.Task, error) {
	var t core.Task
	var createdAt int64
	if err := row.Scan(&t.ID, &t.ListID, &t.Content, &t.Completed, &createdAt); err != nil {
		return nil, err
	}
	t.CreatedAt = fromUnix(createdAt)
	return &t, nil
}
