package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/ukg/pkg/errors"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS snapshots (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

/*
Store keeps snapshots in a single SQLite table using the pure Go driver.
*/
type Store struct {
	db *sql.DB
}

/*
New opens (or creates) the database at path and ensures the schema exists.
*/
func New(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store requires a database path")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}

	log.Debug("sqlite snapshot store ready", "path", path)
	return &Store{db: db}, nil
}

/*
Put upserts data under key.
*/
func (store *Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO snapshots (key, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC(),
	)

	if err != nil {
		return errors.ErrSnapshot.WithMessagef("failed to store snapshot %s", key).Wrap(err)
	}

	return nil
}

/*
Get returns the data stored under key.
*/
func (store *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte

	err := store.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE key = ?`, key).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound.WithMessagef("snapshot %s not found", key)
	}

	if err != nil {
		return nil, errors.ErrSnapshot.WithMessagef("failed to load snapshot %s", key).Wrap(err)
	}

	return data, nil
}

/*
Close releases the database handle.
*/
func (store *Store) Close() error {
	return store.db.Close()
}
