// Package localcache is the device-side durable mirror of the sync
// document. It is read once at startup and written after every mutation, so
// the UI stays usable offline with last-known data.
package localcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"secondbrain-backend/domain/memory"
	pkgerrors "secondbrain-backend/pkg/errors"
)

// DocumentCache stores the single serialized sync document
type DocumentCache interface {
	// Load reads the cached document. A missing or corrupt cache yields an
	// empty document and no error; cache trouble must never block startup.
	Load(ctx context.Context) (memory.SyncDocument, error)

	// Store overwrites the cached document.
	Store(ctx context.Context, doc memory.SyncDocument) error

	Close() error
}

// SQLiteCache is a one-row sqlite document store
type SQLiteCache struct {
	db     *sql.DB
	logger *zap.Logger
}

// documentRowID pins the single row; the table only ever holds one document.
const documentRowID = 1

// NewSQLiteCache opens (and if needed creates) the cache database
func NewSQLiteCache(path string, logger *zap.Logger) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	c := &SQLiteCache{db: db, logger: logger}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}

	return c, nil
}

func (c *SQLiteCache) migrate() error {
	_, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS sync_document (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		doc TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

// Load reads the cached document. Corruption degrades to an empty document
// with a warning; the next Store heals the row.
func (c *SQLiteCache) Load(ctx context.Context) (memory.SyncDocument, error) {
	var raw string
	err := c.db.QueryRowContext(ctx,
		`SELECT doc FROM sync_document WHERE id = ?`, documentRowID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return memory.EmptyDocument(), nil
	}
	if err != nil {
		c.logger.Warn("local cache read failed, starting empty", zap.Error(err))
		return memory.EmptyDocument(), nil
	}

	var doc memory.SyncDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		c.logger.Warn("local cache is corrupt, starting empty", zap.Error(err))
		return memory.EmptyDocument(), nil
	}
	doc.Normalize()
	return doc, nil
}

// Store overwrites the cached document
func (c *SQLiteCache) Store(ctx context.Context, doc memory.SyncDocument) error {
	doc.Normalize()
	raw, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.NewInternalError("failed to serialize document").WithCause(err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO sync_document (id, doc, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = CURRENT_TIMESTAMP`,
		documentRowID, string(raw),
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("failed to write local cache").WithCause(err)
	}
	return nil
}

// Close closes the database connection
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
