// Package sqlite is the backend's durable SyncStore for single-host
// deployments.
package sqlite

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

// SyncStore persists documents and clips in sqlite
type SyncStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSyncStore opens (and if needed creates) the store database
func NewSyncStore(path string, logger *zap.Logger) (*SyncStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}

	s := &SyncStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate store database: %w", err)
	}

	return s, nil
}

func (s *SyncStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sync_documents (
			sync_id TEXT PRIMARY KEY,
			doc TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS shared_clips (
			key TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// GetDocument returns the stored document, or an empty one for absent keys
func (s *SyncStore) GetDocument(ctx context.Context, syncID string) (memory.SyncDocument, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM sync_documents WHERE sync_id = ?`, syncID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return memory.EmptyDocument(), nil
	}
	if err != nil {
		return memory.SyncDocument{}, pkgerrors.NewDatabaseError("failed to read document").WithCause(err)
	}

	var doc memory.SyncDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		// A corrupt row is served as empty rather than failing the client;
		// the next put overwrites it.
		s.logger.Warn("stored document is corrupt, serving empty",
			zap.String("syncId", syncID),
			zap.Error(err),
		)
		return memory.EmptyDocument(), nil
	}
	doc.Normalize()
	return doc, nil
}

// PutDocument replaces the stored document
func (s *SyncStore) PutDocument(ctx context.Context, syncID string, doc memory.SyncDocument) error {
	doc.Normalize()
	raw, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.NewInternalError("failed to serialize document").WithCause(err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sync_documents (sync_id, doc, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(sync_id) DO UPDATE SET doc = excluded.doc, updated_at = CURRENT_TIMESTAMP`,
		syncID, string(raw),
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("failed to write document").WithCause(err)
	}
	return nil
}

// ListClips returns all pending clips in key order
func (s *SyncStore) ListClips(ctx context.Context) ([]memory.SharedClip, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, data FROM shared_clips ORDER BY key`)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("failed to list clips").WithCause(err)
	}
	defer rows.Close()

	clips := []memory.SharedClip{}
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, pkgerrors.NewDatabaseError("failed to scan clip").WithCause(err)
		}
		var data memory.ClipData
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			s.logger.Warn("skipping corrupt clip", zap.String("key", key), zap.Error(err))
			continue
		}
		clips = append(clips, memory.SharedClip{Key: key, Data: data})
	}
	return clips, rows.Err()
}

// AppendClip stores a clip under a fresh key
func (s *SyncStore) AppendClip(ctx context.Context, data memory.ClipData) (memory.SharedClip, error) {
	clip := memory.SharedClip{Key: memory.NewClipKey(), Data: data}
	raw, err := json.Marshal(clip.Data)
	if err != nil {
		return memory.SharedClip{}, pkgerrors.NewInternalError("failed to serialize clip").WithCause(err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO shared_clips (key, data) VALUES (?, ?)`,
		clip.Key, string(raw),
	)
	if err != nil {
		return memory.SharedClip{}, pkgerrors.NewDatabaseError("failed to append clip").WithCause(err)
	}
	return clip, nil
}

// DeleteClip removes a clip; absent keys are ignored
func (s *SyncStore) DeleteClip(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM shared_clips WHERE key = ?`, key)
	if err != nil {
		return pkgerrors.NewDatabaseError("failed to delete clip").WithCause(err)
	}
	return nil
}

// Close closes the database connection
func (s *SyncStore) Close() error {
	return s.db.Close()
}
