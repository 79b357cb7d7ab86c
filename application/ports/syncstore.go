package ports

import (
	"context"

	"secondbrain-backend/domain/memory"
)

// SyncStore is the backend's persistence port for the sync protocol.
// Implementations exist for in-memory, SQLite and DynamoDB storage.
type SyncStore interface {
	// GetDocument retrieves the document for a syncId. An absent key yields
	// an empty document, never an error: the client treats absence and the
	// empty state identically.
	GetDocument(ctx context.Context, syncID string) (memory.SyncDocument, error)

	// PutDocument replaces the whole document for a syncId. There is no
	// partial-update verb.
	PutDocument(ctx context.Context, syncID string, doc memory.SyncDocument) error

	// ListClips returns all pending shared clips in key order.
	ListClips(ctx context.Context) ([]memory.SharedClip, error)

	// AppendClip stores one clip and returns it with its assigned key.
	AppendClip(ctx context.Context, data memory.ClipData) (memory.SharedClip, error)

	// DeleteClip removes one clip. Deleting an absent key is not an error;
	// some backend variants clear the whole list instead of single keys and
	// the protocol tolerates that.
	DeleteClip(ctx context.Context, key string) error

	// Close releases the underlying store resources.
	Close() error
}
