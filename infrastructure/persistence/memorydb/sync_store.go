// Package memorydb is the in-memory SyncStore used by tests and local
// development. Semantics match the durable stores: absent documents read as
// empty, clip deletes are idempotent.
package memorydb

import (
	"context"
	"sort"
	"sync"

	"secondbrain-backend/domain/memory"
)

// SyncStore is a map-backed store guarded by a RWMutex
type SyncStore struct {
	mu    sync.RWMutex
	docs  map[string]memory.SyncDocument
	clips map[string]memory.ClipData
}

// NewSyncStore creates an empty store
func NewSyncStore() *SyncStore {
	return &SyncStore{
		docs:  make(map[string]memory.SyncDocument),
		clips: make(map[string]memory.ClipData),
	}
}

// GetDocument returns the stored document, or an empty one for absent keys
func (s *SyncStore) GetDocument(ctx context.Context, syncID string) (memory.SyncDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[syncID]
	if !ok {
		return memory.EmptyDocument(), nil
	}
	return doc.Clone(), nil
}

// PutDocument replaces the stored document
func (s *SyncStore) PutDocument(ctx context.Context, syncID string, doc memory.SyncDocument) error {
	doc.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[syncID] = doc.Clone()
	return nil
}

// ListClips returns all clips sorted by key; ULID keys make that creation
// order.
func (s *SyncStore) ListClips(ctx context.Context) ([]memory.SharedClip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]memory.SharedClip, 0, len(s.clips))
	for key, data := range s.clips {
		out = append(out, memory.SharedClip{Key: key, Data: data})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// AppendClip stores a clip under a fresh key
func (s *SyncStore) AppendClip(ctx context.Context, data memory.ClipData) (memory.SharedClip, error) {
	clip := memory.SharedClip{Key: memory.NewClipKey(), Data: data}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clips[clip.Key] = clip.Data
	return clip, nil
}

// DeleteClip removes a clip; absent keys are ignored
func (s *SyncStore) DeleteClip(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clips, key)
	return nil
}

// Close is a no-op for the in-memory store
func (s *SyncStore) Close() error {
	return nil
}
