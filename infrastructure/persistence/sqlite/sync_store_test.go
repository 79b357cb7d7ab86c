package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"secondbrain-backend/domain/memory"
)

func newTestStore(t *testing.T) *SyncStore {
	t.Helper()
	store, err := NewSyncStore(filepath.Join(t.TempDir(), "store.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGetDocument_AbsentKeyReadsEmpty(t *testing.T) {
	store := newTestStore(t)

	doc, err := store.GetDocument(context.Background(), "never-seen")

	require.NoError(t, err)
	assert.NotNil(t, doc.Memories)
	assert.Empty(t, doc.Memories)
}

func TestPutDocument_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	ctx := context.Background()
	doc := memory.SyncDocument{
		Memories: []memory.Memory{
			{
				ID:       "m1",
				Kind:     memory.KindVoice,
				Date:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
				Title:    "note",
				Category: memory.CategoryPersonal,
				Voice:    &memory.VoicePayload{Transcript: "hello"},
			},
		},
		Courses: []string{"Compilers"},
	}

	store, err := NewSyncStore(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.PutDocument(ctx, "family-42", doc))
	require.NoError(t, store.Close())

	reopened, err := NewSyncStore(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetDocument(ctx, "family-42")
	require.NoError(t, err)
	require.Len(t, got.Memories, 1)
	assert.Equal(t, "note", got.Memories[0].Title)
	assert.Equal(t, "hello", got.Memories[0].Voice.Transcript)
}

func TestGetDocument_CorruptRowServedAsEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO sync_documents (sync_id, doc) VALUES (?, ?)`,
		"family-42", "{not json",
	)
	require.NoError(t, err)

	doc, err := store.GetDocument(ctx, "family-42")
	require.NoError(t, err)
	assert.Empty(t, doc.Memories)

	// The next put heals the row
	require.NoError(t, store.PutDocument(ctx, "family-42", memory.SyncDocument{
		Courses: []string{"Healed"},
	}))
	doc, err = store.GetDocument(ctx, "family-42")
	require.NoError(t, err)
	assert.Equal(t, []string{"Healed"}, doc.Courses)
}

func TestClips_AppendListDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, err := store.AppendClip(ctx, memory.ClipData{URL: "https://a", Title: "A"})
	require.NoError(t, err)
	b, err := store.AppendClip(ctx, memory.ClipData{URL: "https://b", Title: "B"})
	require.NoError(t, err)

	clips, err := store.ListClips(ctx)
	require.NoError(t, err)
	require.Len(t, clips, 2)
	assert.Equal(t, a.Key, clips[0].Key)
	assert.Equal(t, "https://a", clips[0].Data.URL)

	require.NoError(t, store.DeleteClip(ctx, a.Key))
	require.NoError(t, store.DeleteClip(ctx, a.Key))

	clips, err = store.ListClips(ctx)
	require.NoError(t, err)
	require.Len(t, clips, 1)
	assert.Equal(t, b.Key, clips[0].Key)
}

func TestListClips_SkipsCorruptEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AppendClip(ctx, memory.ClipData{URL: "https://good"})
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx,
		`INSERT INTO shared_clips (key, data) VALUES (?, ?)`,
		"zzz-corrupt", "{not json",
	)
	require.NoError(t, err)

	clips, err := store.ListClips(ctx)
	require.NoError(t, err)
	require.Len(t, clips, 1)
	assert.Equal(t, "https://good", clips[0].Data.URL)
}
