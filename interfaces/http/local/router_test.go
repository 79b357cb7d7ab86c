package local

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"secondbrain-backend/application/repository"
	"secondbrain-backend/domain/memory"
	"secondbrain-backend/pkg/observability"
	syncengine "secondbrain-backend/sync"
)

// stubCache keeps the document in memory.
type stubCache struct {
	mu  sync.Mutex
	doc memory.SyncDocument
}

func (c *stubCache) Load(ctx context.Context) (memory.SyncDocument, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc := c.doc
	doc.Normalize()
	return doc.Clone(), nil
}

func (c *stubCache) Store(ctx context.Context, doc memory.SyncDocument) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc = doc.Clone()
	return nil
}

func (c *stubCache) Close() error { return nil }

// stubStore serves an empty remote document.
type stubStore struct{}

func (stubStore) Fetch(ctx context.Context, syncID string) (memory.SyncDocument, error) {
	return memory.EmptyDocument(), nil
}

func (stubStore) Replace(ctx context.Context, syncID string, doc memory.SyncDocument) error {
	return nil
}

// stubInbox serves a fixed clip list.
type stubInbox struct {
	mu    sync.Mutex
	clips []memory.SharedClip
}

func (i *stubInbox) List(ctx context.Context) ([]memory.SharedClip, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]memory.SharedClip, len(i.clips))
	copy(out, i.clips)
	return out, nil
}

func (i *stubInbox) Append(ctx context.Context, url, title, text string) (memory.SharedClip, error) {
	clip := memory.SharedClip{Key: memory.NewClipKey(), Data: memory.ClipData{URL: url, Title: title, Content: text}}
	i.mu.Lock()
	i.clips = append(i.clips, clip)
	i.mu.Unlock()
	return clip, nil
}

func (i *stubInbox) Delete(ctx context.Context, key string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	kept := i.clips[:0]
	for _, c := range i.clips {
		if c.Key != key {
			kept = append(kept, c)
		}
	}
	i.clips = kept
	return nil
}

type fixture struct {
	repo    *repository.Repository
	inbox   *stubInbox
	handler http.Handler
	savedID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:  repository.New(zap.NewNop()),
		inbox: &stubInbox{},
	}
	engine := syncengine.NewEngine(
		f.repo, &stubCache{}, stubStore{}, f.inbox,
		observability.NewCollector("test"), zap.NewNop(), syncengine.Options{},
	)
	router := NewRouter(f.repo, engine, observability.NewCollector("test2"), zap.NewNop(),
		func(id string) error {
			f.savedID = id
			return nil
		})
	f.handler = router.Setup()
	return f
}

func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// envelope mirrors the standard response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func TestCreateMemory_HappyPath(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/memories", map[string]any{
		"kind":     "voice",
		"title":    "standup notes",
		"category": "personal",
		"voice":    map[string]string{"transcript": "we shipped it"},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var created memory.Memory
	decodeData(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, memory.KindVoice, created.Kind)
	assert.False(t, created.Date.IsZero())
}

func TestCreateMemory_RejectsUnknownKind(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/memories", map[string]any{
		"kind":     "hologram",
		"title":    "nope",
		"category": "personal",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateMemory_RejectsMissingPayload(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/memories", map[string]any{
		"kind":     "web",
		"title":    "no payload",
		"category": "personal",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateMemory_PatchesTitle(t *testing.T) {
	f := newFixture(t)
	added, err := f.repo.AddMemory(memory.Memory{
		Kind:     memory.KindWeb,
		Title:    "before",
		Category: memory.CategoryPersonal,
		Web:      &memory.WebPayload{URL: "https://a"},
	})
	require.NoError(t, err)

	rec := f.do(t, http.MethodPatch, "/v1/memories/"+added.ID,
		map[string]string{"title": "after"})

	require.Equal(t, http.StatusOK, rec.Code)
	var updated memory.Memory
	decodeData(t, rec, &updated)
	assert.Equal(t, "after", updated.Title)
	assert.Equal(t, "https://a", updated.Web.URL)
}

func TestUpdateMemory_UnknownIDIs404(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPatch, "/v1/memories/nope", map[string]string{"title": "x"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkDeleteMemories(t *testing.T) {
	f := newFixture(t)
	a, err := f.repo.AddMemory(memory.Memory{
		Kind: memory.KindWeb, Title: "a", Category: memory.CategoryPersonal,
		Web: &memory.WebPayload{URL: "https://a"},
	})
	require.NoError(t, err)
	b, err := f.repo.AddMemory(memory.Memory{
		Kind: memory.KindWeb, Title: "b", Category: memory.CategoryPersonal,
		Web: &memory.WebPayload{URL: "https://b"},
	})
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/v1/memories/bulk-delete",
		map[string][]string{"ids": {a.ID, "missing"}})

	require.Equal(t, http.StatusNoContent, rec.Code)
	ms := f.repo.Memories()
	require.Len(t, ms, 1)
	assert.Equal(t, b.ID, ms[0].ID)
}

func TestBulkDeleteMemories_EmptyListIsBadRequest(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/memories/bulk-delete",
		map[string][]string{"ids": {}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTask_IdeaOutsidePersonalIsRejected(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/tasks", map[string]string{
		"title":    "brainstorm",
		"category": "college",
		"status":   "idea",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.repo.Tasks())
}

func TestCourses_AddAndList(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/courses", map[string]string{"name": "  Compilers  "})
	require.Equal(t, http.StatusOK, rec.Code)

	// Duplicate add is acknowledged but changes nothing
	rec = f.do(t, http.MethodPost, "/v1/courses", map[string]string{"name": "Compilers"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/courses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var courses []string
	decodeData(t, rec, &courses)
	assert.Equal(t, []string{"Compilers"}, courses)
}

func TestSetSyncID_PersistsBeforeEngine(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/v1/sync-id", map[string]string{"syncId": "family-42"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "family-42", f.savedID)
}

func TestClips_PendingAndDrain(t *testing.T) {
	f := newFixture(t)
	f.inbox.clips = []memory.SharedClip{
		{Key: "01A", Data: memory.ClipData{URL: "https://a", Title: "A"}},
	}

	rec := f.do(t, http.MethodPost, "/v1/clips/drain", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string]int
	decodeData(t, rec, &result)
	assert.Equal(t, 1, result["ingested"])
	assert.Equal(t, 0, result["pending"])
	assert.Len(t, f.repo.Memories(), 1)

	rec = f.do(t, http.MethodGet, "/v1/clips/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &result)
	assert.Equal(t, 0, result["pending"])
}

func TestGetDocument_ReturnsBareWorkingSet(t *testing.T) {
	f := newFixture(t)
	_, err := f.repo.AddMemory(memory.Memory{
		Kind: memory.KindWeb, Title: "a", Category: memory.CategoryPersonal,
		Web: &memory.WebPayload{URL: "https://a"},
	})
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/v1/document", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var doc memory.SyncDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Memories, 1)
}
