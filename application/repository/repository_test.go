package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"secondbrain-backend/domain/events"
	"secondbrain-backend/domain/memory"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	return New(zap.NewNop())
}

func webMemory(title, course string) memory.Memory {
	return memory.Memory{
		Kind:     memory.KindWeb,
		Title:    title,
		Category: memory.CategoryCollege,
		Course:   course,
		Web:      &memory.WebPayload{URL: "https://example.com/" + title},
	}
}

func moodleFile(course, moodleID string) memory.Memory {
	return memory.Memory{
		Kind:     memory.KindFile,
		Title:    "slides-" + moodleID,
		Category: memory.CategoryCollege,
		Course:   course,
		File: &memory.FilePayload{
			FileRef:    "files/" + moodleID,
			SourceType: memory.SourceMoodle,
			MoodleID:   moodleID,
		},
	}
}

// recorder captures published events for assertions.
type recorder struct {
	events []events.DomainEvent
}

func (r *recorder) record(ev events.DomainEvent) {
	r.events = append(r.events, ev)
}

func (r *recorder) ofType(eventType string) []events.DomainEvent {
	var out []events.DomainEvent
	for _, ev := range r.events {
		if ev.GetEventType() == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func TestAddMemory_AssignsIDAndDate(t *testing.T) {
	repo := newTestRepo(t)

	added, err := repo.AddMemory(webMemory("article", ""))

	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.False(t, added.Date.IsZero())

	got, ok := repo.GetMemory(added.ID)
	require.True(t, ok)
	assert.Equal(t, "article", got.Title)
}

func TestAddMemory_RejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.AddMemory(memory.Memory{Kind: memory.KindWeb, Title: "no payload"})

	assert.Error(t, err)
	assert.Empty(t, repo.Memories())
}

func TestAddMemory_KeepsNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	old := webMemory("old", "")
	old.Date = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := webMemory("recent", "")
	recent.Date = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.AddMemory(old)
	require.NoError(t, err)
	_, err = repo.AddMemory(recent)
	require.NoError(t, err)

	ms := repo.Memories()
	require.Len(t, ms, 2)
	assert.Equal(t, "recent", ms[0].Title)
	assert.Equal(t, "old", ms[1].Title)
}

func TestAddMemory_ImplicitlyRegistersCourse(t *testing.T) {
	repo := newTestRepo(t)
	rec := &recorder{}
	repo.Subscribe(rec.record)

	_, err := repo.AddMemory(webMemory("lecture", "Compilers"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Compilers"}, repo.Courses())
	assert.Len(t, rec.ofType("course.added"), 1)

	// Same course again: no new course, no second course event
	_, err = repo.AddMemory(webMemory("lecture-2", "Compilers"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Compilers"}, repo.Courses())
	assert.Len(t, rec.ofType("course.added"), 1)
}

func TestAddMemory_MoodleDuplicateIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)

	first, err := repo.AddMemory(moodleFile("Compilers", "m-77"))
	require.NoError(t, err)

	again, err := repo.AddMemory(moodleFile("Compilers", "m-77"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, repo.Memories(), 1)

	// Same moodle id in a different course is a distinct file
	other, err := repo.AddMemory(moodleFile("Databases", "m-77"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
	assert.Len(t, repo.Memories(), 2)
}

func TestUpdateMemory_PatchesOnlyNamedFields(t *testing.T) {
	repo := newTestRepo(t)
	added, err := repo.AddMemory(webMemory("draft", "Compilers"))
	require.NoError(t, err)

	hidden := true
	patched, ok := repo.UpdateMemory(added.ID, memory.MemoryPatch{IsHidden: &hidden})

	require.True(t, ok)
	assert.True(t, patched.IsHidden)
	assert.Equal(t, "draft", patched.Title)
	assert.Equal(t, added.ID, patched.ID)
	assert.Equal(t, "Compilers", patched.Course)
}

func TestUpdateMemory_AbsentIDIsNoOp(t *testing.T) {
	repo := newTestRepo(t)
	rec := &recorder{}
	repo.Subscribe(rec.record)

	_, ok := repo.UpdateMemory("nope", memory.MemoryPatch{})

	assert.False(t, ok)
	assert.Empty(t, rec.events)
}

func TestUpdateMemory_MovingCourseRegistersIt(t *testing.T) {
	repo := newTestRepo(t)
	added, err := repo.AddMemory(webMemory("lecture", "Compilers"))
	require.NoError(t, err)

	course := "Databases"
	_, ok := repo.UpdateMemory(added.ID, memory.MemoryPatch{Course: &course})

	require.True(t, ok)
	assert.Equal(t, []string{"Compilers", "Databases"}, repo.Courses())
}

func TestBulkDeleteMemories_SkipsAbsentIDsAndEmitsOneEvent(t *testing.T) {
	repo := newTestRepo(t)
	a, err := repo.AddMemory(webMemory("a", ""))
	require.NoError(t, err)
	b, err := repo.AddMemory(webMemory("b", ""))
	require.NoError(t, err)
	c, err := repo.AddMemory(webMemory("c", ""))
	require.NoError(t, err)

	rec := &recorder{}
	repo.Subscribe(rec.record)

	repo.BulkDeleteMemories([]string{a.ID, c.ID, "missing"})

	ms := repo.Memories()
	require.Len(t, ms, 1)
	assert.Equal(t, b.ID, ms[0].ID)

	deleted := rec.ofType("memories.deleted")
	require.Len(t, deleted, 1)
	assert.ElementsMatch(t, []string{a.ID, c.ID}, deleted[0].(events.MemoriesDeleted).MemoryIDs)
}

func TestBulkDeleteMemories_AllAbsentEmitsNothing(t *testing.T) {
	repo := newTestRepo(t)
	rec := &recorder{}
	repo.Subscribe(rec.record)

	repo.BulkDeleteMemories([]string{"x", "y"})

	assert.Empty(t, rec.events)
}

func TestAddCourse_TrimsAndDeduplicates(t *testing.T) {
	repo := newTestRepo(t)

	assert.True(t, repo.AddCourse("  Operating Systems  "))
	assert.False(t, repo.AddCourse("Operating Systems"))
	assert.False(t, repo.AddCourse("  Operating Systems"))
	assert.False(t, repo.AddCourse(""))
	assert.False(t, repo.AddCourse("   "))

	assert.Equal(t, []string{"Operating Systems"}, repo.Courses())
}

func TestAddCourse_IsCaseSensitive(t *testing.T) {
	repo := newTestRepo(t)

	assert.True(t, repo.AddCourse("algorithms"))
	assert.True(t, repo.AddCourse("Algorithms"))

	assert.Equal(t, []string{"algorithms", "Algorithms"}, repo.Courses())
}

func TestMergeMemories_OneBatchOneEvent(t *testing.T) {
	repo := newTestRepo(t)
	rec := &recorder{}
	repo.Subscribe(rec.record)

	now := time.Now()
	batch := []memory.Memory{
		memory.FromSharedClip(memory.SharedClip{Data: memory.ClipData{URL: "https://a"}}, now),
		memory.FromSharedClip(memory.SharedClip{Data: memory.ClipData{URL: "https://b"}}, now),
	}

	n := repo.MergeMemories(batch)

	assert.Equal(t, 2, n)
	assert.Len(t, repo.Memories(), 2)
	merged := rec.ofType("memories.merged")
	require.Len(t, merged, 1)
	assert.Equal(t, 2, merged[0].(events.MemoriesMerged).Count)
}

func TestMergeMemories_DoesNotDeduplicate(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()
	clip := memory.SharedClip{Data: memory.ClipData{URL: "https://same"}}

	repo.MergeMemories([]memory.Memory{memory.FromSharedClip(clip, now)})
	repo.MergeMemories([]memory.Memory{memory.FromSharedClip(clip, now)})

	assert.Len(t, repo.Memories(), 2)
}

func TestReplaceAll_DiscardsLocalStateButKeepsTasks(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.AddMemory(webMemory("local-only", "LocalCourse"))
	require.NoError(t, err)
	_, err = repo.AddTask(memory.Task{Title: "keep me", Category: memory.CategoryPersonal})
	require.NoError(t, err)

	rec := &recorder{}
	repo.Subscribe(rec.record)

	remote := memory.SyncDocument{
		Memories: []memory.Memory{
			{
				ID:       memory.NewID(),
				Kind:     memory.KindWeb,
				Date:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
				Title:    "remote",
				Category: memory.CategoryPersonal,
				Web:      &memory.WebPayload{URL: "https://remote"},
			},
		},
		Courses: []string{"RemoteCourse"},
	}

	repo.ReplaceAll(remote)

	ms := repo.Memories()
	require.Len(t, ms, 1)
	assert.Equal(t, "remote", ms[0].Title)
	assert.Equal(t, []string{"RemoteCourse"}, repo.Courses())
	assert.Len(t, repo.Tasks(), 1)
	assert.Len(t, rec.ofType("document.replaced"), 1)
}

func TestReplaceAll_NormalizesNilDocument(t *testing.T) {
	repo := newTestRepo(t)

	repo.ReplaceAll(memory.SyncDocument{})

	doc := repo.Document()
	assert.NotNil(t, doc.Memories)
	assert.NotNil(t, doc.Courses)
	assert.Empty(t, doc.Memories)
}

func TestDocument_SnapshotIsDetached(t *testing.T) {
	repo := newTestRepo(t)
	added, err := repo.AddMemory(webMemory("original", ""))
	require.NoError(t, err)

	doc := repo.Document()
	doc.Memories[0].Title = "tampered"
	doc.Memories[0].Web.URL = "https://tampered"

	got, ok := repo.GetMemory(added.ID)
	require.True(t, ok)
	assert.Equal(t, "original", got.Title)
	assert.Equal(t, "https://example.com/original", got.Web.URL)
}

func TestVoiceMemoriesWithoutSummary(t *testing.T) {
	repo := newTestRepo(t)
	pending := memory.Memory{
		Kind:     memory.KindVoice,
		Title:    "pending",
		Category: memory.CategoryPersonal,
		Voice:    &memory.VoicePayload{Transcript: "raw"},
	}
	done := memory.Memory{
		Kind:     memory.KindVoice,
		Title:    "done",
		Category: memory.CategoryPersonal,
		Voice:    &memory.VoicePayload{Transcript: "raw", Summary: "short"},
	}
	noTranscript := memory.Memory{
		Kind:     memory.KindVoice,
		Title:    "empty",
		Category: memory.CategoryPersonal,
		Voice:    &memory.VoicePayload{},
	}

	for _, m := range []memory.Memory{pending, done, noTranscript} {
		_, err := repo.AddMemory(m)
		require.NoError(t, err)
	}

	got := repo.VoiceMemoriesWithoutSummary()
	require.Len(t, got, 1)
	assert.Equal(t, "pending", got[0].Title)
}

func TestUpdateTask_RejectsIdeaOutsidePersonal(t *testing.T) {
	repo := newTestRepo(t)
	task, err := repo.AddTask(memory.Task{Title: "review", Category: memory.CategoryCollege})
	require.NoError(t, err)
	assert.Equal(t, memory.StatusTodo, task.Status)

	idea := memory.StatusIdea
	_, err = repo.UpdateTask(task.ID, memory.TaskPatch{Status: &idea})
	assert.Error(t, err)

	// Unchanged after the rejected patch
	tasks := repo.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, memory.StatusTodo, tasks[0].Status)
}

func TestUpdateTask_AbsentIDIsNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.UpdateTask("nope", memory.TaskPatch{})

	assert.Error(t, err)
}

func TestDeleteTask_AbsentIDEmitsNothing(t *testing.T) {
	repo := newTestRepo(t)
	rec := &recorder{}
	repo.Subscribe(rec.record)

	repo.DeleteTask("nope")

	assert.Empty(t, rec.events)
}
