// Package repository holds the canonical in-memory working set: memories,
// courses and tasks. All UI-facing mutations land here; subscribers (the
// sync engine) are notified synchronously after each state transition.
package repository

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"secondbrain-backend/domain/events"
	"secondbrain-backend/domain/memory"
	pkgerrors "secondbrain-backend/pkg/errors"
)

// Subscriber receives change notifications. Handlers run on the mutating
// goroutine after the lock is released, so they may read the repository but
// should not block.
type Subscriber func(events.DomainEvent)

// Repository is the canonical in-memory collection manager
type Repository struct {
	mu       sync.RWMutex
	memories []memory.Memory
	courses  []string
	tasks    []memory.Task

	subMu sync.RWMutex
	subs  []Subscriber

	logger *zap.Logger
}

// New creates an empty repository
func New(logger *zap.Logger) *Repository {
	return &Repository{
		memories: []memory.Memory{},
		courses:  []string{},
		tasks:    []memory.Task{},
		logger:   logger,
	}
}

// Subscribe registers a change subscriber
func (r *Repository) Subscribe(fn Subscriber) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.subs = append(r.subs, fn)
}

func (r *Repository) publish(ev events.DomainEvent) {
	r.subMu.RLock()
	subs := make([]Subscriber, len(r.subs))
	copy(subs, r.subs)
	r.subMu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// AddMemory inserts a memory, assigning id and creation timestamp when the
// caller left them empty, and re-sorts the collection newest first. Adding a
// moodle file whose external id already exists in the same course is an
// idempotent no-op returning the existing entry.
func (r *Repository) AddMemory(m memory.Memory) (memory.Memory, error) {
	if m.ID == "" {
		m.ID = memory.NewID()
	}
	if m.Date.IsZero() {
		m.Date = time.Now()
	}
	if err := m.Validate(); err != nil {
		return memory.Memory{}, err
	}

	var courseEvent events.DomainEvent

	r.mu.Lock()
	if existing, ok := r.findMoodleDuplicateLocked(m); ok {
		r.mu.Unlock()
		r.logger.Debug("skipping duplicate moodle file",
			zap.String("moodleId", m.File.MoodleID),
			zap.String("course", m.Course),
		)
		return existing, nil
	}

	r.memories = append(r.memories, m.Clone())
	memory.SortMemoriesByRecency(r.memories)

	if m.Course != "" && r.addCourseLocked(m.Course) {
		courseEvent = events.NewCourseAdded(m.Course)
	}
	r.mu.Unlock()

	r.publish(events.NewMemoryAdded(m.ID))
	if courseEvent != nil {
		r.publish(courseEvent)
	}
	return m, nil
}

// findMoodleDuplicateLocked scans for an existing file memory with the same
// course and moodle id. Caller holds the lock.
func (r *Repository) findMoodleDuplicateLocked(m memory.Memory) (memory.Memory, bool) {
	if m.Kind != memory.KindFile || m.File == nil || m.File.SourceType != memory.SourceMoodle {
		return memory.Memory{}, false
	}
	for _, existing := range r.memories {
		if existing.Kind == memory.KindFile &&
			existing.File != nil &&
			existing.File.SourceType == memory.SourceMoodle &&
			existing.File.MoodleID == m.File.MoodleID &&
			existing.Course == m.Course {
			return existing.Clone(), true
		}
	}
	return memory.Memory{}, false
}

// MergeMemories inserts a batch of memories as one state transition and one
// event. The drain path uses this so "merge applied" is a single observable
// step before any inbox deletes happen. No deduplication is performed.
func (r *Repository) MergeMemories(ms []memory.Memory) int {
	if len(ms) == 0 {
		return 0
	}

	r.mu.Lock()
	for _, m := range ms {
		r.memories = append(r.memories, m.Clone())
	}
	memory.SortMemoriesByRecency(r.memories)
	r.mu.Unlock()

	r.publish(events.NewMemoriesMerged(len(ms)))
	return len(ms)
}

// UpdateMemory shallow-merges a patch into the memory with the given id.
// An absent id is a no-op, not an error; the second return reports whether
// anything was patched.
func (r *Repository) UpdateMemory(id string, patch memory.MemoryPatch) (memory.Memory, bool) {
	var courseEvent events.DomainEvent

	r.mu.Lock()
	idx := -1
	for i := range r.memories {
		if r.memories[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return memory.Memory{}, false
	}

	updated := patch.Apply(r.memories[idx])
	r.memories[idx] = updated
	if updated.Course != "" && r.addCourseLocked(updated.Course) {
		courseEvent = events.NewCourseAdded(updated.Course)
	}
	r.mu.Unlock()

	r.publish(events.NewMemoryUpdated(id))
	if courseEvent != nil {
		r.publish(courseEvent)
	}
	return updated.Clone(), true
}

// DeleteMemory removes a memory. Absent ids are silently ignored.
func (r *Repository) DeleteMemory(id string) {
	r.BulkDeleteMemories([]string{id})
}

// BulkDeleteMemories removes all matching entries in one state transition.
// Ids with no matching entry are skipped without error.
func (r *Repository) BulkDeleteMemories(ids []string) {
	if len(ids) == 0 {
		return
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	r.mu.Lock()
	kept := r.memories[:0]
	var removed []string
	for _, m := range r.memories {
		if _, ok := wanted[m.ID]; ok {
			removed = append(removed, m.ID)
			continue
		}
		kept = append(kept, m)
	}
	r.memories = kept
	r.mu.Unlock()

	if len(removed) == 0 {
		return
	}
	r.publish(events.NewMemoriesDeleted(removed))
}

// AddCourse trims and inserts a course name. Empty names and exact
// duplicates are ignored; the return reports whether the set changed.
func (r *Repository) AddCourse(name string) bool {
	name = strings.TrimSpace(name)

	r.mu.Lock()
	added := r.addCourseLocked(name)
	r.mu.Unlock()

	if added {
		r.publish(events.NewCourseAdded(name))
	}
	return added
}

// addCourseLocked does the set insert. Caller holds the lock and has
// trimmed the name if it came from user input.
func (r *Repository) addCourseLocked(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range r.courses {
		if c == name {
			return false
		}
	}
	r.courses = append(r.courses, name)
	return true
}

// Memories returns a snapshot of the memory collection, newest first.
func (r *Repository) Memories() []memory.Memory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]memory.Memory, len(r.memories))
	for i, m := range r.memories {
		out[i] = m.Clone()
	}
	return out
}

// GetMemory returns a memory by id
func (r *Repository) GetMemory(id string) (memory.Memory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.memories {
		if m.ID == id {
			return m.Clone(), true
		}
	}
	return memory.Memory{}, false
}

// Courses returns a snapshot of the course list in insertion order
func (r *Repository) Courses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.courses))
	copy(out, r.courses)
	return out
}

// Document snapshots the syncable working set
func (r *Repository) Document() memory.SyncDocument {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc := memory.SyncDocument{
		Memories: make([]memory.Memory, len(r.memories)),
		Courses:  make([]string, len(r.courses)),
	}
	for i, m := range r.memories {
		doc.Memories[i] = m.Clone()
	}
	copy(doc.Courses, r.courses)
	return doc
}

// ReplaceAll swaps in a whole document, discarding the current memories and
// courses. Pull uses this: the remote is authoritative and no merge with
// pending local edits happens. Tasks are untouched.
func (r *Repository) ReplaceAll(doc memory.SyncDocument) {
	doc.Normalize()

	r.mu.Lock()
	r.memories = make([]memory.Memory, len(doc.Memories))
	for i, m := range doc.Memories {
		r.memories[i] = m.Clone()
	}
	memory.SortMemoriesByRecency(r.memories)
	r.courses = make([]string, len(doc.Courses))
	copy(r.courses, doc.Courses)
	r.mu.Unlock()

	r.publish(events.NewDocumentReplaced())
}

// VoiceMemoriesWithoutSummary is the enrichment discovery query: voice
// memories that have a transcript but no derived summary yet.
func (r *Repository) VoiceMemoriesWithoutSummary() []memory.Memory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []memory.Memory
	for _, m := range r.memories {
		if m.Kind == memory.KindVoice && m.Voice != nil &&
			m.Voice.Transcript != "" && m.Voice.Summary == "" {
			out = append(out, m.Clone())
		}
	}
	return out
}

// AddTask inserts a task, assigning id and creation timestamp when empty.
func (r *Repository) AddTask(t memory.Task) (memory.Task, error) {
	if t.ID == "" {
		t.ID = memory.NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.Status == "" {
		t.Status = memory.StatusTodo
	}
	if err := t.Validate(); err != nil {
		return memory.Task{}, err
	}

	r.mu.Lock()
	r.tasks = append(r.tasks, t.Clone())
	r.mu.Unlock()

	r.publish(events.NewTaskChanged(t.ID))
	return t, nil
}

// UpdateTask patches a task. The patched task must still satisfy the status
// rules; a patch that would move a non-personal task to idea is rejected.
func (r *Repository) UpdateTask(id string, patch memory.TaskPatch) (memory.Task, error) {
	r.mu.Lock()
	idx := -1
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return memory.Task{}, pkgerrors.NewNotFoundError("task")
	}

	updated := patch.Apply(r.tasks[idx])
	if err := updated.Validate(); err != nil {
		r.mu.Unlock()
		return memory.Task{}, err
	}
	r.tasks[idx] = updated
	r.mu.Unlock()

	r.publish(events.NewTaskChanged(id))
	return updated.Clone(), nil
}

// DeleteTask removes a task; absent ids are ignored.
func (r *Repository) DeleteTask(id string) {
	r.mu.Lock()
	kept := r.tasks[:0]
	removed := false
	for _, t := range r.tasks {
		if t.ID == id {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	r.tasks = kept
	r.mu.Unlock()

	if removed {
		r.publish(events.NewTaskChanged(id))
	}
}

// Tasks returns a snapshot of the task list
func (r *Repository) Tasks() []memory.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]memory.Task, len(r.tasks))
	for i, t := range r.tasks {
		out[i] = t.Clone()
	}
	return out
}
