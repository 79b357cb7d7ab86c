package events

import "time"

// DomainEvent is the base interface for repository change notifications.
// The sync engine subscribes to these to drive persistence; events say what
// changed, not what to do about it.
type DomainEvent interface {
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

func newBase(eventType string) BaseEvent {
	return BaseEvent{EventType: eventType, Timestamp: time.Now()}
}

// MemoryAdded is raised when a memory is inserted
type MemoryAdded struct {
	BaseEvent
	MemoryID string `json:"memory_id"`
}

// NewMemoryAdded creates a MemoryAdded event
func NewMemoryAdded(memoryID string) MemoryAdded {
	return MemoryAdded{BaseEvent: newBase("memory.added"), MemoryID: memoryID}
}

// MemoryUpdated is raised when a memory is patched
type MemoryUpdated struct {
	BaseEvent
	MemoryID string `json:"memory_id"`
}

// NewMemoryUpdated creates a MemoryUpdated event
func NewMemoryUpdated(memoryID string) MemoryUpdated {
	return MemoryUpdated{BaseEvent: newBase("memory.updated"), MemoryID: memoryID}
}

// MemoriesDeleted is raised for single and bulk deletes alike; a bulk delete
// is one state transition and therefore one event.
type MemoriesDeleted struct {
	BaseEvent
	MemoryIDs []string `json:"memory_ids"`
}

// NewMemoriesDeleted creates a MemoriesDeleted event
func NewMemoriesDeleted(memoryIDs []string) MemoriesDeleted {
	return MemoriesDeleted{BaseEvent: newBase("memories.deleted"), MemoryIDs: memoryIDs}
}

// MemoriesMerged is raised when drained clips are merged in as one batch
type MemoriesMerged struct {
	BaseEvent
	Count int `json:"count"`
}

// NewMemoriesMerged creates a MemoriesMerged event
func NewMemoriesMerged(count int) MemoriesMerged {
	return MemoriesMerged{BaseEvent: newBase("memories.merged"), Count: count}
}

// CourseAdded is raised when a new course enters the course set
type CourseAdded struct {
	BaseEvent
	Name string `json:"name"`
}

// NewCourseAdded creates a CourseAdded event
func NewCourseAdded(name string) CourseAdded {
	return CourseAdded{BaseEvent: newBase("course.added"), Name: name}
}

// DocumentReplaced is raised when a pull replaces the whole working set.
// Subscribers must not treat this as a local edit: it must not feed back
// into a remote push.
type DocumentReplaced struct {
	BaseEvent
}

// NewDocumentReplaced creates a DocumentReplaced event
func NewDocumentReplaced() DocumentReplaced {
	return DocumentReplaced{BaseEvent: newBase("document.replaced")}
}

// TaskChanged is raised for task mutations. Tasks live outside the sync
// document, so persistence subscribers ignore these.
type TaskChanged struct {
	BaseEvent
	TaskID string `json:"task_id"`
}

// NewTaskChanged creates a TaskChanged event
func NewTaskChanged(taskID string) TaskChanged {
	return TaskChanged{BaseEvent: newBase("task.changed"), TaskID: taskID}
}
