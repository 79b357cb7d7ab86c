package memory

import (
	"fmt"
	"time"

	pkgerrors "secondbrain-backend/pkg/errors"
)

// TaskStatus is the task lifecycle state. StatusIdea is only valid for
// personal tasks; college work starts at todo.
type TaskStatus string

const (
	StatusIdea       TaskStatus = "idea"
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
)

// Subtask is a checklist line within a task.
type Subtask struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// Task is a unit of work, optionally linked to memories. Memory links are
// weak references: deleting a memory does not cascade into tasks.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Category    Category   `json:"category"`
	Course      string     `json:"course,omitempty"`
	MemoryIDs   []string   `json:"memoryIds,omitempty"`
	Subtasks    []Subtask  `json:"subtasks,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Validate enforces the status rules.
func (t Task) Validate() error {
	if t.ID == "" {
		return pkgerrors.NewValidationError("task id cannot be empty")
	}
	if t.Title == "" {
		return pkgerrors.NewValidationError("task title cannot be empty")
	}
	switch t.Status {
	case StatusIdea, StatusTodo, StatusInProgress, StatusDone:
	default:
		return pkgerrors.NewValidationError(fmt.Sprintf("unknown task status %q", t.Status))
	}
	if t.Status == StatusIdea && t.Category != CategoryPersonal {
		return pkgerrors.NewValidationError("idea status is only valid for personal tasks")
	}
	return nil
}

// Clone deep-copies the task.
func (t Task) Clone() Task {
	out := t
	if t.MemoryIDs != nil {
		out.MemoryIDs = make([]string, len(t.MemoryIDs))
		copy(out.MemoryIDs, t.MemoryIDs)
	}
	if t.Subtasks != nil {
		out.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(out.Subtasks, t.Subtasks)
	}
	return out
}

// TaskPatch is a partial task update; nil fields are untouched.
type TaskPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	Category    *Category   `json:"category,omitempty"`
	Course      *string     `json:"course,omitempty"`
	MemoryIDs   *[]string   `json:"memoryIds,omitempty"`
	Subtasks    *[]Subtask  `json:"subtasks,omitempty"`
}

// Apply merges the patch into t and returns the result. ID and CreatedAt
// are immutable.
func (p TaskPatch) Apply(t Task) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Course != nil {
		out.Course = *p.Course
	}
	if p.MemoryIDs != nil {
		ids := make([]string, len(*p.MemoryIDs))
		copy(ids, *p.MemoryIDs)
		out.MemoryIDs = ids
	}
	if p.Subtasks != nil {
		subs := make([]Subtask, len(*p.Subtasks))
		copy(subs, *p.Subtasks)
		out.Subtasks = subs
	}
	return out
}
