package local

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"secondbrain-backend/application/repository"
	"secondbrain-backend/domain/memory"
	"secondbrain-backend/pkg/common"
	pkgerrors "secondbrain-backend/pkg/errors"
	"secondbrain-backend/pkg/utils"
)

// TaskHandler handles task mutations from the UI
type TaskHandler struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(repo *repository.Repository, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{repo: repo, logger: logger}
}

// CreateTaskRequest represents the request body for creating a task
type CreateTaskRequest struct {
	Title       string           `json:"title" validate:"required,max=500"`
	Description string           `json:"description,omitempty" validate:"max=5000"`
	Status      string           `json:"status,omitempty" validate:"omitempty,oneof=idea todo in-progress done"`
	Category    string           `json:"category" validate:"required,oneof=college personal"`
	Course      string           `json:"course,omitempty" validate:"max=200"`
	MemoryIDs   []string         `json:"memoryIds,omitempty"`
	Subtasks    []memory.Subtask `json:"subtasks,omitempty"`
}

// CreateTask handles POST /v1/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	created, err := h.repo.AddTask(memory.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      memory.TaskStatus(req.Status),
		Category:    memory.Category(req.Category),
		Course:      req.Course,
		MemoryIDs:   req.MemoryIDs,
		Subtasks:    req.Subtasks,
	})
	if err != nil {
		common.RespondError(w, pkgerrors.GetHTTPStatus(err), "VALIDATION_ERROR", err.Error())
		return
	}

	common.RespondJSON(w, http.StatusCreated, created)
}

// ListTasks handles GET /v1/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.repo.Tasks())
}

// UpdateTask handles PATCH /v1/tasks/{taskID}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")

	var patch memory.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return
	}

	updated, err := h.repo.UpdateTask(id, patch)
	if err != nil {
		common.RespondError(w, pkgerrors.GetHTTPStatus(err), "TASK_ERROR", err.Error())
		return
	}
	common.RespondJSON(w, http.StatusOK, updated)
}

// DeleteTask handles DELETE /v1/tasks/{taskID}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	h.repo.DeleteTask(chi.URLParam(r, "taskID"))
	w.WriteHeader(http.StatusNoContent)
}
