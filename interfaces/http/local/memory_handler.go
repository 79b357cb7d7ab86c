package local

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"secondbrain-backend/application/repository"
	"secondbrain-backend/domain/memory"
	"secondbrain-backend/pkg/common"
	pkgerrors "secondbrain-backend/pkg/errors"
	"secondbrain-backend/pkg/utils"
)

// MemoryHandler handles memory mutations from the UI
type MemoryHandler struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewMemoryHandler creates a new memory handler
func NewMemoryHandler(repo *repository.Repository, logger *zap.Logger) *MemoryHandler {
	return &MemoryHandler{repo: repo, logger: logger}
}

// CreateMemoryRequest represents the request body for saving a memory.
// Kind decides which payload is required; the repository validates that.
type CreateMemoryRequest struct {
	Kind     string `json:"kind" validate:"required,oneof=voice web item video document file"`
	Title    string `json:"title" validate:"required,max=500"`
	Category string `json:"category" validate:"required,oneof=college personal"`
	Course   string `json:"course,omitempty" validate:"max=200"`
	Date     string `json:"date,omitempty"`

	Geo       *memory.Geo `json:"geo,omitempty"`
	VoiceNote string      `json:"voiceNote,omitempty"`
	IsHidden  bool        `json:"isHidden,omitempty"`

	Voice    *memory.VoicePayload    `json:"voice,omitempty"`
	Web      *memory.WebPayload      `json:"web,omitempty"`
	Item     *memory.ItemPayload     `json:"item,omitempty"`
	Video    *memory.VideoPayload    `json:"video,omitempty"`
	Document *memory.DocumentPayload `json:"document,omitempty"`
	File     *memory.FilePayload     `json:"file,omitempty"`
}

// CreateMemory handles POST /v1/memories
func (h *MemoryHandler) CreateMemory(w http.ResponseWriter, r *http.Request) {
	var req CreateMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	m := memory.Memory{
		Kind:      memory.Kind(req.Kind),
		Title:     req.Title,
		Category:  memory.Category(req.Category),
		Course:    req.Course,
		Geo:       req.Geo,
		VoiceNote: req.VoiceNote,
		IsHidden:  req.IsHidden,
		Voice:     req.Voice,
		Web:       req.Web,
		Item:      req.Item,
		Video:     req.Video,
		Document:  req.Document,
		File:      req.File,
	}
	if req.Date != "" {
		t, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "date must be RFC 3339")
			return
		}
		m.Date = t
	}

	created, err := h.repo.AddMemory(m)
	if err != nil {
		common.RespondError(w, pkgerrors.GetHTTPStatus(err), "VALIDATION_ERROR", err.Error())
		return
	}

	common.RespondJSON(w, http.StatusCreated, created)
}

// ListMemories handles GET /v1/memories
func (h *MemoryHandler) ListMemories(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.repo.Memories())
}

// GetMemory handles GET /v1/memories/{memoryID}
func (h *MemoryHandler) GetMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memoryID")
	m, ok := h.repo.GetMemory(id)
	if !ok {
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", "memory not found")
		return
	}
	common.RespondJSON(w, http.StatusOK, m)
}

// UpdateMemory handles PATCH /v1/memories/{memoryID}. The body is a
// MemoryPatch: only provided fields change. Patching an unknown id is a
// no-op by repository contract, surfaced as 404 here for the UI's benefit.
func (h *MemoryHandler) UpdateMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memoryID")

	var patch memory.MemoryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return
	}

	updated, ok := h.repo.UpdateMemory(id, patch)
	if !ok {
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", "memory not found")
		return
	}
	common.RespondJSON(w, http.StatusOK, updated)
}

// DeleteMemory handles DELETE /v1/memories/{memoryID}
func (h *MemoryHandler) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	h.repo.DeleteMemory(chi.URLParam(r, "memoryID"))
	w.WriteHeader(http.StatusNoContent)
}

// BulkDeleteRequest represents the request body for a bulk delete
type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

// BulkDeleteMemories handles POST /v1/memories/bulk-delete
func (h *MemoryHandler) BulkDeleteMemories(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	h.repo.BulkDeleteMemories(req.IDs)
	w.WriteHeader(http.StatusNoContent)
}
