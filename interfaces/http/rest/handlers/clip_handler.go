package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/domain/memory"
	"secondbrain-backend/pkg/common"
	pkgerrors "secondbrain-backend/pkg/errors"
	"secondbrain-backend/pkg/utils"
)

// ClipHandler handles the shared-clip inbox protocol
type ClipHandler struct {
	store  ports.SyncStore
	logger *zap.Logger
}

// NewClipHandler creates a new clip handler
func NewClipHandler(store ports.SyncStore, logger *zap.Logger) *ClipHandler {
	return &ClipHandler{store: store, logger: logger}
}

// AppendClipRequest represents the request body for capturing a share
type AppendClipRequest struct {
	URL   string `json:"url" validate:"required,max=2048"`
	Title string `json:"title" validate:"max=500"`
	Text  string `json:"text,omitempty" validate:"max=100000"`
	Date  string `json:"date,omitempty" validate:"max=64"`
}

// ListClips handles GET /api/shared-clips. The body is the bare clip array;
// that is the shape the sync agents consume.
func (h *ClipHandler) ListClips(w http.ResponseWriter, r *http.Request) {
	clips, err := h.store.ListClips(r.Context())
	if err != nil {
		h.logger.Error("failed to list clips", zap.Error(err))
		common.RespondError(w, pkgerrors.GetHTTPStatus(err), "STORE_ERROR", "failed to list clips")
		return
	}
	common.RespondRaw(w, http.StatusOK, clips)
}

// AppendClip handles POST /api/shared-clips
func (h *ClipHandler) AppendClip(w http.ResponseWriter, r *http.Request) {
	var req AppendClipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	clip, err := h.store.AppendClip(r.Context(), memory.ClipData{
		URL:     req.URL,
		Title:   req.Title,
		Content: req.Text,
		Date:    req.Date,
	})
	if err != nil {
		h.logger.Error("failed to append clip", zap.Error(err))
		common.RespondError(w, pkgerrors.GetHTTPStatus(err), "STORE_ERROR", "failed to append clip")
		return
	}

	h.logger.Info("clip captured", zap.String("key", clip.Key), zap.String("url", clip.Data.URL))
	common.RespondRaw(w, http.StatusCreated, clip)
}

// DeleteClip handles DELETE /api/shared-clips/{key}. Deleting an absent key
// succeeds: the drain protocol only cares that the clip is gone.
func (h *ClipHandler) DeleteClip(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		common.RespondError(w, http.StatusBadRequest, "MISSING_KEY", "clip key is required")
		return
	}

	if err := h.store.DeleteClip(r.Context(), key); err != nil {
		h.logger.Error("failed to delete clip", zap.String("key", key), zap.Error(err))
		common.RespondError(w, pkgerrors.GetHTTPStatus(err), "STORE_ERROR", "failed to delete clip")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
