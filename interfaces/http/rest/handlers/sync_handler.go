package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/domain/memory"
	"secondbrain-backend/pkg/common"
	pkgerrors "secondbrain-backend/pkg/errors"
)

// SyncHandler handles the sync document protocol
type SyncHandler struct {
	store  ports.SyncStore
	logger *zap.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(store ports.SyncStore, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{store: store, logger: logger}
}

// GetDocument handles GET /api/sync?syncId={id}. An unknown syncId returns
// the empty document shape, never 404: clients treat absence and the empty
// state identically.
func (h *SyncHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	syncID := r.URL.Query().Get("syncId")
	if syncID == "" {
		common.RespondError(w, http.StatusBadRequest, "MISSING_SYNC_ID", "syncId is required")
		return
	}

	doc, err := h.store.GetDocument(r.Context(), syncID)
	if err != nil {
		h.logger.Error("failed to read document",
			zap.String("syncId", syncID),
			zap.Error(err),
		)
		common.RespondError(w, pkgerrors.GetHTTPStatus(err), "STORE_ERROR", "failed to read document")
		return
	}

	// The document goes out bare: the client expects {memories, courses}
	// at the top level, not wrapped in an envelope.
	common.RespondRaw(w, http.StatusOK, doc)
}

// PutDocument handles POST /api/sync?syncId={id}: whole-document replace,
// no partial-update verb.
func (h *SyncHandler) PutDocument(w http.ResponseWriter, r *http.Request) {
	syncID := r.URL.Query().Get("syncId")
	if syncID == "" {
		common.RespondError(w, http.StatusBadRequest, "MISSING_SYNC_ID", "syncId is required")
		return
	}

	var doc memory.SyncDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return
	}
	doc.Normalize()

	if err := h.store.PutDocument(r.Context(), syncID, doc); err != nil {
		h.logger.Error("failed to write document",
			zap.String("syncId", syncID),
			zap.Error(err),
		)
		common.RespondError(w, pkgerrors.GetHTTPStatus(err), "STORE_ERROR", "failed to write document")
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"memories": len(doc.Memories),
		"courses":  len(doc.Courses),
	})
}
