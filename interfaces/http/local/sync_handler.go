package local

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"secondbrain-backend/pkg/common"
	"secondbrain-backend/pkg/utils"
	syncengine "secondbrain-backend/sync"
)

// SyncControlHandler exposes sync engine state and controls to the UI
type SyncControlHandler struct {
	engine    *syncengine.Engine
	setSyncID func(id string) error
	logger    *zap.Logger
}

// NewSyncControlHandler creates a new sync control handler
func NewSyncControlHandler(
	engine *syncengine.Engine,
	setSyncID func(id string) error,
	logger *zap.Logger,
) *SyncControlHandler {
	return &SyncControlHandler{
		engine:    engine,
		setSyncID: setSyncID,
		logger:    logger,
	}
}

// GetDocument handles GET /v1/document: the full syncable working set, for
// render hydration and debugging.
func (h *SyncControlHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	common.RespondRaw(w, http.StatusOK, h.engine.Document())
}

// SetSyncIDRequest represents the request body for switching sync identity
type SetSyncIDRequest struct {
	SyncID string `json:"syncId" validate:"max=128"`
}

// SetSyncID handles PUT /v1/sync-id. An empty id switches to local-only
// mode. The new id is persisted to the device file before the engine picks
// it up, so a restart keeps it.
func (h *SyncControlHandler) SetSyncID(w http.ResponseWriter, r *http.Request) {
	var req SetSyncIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if h.setSyncID != nil {
		if err := h.setSyncID(req.SyncID); err != nil {
			h.logger.Warn("failed to persist sync id", zap.Error(err))
		}
	}
	h.engine.SetSyncID(r.Context(), req.SyncID)

	common.RespondJSON(w, http.StatusOK, map[string]string{"syncId": req.SyncID})
}

// PendingClips handles GET /v1/clips/pending: the badge count.
func (h *SyncControlHandler) PendingClips(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]int{
		"pending": h.engine.PendingCount(),
	})
}

// DrainClips handles POST /v1/clips/drain: the explicit "sync now" action.
// Drain failures are soft; the response reports zero ingested and the next
// poll retries.
func (h *SyncControlHandler) DrainClips(w http.ResponseWriter, r *http.Request) {
	ingested, err := h.engine.DrainInbox(r.Context())
	if err != nil {
		h.logger.Warn("drain failed", zap.Error(err))
	}
	common.RespondJSON(w, http.StatusOK, map[string]int{
		"ingested": ingested,
		"pending":  h.engine.PendingCount(),
	})
}
