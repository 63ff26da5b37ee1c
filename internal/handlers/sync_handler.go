package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/japanesestudent/offline-service/internal/models"
	"go.uber.org/zap"
)

// SyncService defines the sync operations the control surface exposes
type SyncService interface {
	// TriggerSync runs a sync pass unless one is already running, and
	// reports whether a pass ran.
	TriggerSync() bool
	// Status returns a snapshot of the synchronization state.
	Status(ctx context.Context) (models.SyncStatus, error)
}

// SyncHandler serves the local sync control surface
type SyncHandler struct {
	BaseHandler
	service SyncService
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(service SyncService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     service,
	}
}

// RegisterRoutes registers all sync handler routes
func (h *SyncHandler) RegisterRoutes(r chi.Router) {
	r.Route("/sync", func(r chi.Router) {
		r.Post("/trigger", h.TriggerSync)
		r.Get("/status", h.GetStatus)
	})
}

// TriggerSync handles POST /api/v1/sync/trigger. A trigger arriving
// while a pass is running is dropped and reported as such.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	started := h.service.TriggerSync()
	if !started {
		h.RespondJSON(w, http.StatusConflict, map[string]any{"started": false, "reason": "sync already running"})
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]any{"started": true})
}

// GetStatus handles GET /api/v1/sync/status
func (h *SyncHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		h.Logger.Error("failed to collect sync status", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to collect sync status")
		return
	}

	h.RespondJSON(w, http.StatusOK, status)
}
