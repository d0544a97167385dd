package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/tasksync/internal/models"
	"github.com/opsdeck/tasksync/internal/syncer"
)

type SyncHandler struct {
	gateway    *syncer.Gateway
	reconciler *syncer.Reconciler
}

func NewSyncHandler(gateway *syncer.Gateway, reconciler *syncer.Reconciler) *SyncHandler {
	return &SyncHandler{gateway: gateway, reconciler: reconciler}
}

// Push handles POST /tasks/{id}/sync/{tracker}
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	trackerName := models.Tracker(chi.URLParam(r, "tracker"))

	externalID, err := h.gateway.Push(r.Context(), id, trackerName)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.PushResponse{
		ExternalID: externalID,
		Tracker:    trackerName,
	})
}

// Reconcile handles POST /reconcile/{tracker}
func (h *SyncHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	trackerName := models.Tracker(chi.URLParam(r, "tracker"))
	if trackerName != models.TrackerTeamBoard {
		writeError(w, http.StatusBadRequest, "reconciliation is only supported for team_board")
		return
	}

	updated, err := h.reconciler.Reconcile(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ReconcileResponse{UpdatedCount: updated})
}
