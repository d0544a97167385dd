package api

import (
	"net/http"

	"github.com/opsdeck/tasksync/internal/models"
	"github.com/opsdeck/tasksync/internal/store"
	"github.com/opsdeck/tasksync/internal/tracker"
)

type HealthHandler struct {
	db        *store.DB
	teamBoard *tracker.TeamBoardClient
}

func NewHealthHandler(db *store.DB, teamBoard *tracker.TeamBoardClient) *HealthHandler {
	return &HealthHandler{db: db, teamBoard: teamBoard}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:   "ok",
		Trackers: map[string]models.ServiceCheck{},
	}

	// Check DB
	count, err := h.db.TaskCount()
	if err != nil {
		resp.DB = models.ServiceCheck{Status: "error", Message: err.Error()}
		resp.Status = "degraded"
	} else {
		resp.DB = models.ServiceCheck{Status: "ok"}
		resp.TaskCount = count
	}

	// Check team board; Google Tasks has no cheap unauthenticated probe.
	if h.teamBoard != nil {
		if err := h.teamBoard.HealthCheck(); err != nil {
			resp.Trackers[string(models.TrackerTeamBoard)] = models.ServiceCheck{Status: "error", Message: err.Error()}
			resp.Status = "degraded"
		} else {
			resp.Trackers[string(models.TrackerTeamBoard)] = models.ServiceCheck{Status: "ok"}
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
