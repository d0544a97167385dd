package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/tasksync/internal/extract"
	"github.com/opsdeck/tasksync/internal/models"
	"github.com/opsdeck/tasksync/internal/tasks"
)

type TaskHandler struct {
	svc     *tasks.Service
	adapter *extract.Adapter
}

func NewTaskHandler(svc *tasks.Service, adapter *extract.Adapter) *TaskHandler {
	return &TaskHandler{svc: svc, adapter: adapter}
}

// List handles GET /tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := &models.ListFilter{}

	if v := r.URL.Query().Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "completed must be true or false")
			return
		}
		filter.Completed = &completed
	}
	if v := r.URL.Query().Get("category"); v != "" {
		c := models.Category(v)
		if !c.IsValid() {
			writeError(w, http.StatusBadRequest, "unknown category: "+v)
			return
		}
		filter.Category = &c
	}

	list, err := h.svc.List(filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := tasks.ToResponses(list, time.Now())
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": resp,
		"count": len(resp),
	})
}

// Create handles POST /tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	t, err := h.svc.Create(&req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"task": tasks.ToResponse(t, time.Now()),
	})
}

// Get handles GET /tasks/{id}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := h.svc.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"task": tasks.ToResponse(t, time.Now()),
	})
}

// Update handles PATCH /tasks/{id}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	t, err := h.svc.Update(id, &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"task": tasks.ToResponse(t, time.Now()),
	})
}

// Toggle handles POST /tasks/{id}/toggle
func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := h.svc.Toggle(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"task": tasks.ToResponse(t, time.Now()),
	})
}

// Delete handles DELETE /tasks/{id}. Removal is local only; pushed tracker
// entities stay where they are.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkAdd handles POST /tasks/bulk
func (h *TaskHandler) BulkAdd(w http.ResponseWriter, r *http.Request) {
	var req models.BulkAddRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	created, err := h.adapter.BulkAdd(req.ThreadID, req.Tasks)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := tasks.ToResponses(created, time.Now())
	writeJSON(w, http.StatusCreated, map[string]any{
		"tasks": resp,
		"count": len(resp),
	})
}
