package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/opsdeck/tasksync/internal/tasks"
	"github.com/opsdeck/tasksync/internal/tracker"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeDomainError maps the engine's error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *tasks.ValidationError
	var preconditionErr *tasks.PreconditionError
	var trackerErr *tracker.Error

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, tasks.ErrNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	case errors.As(err, &preconditionErr):
		writeError(w, http.StatusConflict, preconditionErr.Error())
	case errors.As(err, &trackerErr):
		switch trackerErr.Kind {
		case tracker.KindAuth:
			writeError(w, http.StatusUnauthorized, trackerErr.Error())
		case tracker.KindTimeout:
			writeError(w, http.StatusGatewayTimeout, trackerErr.Error())
		default:
			writeError(w, http.StatusBadGateway, trackerErr.Error())
		}
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
