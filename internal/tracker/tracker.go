// Package tracker holds the clients for the external task-tracking systems
// that tasks are pushed to and reconciled against.
package tracker

import (
	"context"
	"fmt"

	"github.com/opsdeck/tasksync/internal/models"
)

// Client creates entities in one external tracker. Create returns the
// tracker's opaque id for the new entity.
type Client interface {
	Name() models.Tracker
	Create(ctx context.Context, t *models.Task) (string, error)
}

// Status is one remote entity's completion state.
type Status struct {
	ExternalID string `json:"id"`
	Completed  bool   `json:"completed"`
}

// StatusLister is implemented by trackers that can report entity status for
// reconciliation. Only the team board does today.
type StatusLister interface {
	ListStatuses(ctx context.Context) ([]Status, error)
}

// ErrorKind distinguishes tracker failure classes for callers that map them
// to responses. No kind triggers an automatic retry.
type ErrorKind int

const (
	KindUnavailable ErrorKind = iota
	KindAuth
	KindInvalid
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindInvalid:
		return "invalid"
	case KindTimeout:
		return "timeout"
	default:
		return "unavailable"
	}
}

// Error wraps a failure talking to an external tracker.
type Error struct {
	Tracker models.Tracker
	Kind    ErrorKind
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Tracker, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Registry resolves tracker names to clients.
type Registry struct {
	clients map[models.Tracker]Client
}

func NewRegistry(clients ...Client) *Registry {
	r := &Registry{clients: make(map[models.Tracker]Client)}
	for _, c := range clients {
		r.clients[c.Name()] = c
	}
	return r
}

// Get returns the client for a tracker, or nil when none is registered.
func (r *Registry) Get(name models.Tracker) Client {
	return r.clients[name]
}

// Names lists the registered trackers.
func (r *Registry) Names() []models.Tracker {
	out := make([]models.Tracker, 0, len(r.clients))
	for name := range r.clients {
		out = append(out, name)
	}
	return out
}
