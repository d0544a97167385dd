package models

// CreateRequest is the payload for POST /tasks.
type CreateRequest struct {
	Action       string  `json:"action"`
	Priority     *string `json:"priority,omitempty"`
	DueDate      *string `json:"due_date,omitempty"`
	TimeEstimate *string `json:"time_estimate,omitempty"`
	Category     *string `json:"category,omitempty"`
}

// UpdateRequest is the payload for PATCH /tasks/{id}. Nil fields are left
// untouched by the store.
type UpdateRequest struct {
	Action       *string `json:"action,omitempty"`
	Priority     *string `json:"priority,omitempty"`
	DueDate      *string `json:"due_date,omitempty"`
	TimeEstimate *string `json:"time_estimate,omitempty"`
	Category     *string `json:"category,omitempty"`
	Completed    *bool   `json:"completed,omitempty"`
}

// ListFilter narrows GET /tasks results. Category filters on the effective
// category, explicit or derived.
type ListFilter struct {
	Completed *bool
	Category  *Category
}

// Suggestion is one externally analyzed task candidate supplied to the
// extraction adapter.
type Suggestion struct {
	Action       string  `json:"action"`
	DueDate      *string `json:"due_date,omitempty"`
	TimeEstimate *string `json:"time_estimate,omitempty"`
	Priority     *string `json:"priority,omitempty"`
}

// BulkAddRequest is the payload for POST /tasks/bulk.
type BulkAddRequest struct {
	ThreadID string       `json:"thread_id,omitempty"`
	Tasks    []Suggestion `json:"tasks"`
}

// TaskResponse is the serialized form of a task. Category is always the
// effective category; CategoryExplicit records whether it was user-set.
type TaskResponse struct {
	ID               string   `json:"id"`
	Action           string   `json:"action"`
	Priority         Priority `json:"priority"`
	DueDate          *string  `json:"due_date,omitempty"`
	TimeEstimate     string   `json:"time_estimate,omitempty"`
	Completed        bool     `json:"completed"`
	CompletedAt      *int64   `json:"completed_at,omitempty"`
	Category         Category `json:"category"`
	CategoryExplicit bool     `json:"category_explicit"`
	SourceThreadID   string   `json:"source_thread_id,omitempty"`
	GoogleTaskID     string   `json:"google_task_id,omitempty"`
	TeamBoardID      string   `json:"team_board_id,omitempty"`
	CreatedAt        int64    `json:"created_at"`
	UpdatedAt        int64    `json:"updated_at"`
}

// PushResponse is returned from POST /tasks/{id}/sync/{tracker}.
type PushResponse struct {
	ExternalID string  `json:"external_id"`
	Tracker    Tracker `json:"tracker"`
}

// ReconcileResponse is returned from POST /reconcile/{tracker}.
type ReconcileResponse struct {
	UpdatedCount int `json:"updated_count"`
}

// HealthResponse reports service and collaborator status.
type HealthResponse struct {
	Status    string                  `json:"status"`
	TaskCount int                     `json:"task_count"`
	DB        ServiceCheck            `json:"db"`
	Trackers  map[string]ServiceCheck `json:"trackers,omitempty"`
}

type ServiceCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
