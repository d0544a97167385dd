package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gtasks "google.golang.org/api/tasks/v1"

	"github.com/opsdeck/tasksync/internal/models"
)

func stubTasksService(t *testing.T, handler http.HandlerFunc) (*GoogleTasksClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := gtasks.NewService(context.Background(),
		option.WithEndpoint(srv.URL),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("create stub tasks service: %v", err)
	}
	return NewGoogleTasksClientFromService(svc), srv
}

func TestGoogleTasksCreate(t *testing.T) {
	var got gtasks.Task
	client, _ := stubTasksService(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode insert body: %v", err)
		}
		json.NewEncoder(w).Encode(gtasks.Task{Id: "gt-123", Title: got.Title})
	})

	due := time.Date(2025, 7, 20, 18, 30, 0, 0, time.UTC)
	id, err := client.Create(context.Background(), &models.Task{
		ID:           "task-1",
		Action:       "order new glassware",
		Priority:     models.PriorityUrgent,
		DueDate:      &due,
		TimeEstimate: "30m",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id != "gt-123" {
		t.Errorf("expected gt-123, got %s", id)
	}
	if got.Title != "order new glassware" {
		t.Errorf("unexpected title: %q", got.Title)
	}
	// Due goes over the wire as midnight UTC regardless of local time.
	if got.Due != "2025-07-20T00:00:00.000Z" {
		t.Errorf("unexpected due: %q", got.Due)
	}
	if got.Notes != "Priority: URGENT\nEstimate: 30m" {
		t.Errorf("unexpected notes: %q", got.Notes)
	}
}

func TestGoogleTasksCreateAuthError(t *testing.T) {
	client, _ := stubTasksService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Create(context.Background(), &models.Task{Action: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	var trErr *Error
	if !errors.As(err, &trErr) {
		t.Fatalf("expected *tracker.Error, got %T", err)
	}
	if trErr.Kind != KindAuth {
		t.Errorf("expected kind %s, got %s", KindAuth, trErr.Kind)
	}
}

func TestTaskNotes(t *testing.T) {
	cases := []struct {
		name string
		task models.Task
		want string
	}{
		{"normal priority omitted", models.Task{Priority: models.PriorityNormal}, ""},
		{"urgent priority", models.Task{Priority: models.PriorityUrgent}, "Priority: URGENT"},
		{"estimate only", models.Task{Priority: models.PriorityNormal, TimeEstimate: "1h"}, "Estimate: 1h"},
		{
			"priority and estimate",
			models.Task{Priority: models.PriorityHigh, TimeEstimate: "45m"},
			"Priority: HIGH\nEstimate: 45m",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := taskNotes(&tc.task); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestClassifyGoogleErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"unauthorized", &googleapi.Error{Code: 401}, KindAuth},
		{"forbidden", &googleapi.Error{Code: 403}, KindAuth},
		{"bad request", &googleapi.Error{Code: 400}, KindInvalid},
		{"server error", &googleapi.Error{Code: 500}, KindUnavailable},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"plain error", errors.New("connection refused"), KindUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyGoogleErr(tc.err)
			var trErr *Error
			if !errors.As(err, &trErr) {
				t.Fatalf("expected *tracker.Error, got %T", err)
			}
			if trErr.Kind != tc.want {
				t.Errorf("expected kind %s, got %s", tc.want, trErr.Kind)
			}
			if trErr.Tracker != models.TrackerGoogleTasks {
				t.Errorf("unexpected tracker: %s", trErr.Tracker)
			}
		})
	}
}
