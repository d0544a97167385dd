package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gtasks "google.golang.org/api/tasks/v1"

	"github.com/opsdeck/tasksync/internal/models"
)

const (
	credentialsFile = "credentials.json"
	tokenFile       = "token.json"

	// defaultTaskList is the user's primary Google Tasks list.
	defaultTaskList = "@default"
)

// GoogleTasksClient pushes tasks into the user's personal Google Tasks list.
type GoogleTasksClient struct {
	svc *gtasks.Service
}

// NewGoogleTasksClient builds an authenticated Tasks API client from a
// previously stored OAuth token. The interactive authorization flow happens
// elsewhere; this client only refreshes.
func NewGoogleTasksClient(ctx context.Context, credentialsDir string) (*GoogleTasksClient, error) {
	httpClient, err := oauthClient(ctx, credentialsDir)
	if err != nil {
		return nil, err
	}

	svc, err := gtasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create tasks service: %w", err)
	}
	return &GoogleTasksClient{svc: svc}, nil
}

// NewGoogleTasksClientFromService wraps an existing Tasks service. Used by
// tests with a service pointed at a stub server.
func NewGoogleTasksClientFromService(svc *gtasks.Service) *GoogleTasksClient {
	return &GoogleTasksClient{svc: svc}
}

func (c *GoogleTasksClient) Name() models.Tracker {
	return models.TrackerGoogleTasks
}

// Create inserts the task into the default Google Tasks list and returns the
// new entity's id.
func (c *GoogleTasksClient) Create(ctx context.Context, t *models.Task) (string, error) {
	body := &gtasks.Task{
		Title: t.Action,
		Notes: taskNotes(t),
	}
	if t.DueDate != nil {
		// The Tasks API wants an RFC 3339 timestamp at midnight UTC; the
		// time portion is discarded on their side.
		body.Due = t.DueDate.UTC().Format("2006-01-02T00:00:00.000Z")
	}

	created, err := c.svc.Tasks.Insert(defaultTaskList, body).Context(ctx).Do()
	if err != nil {
		return "", classifyGoogleErr(err)
	}
	return created.Id, nil
}

// taskNotes renders the priority and time estimate into the free-text notes
// field, the only place Google Tasks can carry them.
func taskNotes(t *models.Task) string {
	var parts []string
	if t.Priority != "" && t.Priority != models.PriorityNormal {
		parts = append(parts, "Priority: "+strings.ToUpper(string(t.Priority)))
	}
	if t.TimeEstimate != "" {
		parts = append(parts, "Estimate: "+t.TimeEstimate)
	}
	return strings.Join(parts, "\n")
}

func classifyGoogleErr(err error) error {
	kind := KindUnavailable
	var apiErr *googleapi.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &apiErr):
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			kind = KindAuth
		case apiErr.Code >= 400 && apiErr.Code < 500:
			kind = KindInvalid
		}
	}
	return &Error{Tracker: models.TrackerGoogleTasks, Kind: kind, Err: err}
}

// oauthClient loads the stored OAuth credentials and token from the
// credentials directory and returns an auto-refreshing HTTP client.
func oauthClient(ctx context.Context, dir string) (*http.Client, error) {
	secrets, err := os.ReadFile(filepath.Join(dir, credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("read client secrets: %w", err)
	}

	config, err := google.ConfigFromJSON(secrets, gtasks.TasksScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secrets: %w", err)
	}

	tok, err := tokenFromFile(filepath.Join(dir, tokenFile))
	if err != nil {
		return nil, fmt.Errorf("load oauth token: %w", err)
	}

	return config.Client(ctx, tok), nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token from %s: %w", path, err)
	}
	return tok, nil
}
