package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opsdeck/tasksync/internal/models"
)

// TeamBoardClient talks to the shared team board's HTTP API. Cards are
// created on push and their completion state is read back during
// reconciliation.
type TeamBoardClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewTeamBoardClient(baseURL, token string, timeout time.Duration) *TeamBoardClient {
	return &TeamBoardClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *TeamBoardClient) Name() models.Tracker {
	return models.TrackerTeamBoard
}

type createCardRequest struct {
	Title    string `json:"title"`
	Priority string `json:"priority"`
	DueDate  string `json:"due_date,omitempty"`
	Estimate string `json:"estimate,omitempty"`
}

type createCardResponse struct {
	ID string `json:"id"`
}

// Create posts a new card to the board and returns its id.
func (c *TeamBoardClient) Create(ctx context.Context, t *models.Task) (string, error) {
	reqBody := createCardRequest{
		Title:    t.Action,
		Priority: string(t.Priority),
		Estimate: t.TimeEstimate,
	}
	if t.DueDate != nil {
		reqBody.DueDate = t.DueDate.Format(models.DateLayout)
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal card request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/cards", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build card request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.wrap(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.wrap(fmt.Errorf("read card response: %w", err))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", c.wrapStatus(resp.StatusCode, body)
	}

	var result createCardResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", c.wrap(fmt.Errorf("decode card response: %w", err))
	}
	if result.ID == "" {
		return "", c.wrap(fmt.Errorf("board returned empty card id"))
	}
	return result.ID, nil
}

// ListStatuses fetches the completion state of every card on the board.
func (c *TeamBoardClient) ListStatuses(ctx context.Context) ([]Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/cards/statuses", nil)
	if err != nil {
		return nil, fmt.Errorf("build statuses request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.wrap(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.wrap(fmt.Errorf("read statuses response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.wrapStatus(resp.StatusCode, body)
	}

	var statuses []Status
	if err := json.Unmarshal(body, &statuses); err != nil {
		return nil, c.wrap(fmt.Errorf("decode statuses response: %w", err))
	}
	return statuses, nil
}

// HealthCheck verifies the board is reachable.
func (c *TeamBoardClient) HealthCheck() error {
	resp, err := c.httpClient.Get(c.baseURL + "/api/health")
	if err != nil {
		return fmt.Errorf("team board health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("team board health check: status %d", resp.StatusCode)
	}
	return nil
}

func (c *TeamBoardClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *TeamBoardClient) wrap(err error) error {
	kind := KindUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{Tracker: models.TrackerTeamBoard, Kind: kind, Err: err}
}

func (c *TeamBoardClient) wrapStatus(status int, body []byte) error {
	kind := KindUnavailable
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status >= 400 && status < 500:
		kind = KindInvalid
	}
	return &Error{
		Tracker: models.TrackerTeamBoard,
		Kind:    kind,
		Err:     fmt.Errorf("status %d: %s", status, string(body)),
	}
}
