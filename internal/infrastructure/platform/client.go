package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/znakly/agent/internal/config"
	"github.com/znakly/agent/internal/domain"
	"github.com/znakly/agent/internal/infrastructure/logger"
)

type challengeResponse struct {
	UUID string `json:"uuid"`
	Data string `json:"data"`
}

type signInRequest struct {
	UUID string `json:"uuid"`
	Data string `json:"data"`
}

type signInResponse struct {
	Token string `json:"token"`
}

// TaskRequest is the report-generation request body.
type TaskRequest struct {
	Name             string `json:"name"`
	DataStartDate    string `json:"dataStartDate"`
	DataEndDate      string `json:"dataEndDate"`
	Format           string `json:"format"`
	Periodicity      string `json:"periodicity"`
	Params           string `json:"params"`
	ProductGroupCode int    `json:"productGroupCode"`
}

// TaskDescriptor is the server's answer to a task creation.
type TaskDescriptor struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	CreateDate       string `json:"createDate"`
	CurrentStatus    string `json:"currentStatus"`
	DataStartDate    string `json:"dataStartDate"`
	DataEndDate      string `json:"dataEndDate"`
	OrgINN           string `json:"orgInn"`
	Periodicity      string `json:"periodicity"`
	ProductGroupCode int    `json:"productGroupCode"`
	TimeoutSecs      int    `json:"timeoutSecs"`
}

type ProductGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaskStatusDescriptor is the server's answer to a status query.
type TaskStatusDescriptor struct {
	ID                     string         `json:"id"`
	Name                   string         `json:"name"`
	CreateDate             string         `json:"createDate"`
	CurrentStatus          string         `json:"currentStatus"`
	OrgINN                 string         `json:"orgInn"`
	ProductGroupCode       int            `json:"productGroupCode"`
	DownloadingStorageDays int            `json:"downloadingStorageDays"`
	ProductGroups          []ProductGroup `json:"productGroups"`
	TimeoutSecs            int            `json:"timeoutSecs"`
	DownloadURL            string         `json:"downloadUrl"`
}

// Client talks to the regulatory platform. Challenge fetches, task creation
// and status queries run through the retryer; sign-in confirmation is
// attempted once because a challenge is single-use.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	retry      *Retryer
	logger     *logger.Logger
}

type ClientConfig struct {
	Platform config.PlatformConfig
	Retry    *Retryer
	Logger   *logger.Logger
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Platform.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   cfg.Platform.BaseURL,
		userAgent: cfg.Platform.UserAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry:  cfg.Retry,
		logger: cfg.Logger,
	}
}

// GetChallenge fetches a fresh signing challenge. Unauthenticated.
func (c *Client) GetChallenge(ctx context.Context) (domain.Challenge, error) {
	resp, err := Do(c.retry, "auth_key", func(attempt int) (challengeResponse, error) {
		var out challengeResponse
		err := c.doJSON(ctx, http.MethodGet, "/auth/key", "", nil, &out)
		return out, err
	})
	if err != nil {
		return domain.Challenge{}, err
	}
	return domain.Challenge{UUID: resp.UUID, Payload: []byte(resp.Data)}, nil
}

// SignIn posts the cleaned signature for the given challenge and returns the
// bearer token. Never retried.
func (c *Client) SignIn(ctx context.Context, challengeUUID, signature string) (string, error) {
	var out signInResponse
	body := signInRequest{UUID: challengeUUID, Data: signature}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/simpleSignIn", "", body, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// CreateTask submits one report-generation request.
func (c *Client) CreateTask(ctx context.Context, token string, req TaskRequest) (TaskDescriptor, error) {
	return Do(c.retry, "dispenser_create_task", func(attempt int) (TaskDescriptor, error) {
		var out TaskDescriptor
		err := c.doJSON(ctx, http.MethodPost, "/dispenser/tasks", token, req, &out)
		return out, err
	})
}

// TaskStatus queries the current status of one task.
func (c *Client) TaskStatus(ctx context.Context, token, taskID string, productGroupCode int) (TaskStatusDescriptor, error) {
	path := fmt.Sprintf("/dispenser/tasks/%s?pg=%d", taskID, productGroupCode)
	return Do(c.retry, "dispenser_task_status", func(attempt int) (TaskStatusDescriptor, error) {
		var out TaskStatusDescriptor
		err := c.doJSON(ctx, http.MethodGet, path, token, nil, &out)
		return out, err
	})
}

// doJSON performs one complete request/response exchange. Each call builds a
// fresh request with its own request id, so retried attempts never share
// state.
func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}
		reader = bytes.NewReader(encoded)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warnw("platform_network_error",
			"method", method,
			"path", path,
			"request_id", requestID,
			"error", err,
		)
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	c.logger.Infow("platform_exchange",
		"method", method,
		"path", path,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"resp_bytes", len(respBody),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d: %s", ErrServerRejected, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}
	}
	return nil
}
