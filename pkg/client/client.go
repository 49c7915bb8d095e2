package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/terra-clan/skillify/internal/gate"
	"github.com/terra-clan/skillify/internal/models"
	"github.com/terra-clan/skillify/internal/planner"
)

var (
	// ErrPending is returned when the gate is still waiting for the
	// session check; retry after a moment
	ErrPending = errors.New("session check pending")
	// ErrSignedOut is returned when the gate redirects to the auth screen
	ErrSignedOut = errors.New("not signed in")
)

// APIError is an error envelope returned by the server
type APIError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Notice  *models.Notice `json:"notice,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s - %s", e.Status, e.Code, e.Message)
}

// Client is a Go SDK for the skillify API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken sets the session token sent as a bearer token
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a new skillify client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	// Gate redirects are reported as ErrSignedOut rather than followed
	c.httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return c
}

// Token returns the session token the client currently sends
func (c *Client) Token() string {
	return c.token
}

// Screen is a rendered protected screen
type Screen[T any] struct {
	Screen  string         `json:"screen"`
	Path    string         `json:"path"`
	Sidebar []gate.NavItem `json:"sidebar,omitempty"`
	View    T              `json:"view"`
}

// AddScheduleResult is returned after adding a schedule item
type AddScheduleResult struct {
	Item   models.ScheduleItem `json:"item"`
	Notice models.Notice       `json:"notice"`
}

// ChatExchange is a sent message and the assistant's reply
type ChatExchange struct {
	Message planner.Message `json:"message"`
	Reply   planner.Message `json:"reply"`
}

// SignUp creates an account and keeps its session token
func (c *Client) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	resp, err := call[models.AuthResponse](ctx, c, http.MethodPost, "/auth/sign-up", req)
	if err != nil {
		return nil, err
	}
	c.token = resp.Token
	return resp, nil
}

// SignIn opens a session and keeps its token
func (c *Client) SignIn(ctx context.Context, req models.SignInRequest) (*models.AuthResponse, error) {
	resp, err := call[models.AuthResponse](ctx, c, http.MethodPost, "/auth/sign-in", req)
	if err != nil {
		return nil, err
	}
	c.token = resp.Token
	return resp, nil
}

// Session returns the current session
func (c *Client) Session(ctx context.Context) (*models.Session, error) {
	return call[models.Session](ctx, c, http.MethodGet, "/auth/session", nil)
}

// Refresh extends the session and swaps in the new token
func (c *Client) Refresh(ctx context.Context) (*models.AuthResponse, error) {
	resp, err := call[models.AuthResponse](ctx, c, http.MethodPost, "/auth/refresh", nil)
	if err != nil {
		return nil, err
	}
	c.token = resp.Token
	return resp, nil
}

// UpdateName changes the display name of the signed in user
func (c *Client) UpdateName(ctx context.Context, name string) (*models.Session, error) {
	return call[models.Session](ctx, c, http.MethodPut, "/auth/user", models.UpdateUserRequest{Name: name})
}

// SignOut ends the session and forgets the token
func (c *Client) SignOut(ctx context.Context) error {
	if _, err := call[json.RawMessage](ctx, c, http.MethodPost, "/auth/sign-out", nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// Dashboard returns the dashboard screen
func (c *Client) Dashboard(ctx context.Context) (*Screen[planner.Dashboard], error) {
	return call[Screen[planner.Dashboard]](ctx, c, http.MethodGet, "/dashboard", nil)
}

// SetDreamJob saves the dream job and waits for the roadmap to be built
func (c *Client) SetDreamJob(ctx context.Context, req planner.DreamJobRequest) (*planner.Outcome, error) {
	return call[planner.Outcome](ctx, c, http.MethodPost, "/dream-job", req)
}

// UploadCV sends a CV file and waits for it to be processed
func (c *Client) UploadCV(ctx context.Context, filename, contentType string, data []byte) (*planner.Outcome, error) {
	body, ct, err := multipartFile("file", filename, contentType, data)
	if err != nil {
		return nil, err
	}
	raw, err := c.doRequest(ctx, http.MethodPost, "/upload-cv", ct, body)
	if err != nil {
		return nil, err
	}
	return decode[planner.Outcome](raw)
}

// Roadmap returns the roadmap screen
func (c *Client) Roadmap(ctx context.Context) (*Screen[planner.RoadmapView], error) {
	return call[Screen[planner.RoadmapView]](ctx, c, http.MethodGet, "/roadmap", nil)
}

// SetRoadmapStatus changes the status of one roadmap item
func (c *Client) SetRoadmapStatus(ctx context.Context, id string, status models.RoadmapStatus) (*planner.RoadmapView, error) {
	body := map[string]models.RoadmapStatus{"status": status}
	return call[planner.RoadmapView](ctx, c, http.MethodPut, "/roadmap/"+url.PathEscape(id), body)
}

// Schedule returns the schedule screen
func (c *Client) Schedule(ctx context.Context) (*Screen[planner.ScheduleView], error) {
	return call[Screen[planner.ScheduleView]](ctx, c, http.MethodGet, "/schedule", nil)
}

// AddScheduleItem adds an item to the weekly schedule
func (c *Client) AddScheduleItem(ctx context.Context, in planner.ScheduleInput) (*AddScheduleResult, error) {
	return call[AddScheduleResult](ctx, c, http.MethodPost, "/schedule", in)
}

// DeleteScheduleItem removes an item from the weekly schedule
func (c *Client) DeleteScheduleItem(ctx context.Context, id string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodDelete, "/schedule/"+url.PathEscape(id), nil)
	return err
}

// SendMessage sends a chat message and waits for the reply
func (c *Client) SendMessage(ctx context.Context, text string) (*ChatExchange, error) {
	return call[ChatExchange](ctx, c, http.MethodPost, "/chatbot/messages", map[string]string{"text": text})
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", "", nil)
	return err
}

func call[T any](ctx context.Context, c *Client, method, path string, in any) (*T, error) {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	raw, err := c.doRequest(ctx, method, path, contentType, body)
	if err != nil {
		return nil, err
	}
	return decode[T](raw)
}

func decode[T any](raw []byte) (*T, error) {
	var result struct {
		Success bool      `json:"success"`
		Data    *T        `json:"data"`
		Error   *APIError `json:"error"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !result.Success || result.Data == nil {
		return nil, fmt.Errorf("unexpected response: %s", string(raw))
	}
	return result.Data, nil
}

// doRequest performs an HTTP request and maps gate and error responses
func (c *Client) doRequest(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusSeeOther:
		return nil, ErrSignedOut
	case resp.StatusCode == http.StatusAccepted && bytes.Contains(respBody, []byte(`"pending"`)):
		return nil, ErrPending
	case resp.StatusCode >= 400:
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if err := json.Unmarshal(respBody, &envelope); err != nil || envelope.Error == nil {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		envelope.Error.Status = resp.StatusCode
		return nil, envelope.Error
	}

	return respBody, nil
}

func multipartFile(field, filename, contentType string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename)}
	header["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("failed to write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
