package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client represents an HTTP client for the RechargeX API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client. transport is normally an *AuthTransport.
func New(baseURL string, transport http.RoundTripper, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// BaseURL returns the backend root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login authenticates the user and returns the user record and token
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/users/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns the user record and token
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/users/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile returns the full record of the authenticated user
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodGet, "/users/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies a partial update and returns the stored representation
func (c *Client) UpdateUser(ctx context.Context, userID string, patch ProfileUpdate) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodPut, "/users/"+url.PathEscape(userID), patch, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UploadPhoto sends a new avatar as multipart form data under the "photo" field
func (c *Client) UploadPhoto(ctx context.Context, filename string, photo io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, photo); err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize form: %w", err)
	}

	return c.do(ctx, http.MethodPost, "/users/upload-photo", mw.FormDataContentType(), &buf, nil)
}

// ListUsers returns every registered user (admin only)
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.doJSON(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser removes a user by ID (admin only)
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID), nil, nil)
}

// ListPlans returns the public plan catalog
func (c *Client) ListPlans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	if err := c.doJSON(ctx, http.MethodGet, "/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// CreatePlan adds a plan to the catalog (admin only)
func (c *Client) CreatePlan(ctx context.Context, in PlanInput) (*Plan, error) {
	var plan Plan
	if err := c.doJSON(ctx, http.MethodPost, "/plans", in, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// UpdatePlan replaces a plan (admin only)
func (c *Client) UpdatePlan(ctx context.Context, planID string, in PlanInput) (*Plan, error) {
	var plan Plan
	if err := c.doJSON(ctx, http.MethodPut, "/plans/"+url.PathEscape(planID), in, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// DeletePlan removes a plan (admin only)
func (c *Client) DeletePlan(ctx context.Context, planID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/plans/"+url.PathEscape(planID), nil, nil)
}

// ListTransactions returns the full transaction log (admin only)
func (c *Client) ListTransactions(ctx context.Context) ([]Transaction, error) {
	var txs []Transaction
	if err := c.doJSON(ctx, http.MethodGet, "/transactions", nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// UserTransactions returns the transactions of one user
func (c *Client) UserTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	var txs []Transaction
	if err := c.doJSON(ctx, http.MethodGet, "/transactions/user/"+url.PathEscape(userID), nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// CreateTransaction appends a recharge to the transaction log
func (c *Client) CreateTransaction(ctx context.Context, in TransactionInput) (*Transaction, error) {
	var tx Transaction
	if err := c.doJSON(ctx, http.MethodPost, "/transactions", in, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// ApprovedFeedbacks returns the public testimonials
func (c *Client) ApprovedFeedbacks(ctx context.Context) ([]Feedback, error) {
	var feedbacks []Feedback
	if err := c.doJSON(ctx, http.MethodGet, "/feedbacks/approved", nil, &feedbacks); err != nil {
		return nil, err
	}
	return feedbacks, nil
}

// SubmitFeedback posts a testimonial for review
func (c *Client) SubmitFeedback(ctx context.Context, in FeedbackInput) error {
	return c.doJSON(ctx, http.MethodPost, "/feedbacks", in, nil)
}

// doJSON sends body (if any) as JSON and decodes a 2xx response into out (if any)
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, reader, out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
