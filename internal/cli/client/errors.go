package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNetwork wraps failures where no response arrived from the backend
var ErrNetwork = errors.New("network error")

// APIError is a non-2xx response from the backend
type APIError struct {
	StatusCode int
	Message    string // from the payload's "message" or "error" field, may be empty
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Body)
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// MessageOf returns the backend-provided message carried by err, or "".
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

func newAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = payload.Message
		if msg == "" {
			msg = payload.Error
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Body:       string(body),
	}
}
