package client

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rechargex-dev/rechargex/internal/cli/auth"
)

// Navigator is the part of the navigation surface the transport needs
type Navigator interface {
	Location() string
	Navigate(to string)
}

// publicEndpoints are reachable without a credential
var publicEndpoints = map[string]bool{
	"GET /plans":              true,
	"GET /feedbacks/approved": true,
}

// AuthTransport attaches the stored bearer token to outgoing requests and
// reacts centrally to 401 responses: the stored session is cleared and the
// navigator is sent to the login view.
type AuthTransport struct {
	base     http.RoundTripper
	storage  auth.Storage
	nav      Navigator
	logger   zerolog.Logger
	basePath string

	mu        sync.Mutex
	listeners []func()
}

// NewAuthTransport creates the transport for requests under baseURL.
// base may be nil to use http.DefaultTransport.
func NewAuthTransport(baseURL string, base http.RoundTripper, storage auth.Storage, nav Navigator, logger zerolog.Logger) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	basePath := ""
	if u, err := url.Parse(baseURL); err == nil {
		basePath = strings.TrimSuffix(u.Path, "/")
	}
	return &AuthTransport{
		base:     base,
		storage:  storage,
		nav:      nav,
		logger:   logger,
		basePath: basePath,
	}
}

// OnUnauthorized registers fn to run after the stored session was cleared
// because of a 401 response.
func (t *AuthTransport) OnUnauthorized(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// RoundTrip implements http.RoundTripper
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.isPublic(req) {
		req = t.withCredential(req)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		t.handleUnauthorized(req)
	}
	return resp, nil
}

func (t *AuthTransport) isPublic(req *http.Request) bool {
	path := strings.TrimPrefix(req.URL.Path, t.basePath)
	return publicEndpoints[req.Method+" "+path]
}

// withCredential returns a copy of req carrying the stored token, or req
// itself when no usable token is stored.
func (t *AuthTransport) withCredential(req *http.Request) *http.Request {
	token, err := auth.LoadToken(t.storage)
	if err != nil {
		if !errors.Is(err, auth.ErrNotFound) {
			// Degrade to an anonymous request
			t.logger.Warn().Err(err).Msg("Failed to read stored session, sending request without credential")
		}
		return req
	}
	if token == "" {
		return req
	}

	authed := req.Clone(req.Context())
	authed.Header.Set("Authorization", "Bearer "+token)
	return authed
}

func (t *AuthTransport) handleUnauthorized(req *http.Request) {
	if err := auth.ClearRecord(t.storage); err != nil {
		t.logger.Error().Err(err).Msg("Failed to clear stored session after 401")
	}
	t.logger.Debug().Str("method", req.Method).Str("path", req.URL.Path).Msg("Authorization failure, session cleared")

	t.mu.Lock()
	listeners := append([]func(){}, t.listeners...)
	t.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}

	if t.nav == nil {
		return
	}
	switch t.nav.Location() {
	case "/login", "/signup":
		// Already authenticating
	default:
		t.nav.Navigate("/login")
	}
}
