// Package session is the client's single source of truth for who is logged in
// and with which role. Only the minimal re-authentication fields are persisted;
// the profile lives in memory.
package session

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rechargex-dev/rechargex/internal/cli/auth"
	"github.com/rechargex-dev/rechargex/internal/cli/client"
	"github.com/rechargex-dev/rechargex/internal/cli/routes"
)

// API is the subset of the backend client the store calls
type API interface {
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Register(ctx context.Context, req client.RegisterRequest) (*client.AuthResponse, error)
	Profile(ctx context.Context) (*client.User, error)
	UpdateUser(ctx context.Context, userID string, patch client.ProfileUpdate) (*client.User, error)
	UploadPhoto(ctx context.Context, filename string, photo io.Reader) error
}

// SignupData is the registration form without the confirmation field
type SignupData struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Snapshot is a consistent copy of the session fields
type Snapshot struct {
	Token   string
	UserID  string
	Role    auth.Role
	Profile *client.User
	Loading bool
}

// LoggedIn reports whether a credential is held
func (s Snapshot) LoggedIn() bool {
	return s.Token != ""
}

// Store holds the session. Token and user id are always set or cleared together.
type Store struct {
	api     API
	storage auth.Storage
	logger  zerolog.Logger

	mu      sync.RWMutex
	token   string
	userID  string
	role    auth.Role
	profile *client.User
	loading bool

	ready     chan struct{}
	readyOnce sync.Once
}

// New creates a logged-out store. Call Initialize to rehydrate a persisted session.
func New(api API, storage auth.Storage, logger zerolog.Logger) *Store {
	return &Store{
		api:     api,
		storage: storage,
		logger:  logger,
		ready:   make(chan struct{}),
	}
}

// Initialize reads the persisted record. With a record present the store is
// provisionally logged in and loading until the profile fetch finishes in the
// background; a failed fetch means the stored token is no longer valid and the
// session is dropped. Ready is closed once the outcome is known.
func (s *Store) Initialize(ctx context.Context) {
	rec, err := auth.LoadRecord(s.storage)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNotFound):
		case errors.Is(err, auth.ErrCorrupt):
			s.logger.Warn().Err(err).Msg("Discarding unreadable stored session")
			if err := auth.ClearRecord(s.storage); err != nil {
				s.logger.Error().Err(err).Msg("Failed to clear corrupt session record")
			}
		default:
			s.logger.Warn().Err(err).Msg("Failed to read stored session, starting logged out")
		}
		s.markReady()
		return
	}

	role, _ := rec.Role() // validated by LoadRecord

	s.mu.Lock()
	s.token = rec.Token
	s.userID = rec.UserID
	s.role = role
	s.profile = nil
	s.loading = true
	s.mu.Unlock()

	go s.rehydrate(ctx, rec.Token)
}

func (s *Store) rehydrate(ctx context.Context, token string) {
	defer s.markReady()

	user, err := s.api.Profile(ctx)

	s.mu.Lock()
	if s.token != token {
		// The session changed while the fetch was in flight; its outcome no longer applies
		s.loading = false
		s.mu.Unlock()
		return
	}
	if err == nil {
		s.profile = user
		s.loading = false
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.logger.Error().Err(err).Msg("Failed to fetch user profile, stored session is invalid")
	s.logoutIfCurrent(token)

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

// logoutIfCurrent logs out unless another session replaced token meanwhile
func (s *Store) logoutIfCurrent(token string) {
	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.Logout()
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// Ready is closed once Initialize has settled the session
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// WaitReady blocks until Ready is closed or ctx is done
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login authenticates against the backend. The store and durable storage are
// only touched on success.
func (s *Store) Login(ctx context.Context, email, password string) (*client.User, error) {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, fail(err, "Login failed")
	}
	if err := s.establish(resp, roleFromBackend(resp.User.Role)); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("user_id", resp.User.ID).Msg("Logged in")
	return &resp.User, nil
}

// Signup registers an ordinary user account and logs it in. The role sent to
// the backend is always USER.
func (s *Store) Signup(ctx context.Context, data SignupData) (*client.User, error) {
	resp, err := s.api.Register(ctx, client.RegisterRequest{
		Name:     data.Name,
		Email:    data.Email,
		Phone:    data.Phone,
		Password: data.Password,
		Role:     "USER",
	})
	if err != nil {
		return nil, fail(err, "Signup failed")
	}
	if err := s.establish(resp, auth.RoleUser); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("user_id", resp.User.ID).Msg("Signed up")
	return &resp.User, nil
}

func (s *Store) establish(resp *client.AuthResponse, role auth.Role) error {
	if resp.Token == "" || resp.User.ID == "" {
		return &Failure{Kind: KindInvalidResponse, Message: "Invalid response from server", Err: errors.New("missing token or user id")}
	}

	rec := auth.Record{UserID: resp.User.ID, Token: resp.Token, UserRole: role.String()}
	if err := auth.SaveRecord(s.storage, rec); err != nil {
		return &Failure{Kind: KindStorage, Message: "Could not save your session", Err: err}
	}

	user := resp.User
	s.mu.Lock()
	s.token = resp.Token
	s.userID = resp.User.ID
	s.role = role
	s.profile = &user
	s.loading = false
	s.mu.Unlock()
	return nil
}

// Logout clears the session in memory and in durable storage. Idempotent.
func (s *Store) Logout() {
	s.clearMemory()
	if err := auth.ClearRecord(s.storage); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear stored session")
	}
}

// HandleUnauthorized drops the in-memory session after the transport has
// already cleared durable storage for a 401 response.
func (s *Store) HandleUnauthorized() {
	s.clearMemory()
}

func (s *Store) clearMemory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.userID = ""
	s.role = auth.RoleNone
	s.profile = nil
}

// RefreshProfile re-fetches the profile. A failure is logged and yields nil;
// the session itself is kept.
func (s *Store) RefreshProfile(ctx context.Context) *client.User {
	if !s.Snapshot().LoggedIn() {
		return nil
	}

	user, err := s.api.Profile(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to refresh user profile")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return nil
	}
	s.profile = user
	copied := *user
	return &copied
}

// UpdateProfile sends a partial update and replaces the in-memory profile
// with the backend's representation.
func (s *Store) UpdateProfile(ctx context.Context, patch client.ProfileUpdate) (*client.User, error) {
	snap := s.Snapshot()
	if !snap.LoggedIn() {
		return nil, &Failure{Kind: KindNotLoggedIn, Message: "You are not logged in"}
	}
	id := snap.UserID
	if snap.Profile != nil && snap.Profile.ID != "" {
		id = snap.Profile.ID
	}

	user, err := s.api.UpdateUser(ctx, id, patch)
	if err != nil {
		return nil, fail(err, "Update failed")
	}

	s.mu.Lock()
	if s.token != "" {
		s.profile = user
	}
	s.mu.Unlock()

	copied := *user
	return &copied, nil
}

// UploadPhoto uploads a new avatar and refreshes the profile to pick it up
func (s *Store) UploadPhoto(ctx context.Context, filename string, photo io.Reader) (*client.User, error) {
	if !s.Snapshot().LoggedIn() {
		return nil, &Failure{Kind: KindNotLoggedIn, Message: "You are not logged in"}
	}
	if err := s.api.UploadPhoto(ctx, filename, photo); err != nil {
		return nil, fail(err, "Failed to upload photo")
	}
	return s.RefreshProfile(ctx), nil
}

// Snapshot returns a copy of the current session fields
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Token:   s.token,
		UserID:  s.userID,
		Role:    s.role,
		Loading: s.loading,
	}
	if s.profile != nil {
		p := *s.profile
		snap.Profile = &p
	}
	return snap
}

// GuardState returns what the route guard needs to decide a navigation
func (s *Store) GuardState() routes.State {
	snap := s.Snapshot()
	return routes.State{
		Loading:  snap.Loading,
		HasToken: snap.LoggedIn(),
		Role:     snap.Role,
	}
}

// roleFromBackend maps the backend role; anything unrecognized is an ordinary user
func roleFromBackend(raw string) auth.Role {
	role, err := auth.ParseRole(raw)
	if err != nil {
		return auth.RoleUser
	}
	return role
}
