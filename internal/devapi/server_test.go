package devapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rechargex-dev/rechargex/internal/config"
)

const (
	adminEmail = "admin@rechargex.dev"
	adminPass  = "admin-secret"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	srv, err := New(config.DevAPIConfig{
		DatabaseURL: ":memory:",
		JWTSecret:   "test-secret",
		TokenTTL:    time.Hour,
		UploadDir:   t.TempDir(),
		AdminEmail:  adminEmail,
		AdminPass:   adminPass,
		CORSOrigins: []string{"http://localhost:5173"},
	}, zerolog.Nop(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func do(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

type authBody struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

func register(t *testing.T, srv *Server, name, email string) authBody {
	t.Helper()
	w := do(t, srv, http.MethodPost, "/users/register", "", map[string]string{
		"name": name, "email": email, "phone": "9876543210", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var body authBody
	decode(t, w, &body)
	return body
}

func login(t *testing.T, srv *Server, email, password string) authBody {
	t.Helper()
	w := do(t, srv, http.MethodPost, "/users/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body authBody
	decode(t, w, &body)
	return body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"online"`)
}

func TestSeededCatalog(t *testing.T) {
	srv := newTestServer(t)

	var plans []Plan
	w := do(t, srv, http.MethodGet, "/plans", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &plans)
	assert.Len(t, plans, 6)

	var feedbacks []Feedback
	w = do(t, srv, http.MethodGet, "/feedbacks/approved", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &feedbacks)
	assert.Len(t, feedbacks, 2)

	admin := login(t, srv, adminEmail, adminPass)
	assert.Equal(t, RoleAdmin, admin.User.Role)
}

func TestRegister(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/users/register", "", map[string]string{
		"name": "Asha", "email": "Asha@Example.com", "password": "secret1", "role": "ADMIN",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var body authBody
	decode(t, w, &body)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "asha@example.com", body.User.Email)
	assert.Equal(t, RoleUser, body.User.Role)
	assert.NotContains(t, w.Body.String(), "passwordHash")

	w = do(t, srv, http.MethodPost, "/users/register", "", map[string]string{
		"name": "Asha", "email": "asha@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"message":"User already exists"}`, w.Body.String())

	w = do(t, srv, http.MethodPost, "/users/register", "", map[string]string{"name": "A", "email": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "Asha", "asha@example.com")

	w := do(t, srv, http.MethodPost, "/users/login", "", map[string]string{"email": "asha@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Invalid email or password"}`, w.Body.String())

	w = do(t, srv, http.MethodPost, "/users/login", "", map[string]string{"email": "nobody@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := login(t, srv, "ASHA@example.com", "secret1")
	assert.Equal(t, "Asha", body.User.Name)

	w = do(t, srv, http.MethodGet, "/users/profile", body.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"asha@example.com"`)
}

func TestAuthMiddleware(t *testing.T) {
	srv := newTestServer(t)
	user := register(t, srv, "Asha", "asha@example.com")

	w := do(t, srv, http.MethodGet, "/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, srv, http.MethodGet, "/users/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Admin-only routes
	w = do(t, srv, http.MethodGet, "/users", user.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, srv, http.MethodGet, "/transactions", user.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := login(t, srv, adminEmail, adminPass)
	w = do(t, srv, http.MethodGet, "/users", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []User
	decode(t, w, &users)
	assert.Len(t, users, 2)
}

func TestExpiredToken(t *testing.T) {
	srv := newTestServer(t)
	user := register(t, srv, "Asha", "asha@example.com")

	srv.tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	w := do(t, srv, http.MethodGet, "/users/profile", user.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateUser(t *testing.T) {
	srv := newTestServer(t)
	asha := register(t, srv, "Asha", "asha@example.com")
	ravi := register(t, srv, "Ravi", "ravi@example.com")

	w := do(t, srv, http.MethodPut, "/users/"+ravi.User.ID, asha.Token, map[string]string{"name": "Hacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, srv, http.MethodPut, "/users/"+asha.User.ID, asha.Token, map[string]string{"name": "Asha K", "phone": "9123456780"})
	require.Equal(t, http.StatusOK, w.Code)
	var user User
	decode(t, w, &user)
	assert.Equal(t, "Asha K", user.Name)
	assert.Equal(t, "9123456780", user.Phone)
	assert.Equal(t, "asha@example.com", user.Email)

	admin := login(t, srv, adminEmail, adminPass)
	w = do(t, srv, http.MethodPut, "/users/"+ravi.User.ID, admin.Token, map[string]string{"name": "Ravi M"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTransactions(t *testing.T) {
	srv := newTestServer(t)
	asha := register(t, srv, "Asha", "asha@example.com")
	ravi := register(t, srv, "Ravi", "ravi@example.com")

	var plans []Plan
	decode(t, do(t, srv, http.MethodGet, "/plans", "", nil), &plans)
	plan := plans[0]

	// A user cannot recharge on someone else's account
	w := do(t, srv, http.MethodPost, "/transactions", asha.Token, map[string]interface{}{
		"userId": ravi.User.ID, "mobileNumber": "9876543210", "provider": plan.Provider,
		"planId": plan.ID, "amount": plan.Price,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]interface{}
	decode(t, w, &created)
	assert.Equal(t, "SUCCESS", created["status"])
	assert.Equal(t, "UPI", created["paymentMethod"])
	assert.Equal(t, asha.User.ID, created["userId"])
	populated, ok := created["planId"].(map[string]interface{})
	require.True(t, ok, "planId should be populated")
	assert.Equal(t, plan.PlanName, populated["planName"])

	w = do(t, srv, http.MethodPost, "/transactions", asha.Token, map[string]interface{}{
		"mobileNumber": "9876543210", "provider": "Jio", "planId": "missing", "amount": 10,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodGet, "/transactions/user/"+asha.User.ID, asha.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []map[string]interface{}
	decode(t, w, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, asha.User.ID, mine[0]["userId"])

	w = do(t, srv, http.MethodGet, "/transactions/user/"+asha.User.ID, ravi.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := login(t, srv, adminEmail, adminPass)
	w = do(t, srv, http.MethodGet, "/transactions", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []map[string]interface{}
	decode(t, w, &all)
	require.Len(t, all, 1)
	owner, ok := all[0]["userId"].(map[string]interface{})
	require.True(t, ok, "userId should be populated for admins")
	assert.Equal(t, "Asha", owner["name"])
}

func TestPlanAdministration(t *testing.T) {
	srv := newTestServer(t)
	admin := login(t, srv, adminEmail, adminPass)
	user := register(t, srv, "Asha", "asha@example.com")

	req := PlanRequest{Provider: "Jio", PlanName: "Annual", Price: 2999, Data: "2.5GB/day", Validity: "365 days"}

	w := do(t, srv, http.MethodPost, "/plans", user.Token, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, srv, http.MethodPost, "/plans", admin.Token, req)
	require.Equal(t, http.StatusCreated, w.Code)
	var plan Plan
	decode(t, w, &plan)
	assert.NotEmpty(t, plan.ID)

	req.Price = 3099
	w = do(t, srv, http.MethodPut, "/plans/"+plan.ID, admin.Token, req)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &plan)
	assert.Equal(t, 3099.0, plan.Price)

	w = do(t, srv, http.MethodPut, "/plans/missing", admin.Token, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, srv, http.MethodPost, "/plans", admin.Token, map[string]interface{}{"provider": "Jio", "price": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodDelete, "/plans/"+plan.ID, admin.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, srv, http.MethodDelete, "/plans/"+plan.ID, admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUser(t *testing.T) {
	srv := newTestServer(t)
	admin := login(t, srv, adminEmail, adminPass)
	user := register(t, srv, "Asha", "asha@example.com")

	w := do(t, srv, http.MethodDelete, "/users/"+admin.User.ID, admin.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodDelete, "/users/"+user.User.ID, admin.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// The deleted user's token no longer resolves
	w = do(t, srv, http.MethodGet, "/users/profile", user.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, srv, http.MethodDelete, "/users/"+user.User.ID, admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedbackAwaitsModeration(t *testing.T) {
	srv := newTestServer(t)
	user := register(t, srv, "Asha", "asha@example.com")

	w := do(t, srv, http.MethodPost, "/feedbacks", user.Token, map[string]interface{}{"feedback": "  Great app  ", "rating": 5})
	require.Equal(t, http.StatusCreated, w.Code)
	var fb Feedback
	decode(t, w, &fb)
	assert.Equal(t, "Great app", fb.Feedback)
	assert.Equal(t, "Asha", fb.Name)
	assert.False(t, fb.Approved)

	var approved []Feedback
	decode(t, do(t, srv, http.MethodGet, "/feedbacks/approved", "", nil), &approved)
	assert.Len(t, approved, 2)

	w = do(t, srv, http.MethodPost, "/feedbacks", user.Token, map[string]interface{}{"feedback": "ok", "rating": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadPhoto(t *testing.T) {
	srv := newTestServer(t)
	user := register(t, srv, "Asha", "asha@example.com")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("photo", "me.PNG")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/users/upload-photo", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+user.Token)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		ProfilePhoto string `json:"profilePhoto"`
	}
	decode(t, w, &resp)
	assert.Regexp(t, `^/uploads/[0-9A-Z]{26}\.png$`, resp.ProfilePhoto)

	stored, err := os.ReadFile(filepath.Join(srv.config.UploadDir, filepath.Base(resp.ProfilePhoto)))
	require.NoError(t, err)
	assert.Equal(t, "fake image bytes", string(stored))

	w = do(t, srv, http.MethodGet, "/users/profile", user.Token, nil)
	assert.Contains(t, w.Body.String(), resp.ProfilePhoto)

	w = do(t, srv, http.MethodGet, resp.ProfilePhoto, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTSecretPersisted(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "dev.sqlite")
	cfg := config.DevAPIConfig{DatabaseURL: dsn, TokenTTL: time.Hour, UploadDir: t.TempDir()}

	first, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	user := register(t, first, "Asha", "asha@example.com")
	require.NoError(t, first.Close())

	second, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	defer second.Close()

	// Tokens survive a restart and the catalog is not seeded twice
	w := do(t, second, http.MethodGet, "/users/profile", user.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var plans []Plan
	decode(t, do(t, second, http.MethodGet, "/plans", "", nil), &plans)
	assert.Len(t, plans, 6)
}

func TestLoadSeed(t *testing.T) {
	seed, err := LoadSeed("")
	require.NoError(t, err)
	assert.Len(t, seed.Plans, 6)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("plans:\n  - provider: Jio\n    planName: Free\n    price: 0\n"), 0o644))
	_, err = LoadSeed(bad)
	assert.ErrorContains(t, err, "positive price")

	_, err = LoadSeed(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestTokens(t *testing.T) {
	_, err := NewTokens("", time.Hour)
	assert.Error(t, err)

	tokens, err := NewTokens("secret", 0)
	require.NoError(t, err)
	token, err := tokens.Generate(&User{BaseModel: BaseModel{ID: "u1"}, Role: RoleUser})
	require.NoError(t, err)

	claims, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Nil(t, claims.ExpiresAt)

	other, _ := NewTokens("other", 0)
	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/health", "", nil)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, "trace-123", w.Header().Get("X-Request-ID"))
}

func TestLoginRateLimit(t *testing.T) {
	srv, err := New(config.DevAPIConfig{
		DatabaseURL:       ":memory:",
		JWTSecret:         "test-secret",
		UploadDir:         t.TempDir(),
		AuthRatePerSecond: 0.001,
		AuthBurst:         2,
	}, zerolog.Nop(), "test")
	require.NoError(t, err)
	defer srv.Close()

	creds := map[string]string{"email": "nobody@example.com", "password": "secret1"}
	for i := 0; i < 2; i++ {
		w := do(t, srv, http.MethodPost, "/users/login", "", creds)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	w := do(t, srv, http.MethodPost, "/users/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many attempts")

	// Other endpoints are not throttled
	w = do(t, srv, http.MethodGet, "/plans", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClientLimitersSweepIdle(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	l := newClientLimiters(1, 1)
	l.now = func() time.Time { return now }

	first := l.get("10.0.0.1")
	assert.Same(t, first, l.get("10.0.0.1"))

	now = now.Add(idleLimiterTTL + time.Second)
	l.get("10.0.0.2")
	assert.NotContains(t, l.limiters, "10.0.0.1")
	assert.Len(t, l.limiters, 1)
}

func TestWithPragmas(t *testing.T) {
	assert.Equal(t,
		"dev.sqlite?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)",
		withPragmas("dev.sqlite", 5000))
	assert.Equal(t,
		"file:dev.sqlite?cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(10)&_pragma=synchronous(NORMAL)",
		withPragmas("file:dev.sqlite?cache=shared", 10))
}

func TestFileDatabaseCascadesOnEveryConnection(t *testing.T) {
	srv, err := New(config.DevAPIConfig{
		DatabaseURL: filepath.Join(t.TempDir(), "dev.sqlite"),
		JWTSecret:   "test-secret",
		TokenTTL:    time.Hour,
		UploadDir:   t.TempDir(),
		AdminEmail:  adminEmail,
		AdminPass:   adminPass,
	}, zerolog.Nop(), "test")
	require.NoError(t, err)
	defer srv.Close()

	admin := login(t, srv, adminEmail, adminPass)
	var plans []Plan
	decode(t, do(t, srv, http.MethodGet, "/plans", "", nil), &plans)

	for i := 0; i < 3; i++ {
		user := register(t, srv, "User", fmt.Sprintf("user%d@example.com", i))
		w := do(t, srv, http.MethodPost, "/transactions", user.Token, map[string]interface{}{
			"mobileNumber": "9876543210", "provider": plans[0].Provider, "planId": plans[0].ID, "amount": plans[0].Price,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w = do(t, srv, http.MethodDelete, "/users/"+user.User.ID, admin.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	// Each pooled connection is opened separately and must carry the pragma
	sqlDB, err := srv.db.DB()
	require.NoError(t, err)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		conn, err := sqlDB.Conn(ctx)
		require.NoError(t, err)
		defer conn.Close()

		var fk int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
		assert.Equal(t, 1, fk)
	}

	var count int64
	require.NoError(t, srv.db.Model(&Transaction{}).Count(&count).Error)
	assert.Zero(t, count, "transactions of deleted users must cascade")
}

func TestSeedAdminPromotesExistingAccount(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "dev.sqlite")
	cfg := config.DevAPIConfig{DatabaseURL: dsn, JWTSecret: "test-secret", TokenTTL: time.Hour, UploadDir: t.TempDir()}

	first, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	user := register(t, first, "Asha", "asha@example.com")
	assert.Equal(t, RoleUser, user.User.Role)
	require.NoError(t, first.Close())

	cfg.AdminEmail = "Asha@Example.com"
	cfg.AdminPass = "ignored-for-existing"
	second, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	defer second.Close()

	// The original password still works and now carries the admin role
	promoted := login(t, second, "asha@example.com", "secret1")
	assert.Equal(t, RoleAdmin, promoted.User.Role)

	w := do(t, second, http.MethodGet, "/users", promoted.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var admins int64
	require.NoError(t, second.db.Model(&User{}).Where("role = ?", RoleAdmin).Count(&admins).Error)
	assert.Equal(t, int64(1), admins)
}
