package commands

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rechargex-dev/rechargex/internal/cli/app"
	"github.com/rechargex-dev/rechargex/internal/cli/auth"
	"github.com/rechargex-dev/rechargex/internal/config"
)

const profileJSON = `{"_id":"u1","name":"Asha","email":"asha@example.com","phone":"9876543210","role":"USER"}`

// newLoggedInEnv opens an Env whose storage already holds a session for u1
func newLoggedInEnv(t *testing.T, handler http.HandlerFunc) (*Env, *auth.MemoryStorage, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	storage := auth.NewMemoryStorage()
	require.NoError(t, auth.SaveRecord(storage, auth.Record{UserID: "u1", Token: "tok", UserRole: "user"}))

	var out, errOut bytes.Buffer
	env := NewEnv()
	env.Config = &config.Config{
		API:     config.APIConfig{BaseURL: server.URL, Timeout: 5 * time.Second},
		Storage: config.StorageConfig{Backend: config.StorageMemory},
		Logging: config.LoggingConfig{Level: "disabled", Format: "console"},
	}
	env.Options = []app.Option{
		app.WithStorage(storage),
		app.WithIO(strings.NewReader(""), &out, &errOut),
		app.WithInteractive(false),
	}
	require.NoError(t, env.Open())
	t.Cleanup(env.Close)

	return env, storage, &out, &errOut
}

func TestShow_PrintsLoadingWhileSessionRehydrates(t *testing.T) {
	env, _, out, errOut := newLoggedInEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/profile", r.URL.Path)
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(profileJSON))
	})

	cmd := NewProfileCmd(env)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, errOut.String(), "Loading session...")
	assert.Contains(t, out.String(), "Asha")
}

func TestProfile_RejectedCredentialReportsExpiredSession(t *testing.T) {
	var calls atomic.Int32
	env, storage, out, _ := newLoggedInEnv(t, func(w http.ResponseWriter, r *http.Request) {
		// The first fetch rehydrates the session, the refresh is rejected
		if calls.Add(1) == 1 {
			w.Write([]byte(profileJSON))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid or expired token"}`))
	})

	cmd := NewProfileCmd(env)
	cmd.SetArgs([]string{})
	err := cmd.Execute()

	require.ErrorIs(t, err, errSessionExpired)
	assert.Empty(t, out.String())
	assert.False(t, env.App.Session.Snapshot().LoggedIn())
	_, err = storage.Get(auth.RecordKey)
	assert.ErrorIs(t, err, auth.ErrNotFound)
}
