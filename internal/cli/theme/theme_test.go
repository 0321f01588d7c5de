package theme

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rechargex-dev/rechargex/internal/cli/auth"
)

func fixed(dark bool) func() bool {
	return func() bool { return dark }
}

func TestManager_Default(t *testing.T) {
	assert.Equal(t, Light, newManager(auth.NewMemoryStorage(), fixed(false)).Current())
	assert.Equal(t, Dark, newManager(auth.NewMemoryStorage(), fixed(true)).Current())
}

func TestManager_StoredPreferenceWins(t *testing.T) {
	s := auth.NewMemoryStorage()
	require.NoError(t, s.Set(StorageKey, "dark"))

	m := newManager(s, fixed(false))
	assert.Equal(t, Dark, m.Current())
	assert.True(t, m.IsDark())
}

func TestManager_InvalidStoredValueIgnored(t *testing.T) {
	s := auth.NewMemoryStorage()
	require.NoError(t, s.Set(StorageKey, "sepia"))

	assert.Equal(t, Light, newManager(s, fixed(false)).Current())
}

func TestManager_SetToggleReset(t *testing.T) {
	s := auth.NewMemoryStorage()
	m := newManager(s, fixed(false))

	require.NoError(t, m.Set(Dark))
	raw, err := s.Get(StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "dark", raw)

	next, err := m.Toggle()
	require.NoError(t, err)
	assert.Equal(t, Light, next)
	raw, _ = s.Get(StorageKey)
	assert.Equal(t, "light", raw)

	require.Error(t, m.Set(Theme("sepia")))
	assert.Equal(t, Light, m.Current())

	require.NoError(t, m.Set(Dark))
	require.NoError(t, m.Reset())
	assert.Equal(t, Light, m.Current())
	_, err = s.Get(StorageKey)
	assert.True(t, errors.Is(err, auth.ErrNotFound))

	// Reset with nothing stored is fine
	require.NoError(t, m.Reset())
}

func TestParse(t *testing.T) {
	th, err := Parse("light")
	require.NoError(t, err)
	assert.Equal(t, Light, th)

	_, err = Parse("Dark")
	assert.Error(t, err)
}
