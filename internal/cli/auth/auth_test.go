package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"user", RoleUser, false},
		{"USER", RoleUser, false},
		{" Admin ", RoleAdmin, false},
		{"ADMIN", RoleAdmin, false},
		{"", RoleNone, true},
		{"superuser", RoleNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleHome(t *testing.T) {
	assert.Equal(t, "/dashboard", RoleUser.Home())
	assert.Equal(t, "/admin/dashboard", RoleAdmin.Home())
	assert.Equal(t, "/login", RoleNone.Home())
}

func TestRecordRoundTrip(t *testing.T) {
	s := NewMemoryStorage()

	_, err := LoadRecord(s)
	assert.ErrorIs(t, err, ErrNotFound)

	rec := Record{UserID: "u1", Token: "tok", UserRole: "admin"}
	require.NoError(t, SaveRecord(s, rec))

	raw, err := s.Get(RecordKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"userId":"u1","token":"tok","userRole":"admin"}`, raw)

	got, err := LoadRecord(s)
	require.NoError(t, err)
	assert.Equal(t, rec, *got)

	require.NoError(t, ClearRecord(s))
	require.NoError(t, ClearRecord(s), "clearing twice is not an error")
	_, err = LoadRecord(s)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadRecord_Corrupt(t *testing.T) {
	tests := map[string]string{
		"not json":        "{not json",
		"token only":      `{"token":"tok","userRole":"user"}`,
		"user id only":    `{"userId":"u1","userRole":"user"}`,
		"unknown role":    `{"userId":"u1","token":"tok","userRole":"root"}`,
		"missing role":    `{"userId":"u1","token":"tok"}`,
		"wrong json type": `["u1","tok"]`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			s := NewMemoryStorage()
			require.NoError(t, s.Set(RecordKey, raw))

			_, err := LoadRecord(s)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestLoadToken_TolerantOfIncompleteRecord(t *testing.T) {
	s := NewMemoryStorage()
	require.NoError(t, s.Set(RecordKey, `{"token":"tok"}`))

	token, err := LoadToken(s)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	require.NoError(t, s.Set(RecordKey, "garbage"))
	_, err = LoadToken(s)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFileStorage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rechargex")
	s := NewFileStorage(dir)

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("a", "1"))
	require.NoError(t, s.Set("b", "2"))

	v, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A second instance sees the same data
	other := NewFileStorage(dir)
	v, err = other.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	require.NoError(t, s.Delete("a"))
	require.NoError(t, s.Delete("a"))
	_, err = s.Get("a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStorage_CorruptFileIsReplacedOnWrite(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStorage(dir)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{{{"), 0600))

	_, err := s.Get("a")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = LoadRecord(s)
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, s.Set("a", "1"))
	v, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestKeyringStorage(t *testing.T) {
	keyring.MockInit()
	s := NewKeyringStorage()

	_, err := s.Get(RecordKey)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, SaveRecord(s, Record{UserID: "u1", Token: "tok", UserRole: "user"}))
	rec, err := LoadRecord(s)
	require.NoError(t, err)
	assert.Equal(t, "tok", rec.Token)

	require.NoError(t, ClearRecord(s))
	require.NoError(t, ClearRecord(s))
	_, err = LoadRecord(s)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	got, ok := TokenExpiry(token)
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = TokenExpiry("opaque-token")
	assert.False(t, ok)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "u1"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, ok = TokenExpiry(noExp)
	assert.False(t, ok)
}

func TestFileStorage_ClearRecordRewritesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStorage(dir)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0600))

	require.NoError(t, ClearRecord(s))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
	_, err = LoadRecord(s)
	assert.ErrorIs(t, err, ErrNotFound)
}
