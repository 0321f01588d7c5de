package auth

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RecordKey is the storage key holding the persisted session record
const RecordKey = "rechargex_auth"

// ErrCorrupt is returned when the stored record cannot be used
var ErrCorrupt = errors.New("stored session record is corrupt")

// Record is the only session data written to durable storage.
// The profile is never persisted.
type Record struct {
	UserID   string `json:"userId"`
	Token    string `json:"token"`
	UserRole string `json:"userRole"`
}

// Role parses the stored role
func (r Record) Role() (Role, error) {
	return ParseRole(r.UserRole)
}

// LoadRecord reads the session record. It returns ErrNotFound when nothing is
// stored and ErrCorrupt when the value does not parse or is incomplete.
func LoadRecord(s Storage) (*Record, error) {
	raw, err := s.Get(RecordKey)
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if rec.Token == "" || rec.UserID == "" {
		return nil, fmt.Errorf("%w: token and userId must both be present", ErrCorrupt)
	}
	if _, err := rec.Role(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &rec, nil
}

// LoadToken returns only the bearer token, tolerating records that lack the
// other fields. Used by the transport, which attaches whatever token it finds.
func LoadToken(s Storage) (string, error) {
	raw, err := s.Get(RecordKey)
	if err != nil {
		return "", err
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return rec.Token, nil
}

// SaveRecord writes the session record
func SaveRecord(s Storage, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}
	if err := s.Set(RecordKey, string(data)); err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}
	return nil
}

// ClearRecord removes the session record. Safe to call when nothing is stored.
func ClearRecord(s Storage) error {
	if err := s.Delete(RecordKey); err != nil {
		return fmt.Errorf("failed to clear session record: %w", err)
	}
	return nil
}
