// Package theme stores the light/dark preference and the output styles
// derived from it. The preference is independent of the session lifecycle.
package theme

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/rechargex-dev/rechargex/internal/cli/auth"
)

// StorageKey is where the preference is persisted
const StorageKey = "rechargex_theme"

// Theme is a UI color preference
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Parse validates a theme name
func Parse(s string) (Theme, error) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), nil
	default:
		return "", fmt.Errorf("invalid theme %q, must be light or dark", s)
	}
}

// Manager reads and writes the theme preference
type Manager struct {
	storage auth.Storage
	detect  func() bool
	current Theme
}

// NewManager loads the stored preference, falling back to the terminal's
// background when nothing valid is stored.
func NewManager(storage auth.Storage) *Manager {
	return newManager(storage, termenv.HasDarkBackground)
}

func newManager(storage auth.Storage, detect func() bool) *Manager {
	m := &Manager{storage: storage, detect: detect}
	m.current = m.initial()
	apply(m.current)
	return m
}

func (m *Manager) initial() Theme {
	raw, err := m.storage.Get(StorageKey)
	if err == nil {
		if t, err := Parse(raw); err == nil {
			return t
		}
	}
	if m.detect() {
		return Dark
	}
	return Light
}

// Current returns the active theme
func (m *Manager) Current() Theme {
	return m.current
}

// IsDark reports whether the dark theme is active
func (m *Manager) IsDark() bool {
	return m.current == Dark
}

// Set activates and persists a theme
func (m *Manager) Set(t Theme) error {
	if _, err := Parse(string(t)); err != nil {
		return err
	}
	if err := m.storage.Set(StorageKey, string(t)); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	m.current = t
	apply(t)
	return nil
}

// Toggle switches between light and dark and persists the result
func (m *Manager) Toggle() (Theme, error) {
	next := Dark
	if m.current == Dark {
		next = Light
	}
	if err := m.Set(next); err != nil {
		return m.current, err
	}
	return next, nil
}

// Reset forgets the stored preference and returns to the detected default
func (m *Manager) Reset() error {
	if err := m.storage.Delete(StorageKey); err != nil && !errors.Is(err, auth.ErrNotFound) {
		return fmt.Errorf("failed to reset theme: %w", err)
	}
	m.current = m.initial()
	apply(m.current)
	return nil
}

func apply(t Theme) {
	lipgloss.SetHasDarkBackground(t == Dark)
}
