// Package settings owns the user's theme and default code style, and moves
// them (with the generation history) in and out of portable JSON documents.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ajitashwath/qr-code-generator/history"
	"github.com/ajitashwath/qr-code-generator/render"
	"github.com/ajitashwath/qr-code-generator/store"
)

// Manager holds the current theme and defaults, persisting each change.
type Manager struct {
	mu       sync.RWMutex
	store    *store.Store
	history  *history.Manager
	fallback Defaults
	theme    Theme
	defaults Defaults
	now      func() time.Time
	log      *zap.Logger
}

// NewManager reads the theme and defaults from s. Anything missing or invalid
// falls back to ThemeLight and fallback respectively.
func NewManager(s *store.Store, h *history.Manager, fallback Defaults, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{store: s, history: h, fallback: fallback, now: time.Now, log: log}
	m.load()
	return m
}

func (m *Manager) load() {
	theme := Theme(m.store.LoadText(ThemeKey, string(ThemeLight)))
	if !theme.Valid() {
		m.log.Warn("unknown stored theme, using light", zap.String("theme", string(theme)))
		theme = ThemeLight
	}
	m.theme = theme
	m.defaults = m.sanitize(store.Load(m.store, DefaultsKey, m.fallback))
}

// sanitize replaces each invalid field of d with the fallback value.
func (m *Manager) sanitize(d Defaults) Defaults {
	if render.ValidateSize(d.Size) != nil {
		d.Size = m.fallback.Size
	}
	if _, err := render.ParseColor(d.LightColor); err != nil {
		d.LightColor = m.fallback.LightColor
	}
	if _, err := render.ParseColor(d.DarkColor); err != nil {
		d.DarkColor = m.fallback.DarkColor
	}
	return d
}

// Reload re-reads theme and defaults from the store.
func (m *Manager) Reload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.load()
}

// SetClock replaces the time source used for export timestamps.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// History returns the history manager bundled into exports.
func (m *Manager) History() *history.Manager { return m.history }

func (m *Manager) Theme() Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme
}

// SetTheme persists t. Invalid themes return ErrInvalidTheme.
func (m *Manager) SetTheme(t Theme) error {
	if !t.Valid() {
		return ErrInvalidTheme
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setThemeLocked(t)
}

// ToggleTheme flips between light and dark and returns the new theme.
func (m *Manager) ToggleTheme() (Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.theme.Toggled()
	if err := m.setThemeLocked(next); err != nil {
		return m.theme, err
	}
	return next, nil
}

func (m *Manager) setThemeLocked(t Theme) error {
	if err := m.store.SaveText(ThemeKey, string(t)); err != nil {
		return fmt.Errorf("settings: save theme: %w", err)
	}
	m.theme = t
	return nil
}

func (m *Manager) Defaults() Defaults {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaults
}

// SetDefaults validates and persists d.
func (m *Manager) SetDefaults(d Defaults) error {
	if err := ValidateDefaults(d); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setDefaultsLocked(d)
}

func (m *Manager) setDefaultsLocked(d Defaults) error {
	if err := m.store.Save(DefaultsKey, d); err != nil {
		return fmt.Errorf("settings: save defaults: %w", err)
	}
	m.defaults = d
	return nil
}

// ValidateDefaults checks the size range and both colors.
func ValidateDefaults(d Defaults) error {
	if err := render.ValidateSize(d.Size); err != nil {
		return err
	}
	if _, err := render.ParseColor(d.LightColor); err != nil {
		return fmt.Errorf("light color: %w", err)
	}
	if _, err := render.ParseColor(d.DarkColor); err != nil {
		return fmt.Errorf("dark color: %w", err)
	}
	return nil
}

// Export bundles the theme, defaults and full history into one document.
func (m *Manager) Export() ([]byte, error) {
	m.mu.RLock()
	doc := Document{
		Version:           DocumentVersion,
		ExportedAt:        history.FormatTimestamp(m.now()),
		Theme:             m.theme,
		DefaultSize:       m.defaults.Size,
		DefaultLightColor: m.defaults.LightColor,
		DefaultDarkColor:  m.defaults.DarkColor,
		History:           m.history.List(),
	}
	m.mu.RUnlock()

	return json.MarshalIndent(doc, "", "  ")
}

// ExportFilename is the download name for a document exported at t.
func ExportFilename(t time.Time) string {
	return "qr-settings-" + t.UTC().Format("2006-01-02T15-04-05") + ".json"
}

// Import applies a document produced by Export. A document that is not a JSON
// object returns a *FormatError and changes nothing. Otherwise each known
// field is applied on its own; absent or malformed fields are skipped. A
// present history replaces the current one.
//
// Import is not atomic: if persisting a field fails, fields applied before it
// stay applied and the error is returned with the partial result.
func (m *Manager) Import(data []byte) (ImportResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &fields); err != nil {
		return ImportResult{}, &FormatError{Err: err}
	}
	if fields == nil {
		return ImportResult{}, &FormatError{Err: errors.New("document is null")}
	}

	res := ImportResult{Applied: []string{}, Skipped: []string{}}
	mark := func(name string, ok bool) {
		if ok {
			res.Applied = append(res.Applied, name)
		} else {
			res.Skipped = append(res.Skipped, name)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if raw, ok := fields["theme"]; ok {
		var t Theme
		valid := json.Unmarshal(raw, &t) == nil && t.Valid()
		if valid {
			if err := m.setThemeLocked(t); err != nil {
				return res, err
			}
		}
		mark("theme", valid)
	}

	next := m.defaults
	touched := false
	if raw, ok := fields["defaultSize"]; ok {
		var size int
		valid := json.Unmarshal(raw, &size) == nil && render.ValidateSize(size) == nil
		if valid {
			next.Size = size
			touched = true
		}
		mark("defaultSize", valid)
	}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"defaultLightColor", &next.LightColor},
		{"defaultDarkColor", &next.DarkColor},
	} {
		raw, ok := fields[f.name]
		if !ok {
			continue
		}
		var c string
		valid := json.Unmarshal(raw, &c) == nil
		if valid {
			_, err := render.ParseColor(c)
			valid = err == nil
		}
		if valid {
			*f.dst = c
			touched = true
		}
		mark(f.name, valid)
	}
	if touched {
		if err := m.setDefaultsLocked(next); err != nil {
			return res, err
		}
	}

	if raw, ok := fields["history"]; ok {
		var records []history.Record
		valid := json.Unmarshal(raw, &records) == nil && records != nil
		if valid {
			if err := m.history.Replace(records); err != nil {
				return res, err
			}
		}
		mark("history", valid)
	}

	m.log.Info("settings imported",
		zap.Strings("applied", res.Applied), zap.Strings("skipped", res.Skipped))
	return res, nil
}
