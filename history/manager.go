package history

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ajitashwath/qr-code-generator/render"
	"github.com/ajitashwath/qr-code-generator/store"
)

// Manager owns the ordered, capped, de-duplicated record list and persists it
// under StorageKey after every change.
type Manager struct {
	mu      sync.RWMutex
	store   *store.Store
	records []Record
	now     func() time.Time
	log     *zap.Logger
}

// NewManager loads the list from s. Missing or corrupt data yields an empty
// list; stored lists that break the invariants are normalized.
func NewManager(s *store.Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{store: s, now: time.Now, log: log}
	m.records = normalize(store.Load(s, StorageKey, []Record{}))
	return m
}

// SetClock replaces the time source used for new records.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Add records a generation request at the front of the list. Empty text (after
// trimming) is silently ignored. An existing record with the same text is
// replaced, and the list is capped at MaxRecords. An invalid size or color
// returns render.ErrInvalidSize or render.ErrInvalidColor.
func (m *Manager) Add(text string, size int, lightColor, darkColor string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) > MaxTextLen {
		return ErrTextTooLong
	}
	if err := render.ValidateSize(size); err != nil {
		return err
	}
	if _, err := render.ParseColor(lightColor); err != nil {
		return fmt.Errorf("light color: %w", err)
	}
	if _, err := render.ParseColor(darkColor); err != nil {
		return fmt.Errorf("dark color: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec := Record{
		Text:       text,
		Timestamp:  FormatTimestamp(m.now()),
		Size:       size,
		LightColor: lightColor,
		DarkColor:  darkColor,
	}

	// Build new list: prepend rec, drop the old copy of text, cap.
	next := make([]Record, 0, MaxRecords)
	next = append(next, rec)
	for _, r := range m.records {
		if r.Text == text {
			continue
		}
		if len(next) == MaxRecords {
			break
		}
		next = append(next, r)
	}
	return m.commit(next)
}

// Get returns the record at index, or ErrNotFound.
func (m *Manager) Get(index int) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index < 0 || index >= len(m.records) {
		return Record{}, ErrNotFound
	}
	return m.records[index], nil
}

// Remove deletes the record at index. Out of range indexes are a no-op.
func (m *Manager) Remove(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.records) {
		return nil
	}
	next := make([]Record, 0, len(m.records)-1)
	next = append(next, m.records[:index]...)
	next = append(next, m.records[index+1:]...)
	return m.commit(next)
}

// Clear empties the list and persists the empty state.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commit([]Record{})
}

// Replace swaps the whole list for records, normalized to the list invariants.
func (m *Manager) Replace(records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commit(normalize(records))
}

// List returns a snapshot, most recent first.
func (m *Manager) List() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyRecords(m.records)
}

// Len reports the number of records.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Reload re-reads the list from the store, picking up writes made elsewhere.
func (m *Manager) Reload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = normalize(store.Load(m.store, StorageKey, []Record{}))
}

// commit persists next and only then makes it current, so a failed save
// leaves the previous list in place. Caller must hold m.mu.
func (m *Manager) commit(next []Record) error {
	if err := m.store.Save(StorageKey, next); err != nil {
		m.log.Error("persist history failed", zap.Error(err))
		return fmt.Errorf("history: %w", err)
	}
	m.records = next
	return nil
}

// normalize enforces the list invariants: trimmed non-empty text within
// MaxTextLen, first occurrence wins, at most MaxRecords. Invalid style fields
// are replaced with the fallback style.
func normalize(in []Record) []Record {
	out := make([]Record, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, r := range in {
		r.Text = strings.TrimSpace(r.Text)
		if r.Text == "" || seen[r.Text] || utf8.RuneCountInString(r.Text) > MaxTextLen {
			continue
		}
		seen[r.Text] = true
		if render.ValidateSize(r.Size) != nil {
			r.Size = render.DefaultSize
		}
		if _, err := render.ParseColor(r.LightColor); err != nil {
			r.LightColor = FallbackLightColor
		}
		if _, err := render.ParseColor(r.DarkColor); err != nil {
			r.DarkColor = FallbackDarkColor
		}
		out = append(out, r)
		if len(out) == MaxRecords {
			break
		}
	}
	return out
}

func copyRecords(rs []Record) []Record {
	out := make([]Record, len(rs))
	copy(out, rs)
	return out
}
