package history_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ajitashwath/qr-code-generator/history"
	"github.com/ajitashwath/qr-code-generator/render"
	"github.com/ajitashwath/qr-code-generator/store"
)

func newTestManager(t *testing.T) (*history.Manager, *store.Store) {
	t.Helper()
	s := store.New(store.NewMemoryBackend(), nil)
	return history.NewManager(s, nil), s
}

func fixedClock(ts string) func() time.Time {
	t, _ := time.Parse(time.RFC3339, ts)
	return func() time.Time { return t }
}

func TestNewManagerEmpty(t *testing.T) {
	m, _ := newTestManager(t)
	if got := m.List(); len(got) != 0 {
		t.Fatalf("expected empty history, got %v", got)
	}
}

func TestAddPrependsWithMetadata(t *testing.T) {
	m, _ := newTestManager(t)
	m.SetClock(fixedClock("2024-05-01T10:00:00Z"))

	if err := m.Add("  https://example.com  ", 300, "#ffffff", "#000000"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	want := []history.Record{{
		Text:       "https://example.com",
		Timestamp:  "2024-05-01T10:00:00.000Z",
		Size:       300,
		LightColor: "#ffffff",
		DarkColor:  "#000000",
	}}
	if diff := cmp.Diff(want, m.List()); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestAddEmptyTextIsNoop(t *testing.T) {
	m, s := newTestManager(t)
	for _, text := range []string{"", "   ", "\n\t"} {
		if err := m.Add(text, 200, "#fff", "#000"); err != nil {
			t.Fatalf("Add(%q): expected nil error, got %v", text, err)
		}
	}
	if m.Len() != 0 {
		t.Fatalf("expected no records, got %d", m.Len())
	}
	if v := s.LoadText(history.StorageKey, "absent"); v != "absent" {
		t.Fatalf("empty add should not persist, store has %q", v)
	}
}

func TestAddDuplicateMovesToFront(t *testing.T) {
	m, _ := newTestManager(t)
	m.SetClock(fixedClock("2024-05-01T10:00:00Z"))
	m.Add("a", 200, "#fff", "#000")
	m.Add("b", 200, "#fff", "#000")
	m.SetClock(fixedClock("2024-05-02T10:00:00Z"))
	m.Add("a", 400, "#eee", "#111") // should move a to front with new metadata

	got := m.List()
	if len(got) != 2 {
		t.Fatalf("expected 2 records (no dup), got %v", got)
	}
	if got[0].Text != "a" || got[1].Text != "b" {
		t.Fatalf("unexpected order: %v", got)
	}
	if got[0].Size != 400 || got[0].LightColor != "#eee" || got[0].DarkColor != "#111" {
		t.Fatalf("expected latest metadata, got %+v", got[0])
	}
	if got[0].Timestamp != "2024-05-02T10:00:00.000Z" {
		t.Fatalf("expected latest timestamp, got %q", got[0].Timestamp)
	}
}

func TestAddCap20(t *testing.T) {
	m, _ := newTestManager(t)
	for i := 0; i < history.MaxRecords+1; i++ {
		if err := m.Add(fmt.Sprintf("text-%d", i), 200, "#fff", "#000"); err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
	}

	got := m.List()
	if len(got) != history.MaxRecords {
		t.Fatalf("expected cap of %d, got %d", history.MaxRecords, len(got))
	}
	if got[0].Text != "text-20" {
		t.Fatalf("expected newest first, got %q", got[0].Text)
	}
	for _, r := range got {
		if r.Text == "text-0" {
			t.Fatal("oldest record should have been evicted")
		}
	}
}

func TestAddTextTooLong(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Add(strings.Repeat("x", history.MaxTextLen+1), 200, "#fff", "#000")
	if !errors.Is(err, history.ErrTextTooLong) {
		t.Fatalf("expected ErrTextTooLong, got %v", err)
	}
	if err := m.Add(strings.Repeat("é", history.MaxTextLen), 200, "#fff", "#000"); err != nil {
		t.Fatalf("max length text should be accepted: %v", err)
	}
}

func TestGet(t *testing.T) {
	m, _ := newTestManager(t)
	m.Add("first", 200, "#fff", "#000")
	m.Add("second", 200, "#fff", "#000")

	r, err := m.Get(1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	if r.Text != "first" {
		t.Fatalf("expected 'first', got %q", r.Text)
	}
	for _, idx := range []int{-1, 2, 100} {
		if _, err := m.Get(idx); !errors.Is(err, history.ErrNotFound) {
			t.Fatalf("Get(%d): expected ErrNotFound, got %v", idx, err)
		}
	}
}

func TestRemove(t *testing.T) {
	m, _ := newTestManager(t)
	m.Add("a", 200, "#fff", "#000")
	m.Add("b", 200, "#fff", "#000")
	m.Add("c", 200, "#fff", "#000")

	if err := m.Remove(1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got := m.List()
	if len(got) != 2 || got[0].Text != "c" || got[1].Text != "a" {
		t.Fatalf("unexpected list after remove: %v", got)
	}
}

func TestRemoveOnEmptyListIsNoop(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.Remove(0); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := m.Remove(-3); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("expected empty list, got %d", m.Len())
	}
}

func TestClear(t *testing.T) {
	m, s := newTestManager(t)
	m.Add("a", 200, "#fff", "#000")
	if err := m.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("expected empty list after Clear")
	}
	if v := s.LoadText(history.StorageKey, ""); v != "[]" {
		t.Fatalf("expected persisted empty list, got %q", v)
	}
}

func TestListIsSnapshot(t *testing.T) {
	m, _ := newTestManager(t)
	m.Add("a", 200, "#fff", "#000")
	snap := m.List()
	snap[0].Text = "mutated"
	if r, _ := m.Get(0); r.Text != "a" {
		t.Fatal("List returned a view into internal state")
	}
}

func TestPersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := store.Open(store.DriverFile, path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	m := history.NewManager(s, nil)
	m.Add("one", 200, "#fff", "#000")
	m.Add("two", 250, "#fafafa", "#101010")
	s.Close()

	// Reload from disk.
	s2, err := store.Open(store.DriverFile, path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	m2 := history.NewManager(s2, nil)
	if diff := cmp.Diff(m.List(), m2.List()); diff != "" {
		t.Fatalf("reloaded history mismatch (-want +got):\n%s", diff)
	}
}

func TestCorruptStoredHistoryStartsEmpty(t *testing.T) {
	b := store.NewMemoryBackend()
	b.Write(history.StorageKey, "not-json")
	m := history.NewManager(store.New(b, nil), nil)
	if m.Len() != 0 {
		t.Fatalf("expected empty history from corrupt data, got %d", m.Len())
	}
}

func TestStoredHistoryIsNormalized(t *testing.T) {
	s := store.New(store.NewMemoryBackend(), nil)
	stored := []history.Record{{Text: "dup"}, {Text: ""}, {Text: "dup"}}
	for i := 0; i < 30; i++ {
		stored = append(stored, history.Record{Text: fmt.Sprintf("r%d", i)})
	}
	s.Save(history.StorageKey, stored)

	m := history.NewManager(s, nil)
	got := m.List()
	if len(got) != history.MaxRecords {
		t.Fatalf("expected %d records, got %d", history.MaxRecords, len(got))
	}
	if got[0].Text != "dup" || got[1].Text != "r0" {
		t.Fatalf("unexpected head of normalized list: %v", got[:2])
	}
}

func TestReplace(t *testing.T) {
	m, _ := newTestManager(t)
	m.Add("old", 200, "#fff", "#000")

	err := m.Replace([]history.Record{{Text: "x"}, {Text: "y"}, {Text: "x"}})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got := m.List()
	if len(got) != 2 || got[0].Text != "x" || got[1].Text != "y" {
		t.Fatalf("unexpected list after Replace: %v", got)
	}
}

func TestAddRejectsInvalidStyle(t *testing.T) {
	m, _ := newTestManager(t)
	cases := []struct {
		size        int
		light, dark string
		want        error
	}{
		{-7, "#fff", "#000", render.ErrInvalidSize},
		{render.MaxSize + 1, "#fff", "#000", render.ErrInvalidSize},
		{200, "banana", "#000", render.ErrInvalidColor},
		{200, "#fff", "<script>", render.ErrInvalidColor},
	}
	for _, c := range cases {
		if err := m.Add("x", c.size, c.light, c.dark); !errors.Is(err, c.want) {
			t.Fatalf("Add(x, %d, %q, %q): expected %v, got %v", c.size, c.light, c.dark, c.want, err)
		}
	}
	if m.Len() != 0 {
		t.Fatalf("expected no records, got %v", m.List())
	}
}

func TestReplaceRepairsInvalidStyle(t *testing.T) {
	m, s := newTestManager(t)
	err := m.Replace([]history.Record{
		{Text: "bad", Size: -7, LightColor: "banana", DarkColor: "<script>"},
		{Text: "good", Size: 300, LightColor: "#eee", DarkColor: "#111"},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	want := []history.Record{
		{Text: "bad", Size: render.DefaultSize, LightColor: history.FallbackLightColor, DarkColor: history.FallbackDarkColor},
		{Text: "good", Size: 300, LightColor: "#eee", DarkColor: "#111"},
	}
	if diff := cmp.Diff(want, m.List()); diff != "" {
		t.Fatalf("replaced history mismatch (-want +got):\n%s", diff)
	}

	// Lists loaded from storage are repaired the same way.
	s.Save(history.StorageKey, []history.Record{{Text: "stored", Size: 1, LightColor: "red"}})
	m.Reload()
	got, _ := m.Get(0)
	if got.Size != render.DefaultSize || got.LightColor != history.FallbackLightColor || got.DarkColor != history.FallbackDarkColor {
		t.Fatalf("stored record not repaired: %+v", got)
	}
}

func TestReloadPicksUpExternalWrite(t *testing.T) {
	m, s := newTestManager(t)
	m.Add("mine", 200, "#fff", "#000")

	s.Save(history.StorageKey, []history.Record{{Text: "theirs"}})
	m.Reload()
	if r, _ := m.Get(0); r.Text != "theirs" || m.Len() != 1 {
		t.Fatalf("expected reloaded list, got %v", m.List())
	}
}

type failingBackend struct {
	*store.MemoryBackend
	fail bool
}

func (f *failingBackend) Write(key, value string) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemoryBackend.Write(key, value)
}

func TestFailedSaveKeepsPreviousState(t *testing.T) {
	b := &failingBackend{MemoryBackend: store.NewMemoryBackend()}
	m := history.NewManager(store.New(b, nil), nil)
	m.Add("kept", 200, "#fff", "#000")

	b.fail = true
	if err := m.Add("lost", 200, "#fff", "#000"); err == nil {
		t.Fatal("expected error from failing backend")
	}
	if err := m.Clear(); err == nil {
		t.Fatal("expected error from failing backend")
	}
	got := m.List()
	if len(got) != 1 || got[0].Text != "kept" {
		t.Fatalf("in-memory state changed despite failed save: %v", got)
	}
}

func TestConcurrentAdd(t *testing.T) {
	m, _ := newTestManager(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m.Add(fmt.Sprintf("t%d", n%25), 200, "#fff", "#000")
		}(i)
	}
	wg.Wait()

	if m.Len() != history.MaxRecords {
		t.Fatalf("expected %d records, got %d", history.MaxRecords, m.Len())
	}
}

func TestRecordTime(t *testing.T) {
	r := history.Record{Timestamp: history.FormatTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 6e6, time.FixedZone("X", 3600)))}
	if r.Timestamp != "2024-01-02T02:04:05.006Z" {
		t.Fatalf("unexpected timestamp %q", r.Timestamp)
	}
	if r.Time().IsZero() {
		t.Fatal("expected parsed time")
	}
	if !(history.Record{Timestamp: "yesterday"}).Time().IsZero() {
		t.Fatal("expected zero time for malformed timestamp")
	}
}
