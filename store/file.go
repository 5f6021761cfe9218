package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileBackend holds the whole namespace in one JSON object on disk. Every
// write rewrites the file atomically.
type FileBackend struct {
	mu       sync.RWMutex
	filePath string
	values   map[string]string
	closed   bool
	log      *zap.Logger
}

// OpenFile loads the namespace from filePath, or starts empty if the file does
// not exist. A file that is not a JSON object of strings is renamed to
// filePath+".corrupt" and the namespace starts empty. Returns an error only on
// unexpected I/O failures.
func OpenFile(filePath string, log *zap.Logger) (*FileBackend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f := &FileBackend{filePath: filePath, log: log}

	values, err := f.readFile()
	if err != nil {
		if !errors.Is(err, errCorruptFile) {
			return nil, err
		}
		aside := filePath + ".corrupt"
		if err := os.Rename(filePath, aside); err != nil {
			return nil, err
		}
		log.Warn("store file is corrupt, starting empty",
			zap.String("path", filePath), zap.String("moved_to", aside))
		values = map[string]string{}
	}
	f.values = values
	return f, nil
}

var errCorruptFile = errors.New("corrupt store file")

func (f *FileBackend) readFile() (map[string]string, error) {
	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errCorruptFile
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}

// Path returns the file backing the namespace.
func (f *FileBackend) Path() string { return f.filePath }

func (f *FileBackend) Read(key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return "", false, ErrClosed
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *FileBackend) Write(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	next := copyValues(f.values)
	next[key] = value
	if err := f.writeAtomic(next); err != nil {
		return err
	}
	f.values = next
	return nil
}

func (f *FileBackend) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if _, ok := f.values[key]; !ok {
		return nil
	}
	next := copyValues(f.values)
	delete(next, key)
	if err := f.writeAtomic(next); err != nil {
		return err
	}
	f.values = next
	return nil
}

func (f *FileBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// reload re-reads the file and returns the changes relative to memory.
// A corrupt file leaves memory untouched. The read happens under f.mu so a
// write committed meanwhile is never replaced by an older file snapshot.
func (f *FileBackend) reload() ([]Change, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	values, err := f.readFile()
	if err != nil {
		return nil, err
	}
	var changes []Change
	for k, v := range values {
		if old, ok := f.values[k]; !ok || old != v {
			changes = append(changes, Change{Key: k})
		}
	}
	for k := range f.values {
		if _, ok := values[k]; !ok {
			changes = append(changes, Change{Key: k, Removed: true})
		}
	}
	f.values = values
	return changes, nil
}

// writeAtomic writes to a temp file then renames it over filePath.
// Caller must hold f.mu.
func (f *FileBackend) writeAtomic(values map[string]string) error {
	dir := filepath.Dir(f.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp := f.filePath + ".tmp"
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, f.filePath)
}

func copyValues(m map[string]string) map[string]string {
	out := make(map[string]string, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
