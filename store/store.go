package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Backend is a flat namespace of text values keyed by string.
type Backend interface {
	// Read returns the value at key and whether it was present.
	Read(key string) (string, bool, error)
	Write(key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
	Close() error
}

// SerializationError is returned by Save when a value cannot be encoded.
// Nothing is written when it occurs.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("store: serialize %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

var ErrClosed = errors.New("store closed")

// Store serializes values to JSON text on top of a Backend and publishes a
// Change for every successful write or delete.
type Store struct {
	backend Backend
	hub     *Hub
	log     *zap.Logger
}

// New wraps backend. A nil logger discards log output.
func New(backend Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{backend: backend, hub: NewHub(), log: log}
}

// Hub returns the change feed for this store.
func (s *Store) Hub() *Hub { return s.hub }

// Save encodes value as JSON and writes it at key.
func (s *Store) Save(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	return s.SaveText(key, string(data))
}

// SaveText writes value at key without encoding it.
func (s *Store) SaveText(key, value string) error {
	if err := s.backend.Write(key, value); err != nil {
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	s.hub.Publish(Change{Key: key})
	return nil
}

// LoadText returns the raw value at key, or def if the key is absent or
// cannot be read.
func (s *Store) LoadText(key, def string) string {
	v, ok, err := s.backend.Read(key)
	if err != nil {
		s.log.Warn("store read failed, using default", zap.String("key", key), zap.Error(err))
		return def
	}
	if !ok {
		return def
	}
	return v
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	if err := s.backend.Remove(key); err != nil {
		return fmt.Errorf("store: remove %q: %w", key, err)
	}
	s.hub.Publish(Change{Key: key, Removed: true})
	return nil
}

// Close closes the backend and ends every subscription.
func (s *Store) Close() error {
	s.hub.Close()
	return s.backend.Close()
}

// Load decodes the JSON value at key into a T. Absent keys and corrupt data
// both yield def; corruption is logged but never returned.
func Load[T any](s *Store, key string, def T) T {
	raw, ok, err := s.backend.Read(key)
	if err != nil {
		s.log.Warn("store read failed, using default", zap.String("key", key), zap.Error(err))
		return def
	}
	if !ok {
		return def
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.log.Warn("corrupt value, using default", zap.String("key", key), zap.Error(err))
		return def
	}
	return v
}
