package memory

// Package memory provides an in-memory key-value store used for development and tests.
// It satisfies the same contract as the database-backed stores.
import (
    "context"
    "sort"
    "sync"
)

// Store is an in-memory implementation of schema.KV.
// It is guarded by an RWMutex for concurrent reads/writes.
type Store struct {
    mu     sync.RWMutex
    values map[string][]byte
}

// New constructs an empty in-memory store.
func New() *Store {
    return &Store{values: make(map[string][]byte)}
}

// Seed helpers for local dev/tests.
func (s *Store) Seed(key string, value []byte) { s.mu.Lock(); s.values[key] = clone(value); s.mu.Unlock() }
func (s *Store) SeedString(key, value string)  { s.Seed(key, []byte(value)) }

// Load implements schema.KV.
func (s *Store) Load(_ context.Context, key string) ([]byte, bool, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    v, ok := s.values[key]
    if !ok { return nil, false, nil }
    return clone(v), true, nil
}

// Save implements schema.KV.
func (s *Store) Save(_ context.Context, key string, value []byte) error {
    s.mu.Lock()
    s.values[key] = clone(value)
    s.mu.Unlock()
    return nil
}

// Delete implements schema.KV. Deleting an absent key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
    s.mu.Lock()
    delete(s.values, key)
    s.mu.Unlock()
    return nil
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]string, 0, len(s.values))
    for k := range s.values { out = append(out, k) }
    sort.Strings(out)
    return out
}

// Ready satisfies readiness checks; the memory store is always ready.
func (s *Store) Ready(context.Context) error { return nil }

func clone(b []byte) []byte {
    if b == nil { return nil }
    return append([]byte(nil), b...)
}
