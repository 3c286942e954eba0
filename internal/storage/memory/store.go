// Package memory provides an in-memory implementation of storage.Store.
// It reproduces the storage adapter's key assignment, ETag rotation and
// conflict semantics so repositories can be exercised without a network.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"telemetry-go/internal/domain"
	"telemetry-go/internal/storage"
)

type entry struct {
	data string
	etag string
}

// Store is an in-memory storage adapter double. Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]entry
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]entry),
	}
}

// Get fetches a single value by key.
func (s *Store) Get(ctx context.Context, collection, key string) (*storage.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.collections[collection][key]
	if !ok {
		return nil, domain.NewNotFound("key %q not found in collection %q", key, collection)
	}
	return &storage.Value{Key: key, ETag: e.etag, Data: e.data}, nil
}

// GetAll fetches every value in a collection.
func (s *Store) GetAll(ctx context.Context, collection string) (*storage.ValueList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := &storage.ValueList{}
	for key, e := range s.collections[collection] {
		list.Items = append(list.Items, storage.Value{Key: key, ETag: e.etag, Data: e.data})
	}
	return list, nil
}

// Create inserts a value under a freshly assigned key.
func (s *Store) Create(ctx context.Context, collection, data string) (*storage.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := uuid.New().String()
	etag := uuid.New().String()
	s.collection(collection)[key] = entry{data: data, etag: etag}
	return &storage.Value{Key: key, ETag: etag, Data: data}, nil
}

// Update writes a value under key. A non-empty etag must match the
// stored version; an empty etag inserts the key if absent.
func (s *Store) Update(ctx context.Context, collection, key, data, etag string) (*storage.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collection(collection)
	existing, ok := coll[key]
	if !ok && etag != "" {
		return nil, domain.NewNotFound("key %q not found in collection %q", key, collection)
	}
	if ok && etag != "" && existing.etag != etag {
		return nil, domain.NewConflict("ETag mismatch for key %q", key)
	}

	next := entry{data: data, etag: uuid.New().String()}
	coll[key] = next
	return &storage.Value{Key: key, ETag: next.etag, Data: data}, nil
}

// Delete removes a value. Deleting an absent key succeeds.
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], key)
	return nil
}

// collection returns the named collection, creating it if needed.
// Callers must hold the write lock.
func (s *Store) collection(name string) map[string]entry {
	coll, ok := s.collections[name]
	if !ok {
		coll = make(map[string]entry)
		s.collections[name] = coll
	}
	return coll
}
