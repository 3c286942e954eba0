// Package storageadapter implements the schemaless key-value store
// service the rule repository talks to: collections of opaque values
// with store-assigned keys and ETag-checked writes, served over HTTP.
package storageadapter

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"telemetry-go/internal/domain"
)

// Document is one stored value with its version token.
type Document struct {
	Key  string `json:"Key"`
	ETag string `json:"ETag"`
	Data string `json:"Data"`
}

// DocumentList wraps a full-collection fetch.
type DocumentList struct {
	Items []Document `json:"Items"`
}

// DocStore is the persistence contract behind the adapter's HTTP
// surface. Implementations must be safe for concurrent use.
type DocStore interface {
	// Get fetches one document by key.
	Get(ctx context.Context, collection, key string) (*Document, error)

	// GetAll fetches every document in a collection.
	GetAll(ctx context.Context, collection string) ([]Document, error)

	// Insert stores a document under a freshly assigned key.
	Insert(ctx context.Context, collection, data string) (*Document, error)

	// Upsert writes a document under a caller-chosen key. A non-empty
	// etag must match the stored version; an empty etag inserts the
	// key if absent. Every write assigns a fresh ETag.
	Upsert(ctx context.Context, collection, key, data, etag string) (*Document, error)

	// Delete removes a document by key.
	Delete(ctx context.Context, collection, key string) error
}

// MemoryStore is the in-memory DocStore. Safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
}

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
	}
}

// Get fetches one document by key.
func (s *MemoryStore) Get(ctx context.Context, collection, key string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][key]
	if !ok {
		return nil, domain.NewNotFound("key %q not found in collection %q", key, collection)
	}
	return &doc, nil
}

// GetAll fetches every document in a collection.
func (s *MemoryStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		docs = append(docs, doc)
	}
	return docs, nil
}

// Insert stores a document under a freshly assigned key.
func (s *MemoryStore) Insert(ctx context.Context, collection, data string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := Document{
		Key:  uuid.New().String(),
		ETag: uuid.New().String(),
		Data: data,
	}
	s.collection(collection)[doc.Key] = doc
	return &doc, nil
}

// Upsert writes a document under key after the ETag check.
func (s *MemoryStore) Upsert(ctx context.Context, collection, key, data, etag string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collection(collection)
	existing, ok := coll[key]
	if !ok && etag != "" {
		return nil, domain.NewNotFound("key %q not found in collection %q", key, collection)
	}
	if ok && etag != "" && existing.ETag != etag {
		return nil, domain.NewConflict("ETag mismatch for key %q", key)
	}

	doc := Document{Key: key, ETag: uuid.New().String(), Data: data}
	coll[key] = doc
	return &doc, nil
}

// Delete removes a document. Deleting an absent key succeeds.
func (s *MemoryStore) Delete(ctx context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], key)
	return nil
}

// collection returns the named collection, creating it if needed.
// Callers must hold the write lock.
func (s *MemoryStore) collection(name string) map[string]Document {
	coll, ok := s.collections[name]
	if !ok {
		coll = make(map[string]Document)
		s.collections[name] = coll
	}
	return coll
}
