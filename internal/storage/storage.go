// Package storage provides the client for the key-value storage adapter
// service. The adapter exposes schemaless collections of opaque values
// over HTTP; this package maps its envelope format and status codes into
// the domain error taxonomy.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Value is the storage adapter's envelope around a stored payload.
type Value struct {
	// Key is the storage key for the value.
	Key string

	// ETag is the version token assigned by the store on every write.
	ETag string

	// Data is the opaque serialized payload.
	Data string
}

// ValueList is the envelope for a full-collection fetch.
type ValueList struct {
	Items []Value
}

// valueWire is the outbound wire form. The adapter expects PascalCase
// field names on writes.
type valueWire struct {
	Key  string `json:"Key,omitempty"`
	ETag string `json:"ETag,omitempty"`
	Data string `json:"Data"`
}

// MarshalJSON renders the envelope in the adapter's wire form.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(valueWire{Key: v.Key, ETag: v.ETag, Data: v.Data})
}

// UnmarshalJSON accepts any field-name casing the adapter has been
// observed to emit (Key/key, id, ETag/eTag, Data/data), normalizing at
// the boundary so no other layer needs to care.
func (v *Value) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var key, id string
	for name, field := range raw {
		switch strings.ToLower(name) {
		case "key":
			if err := json.Unmarshal(field, &key); err != nil {
				return fmt.Errorf("invalid key field: %w", err)
			}
		case "id":
			if err := json.Unmarshal(field, &id); err != nil {
				return fmt.Errorf("invalid id field: %w", err)
			}
		case "etag":
			if err := json.Unmarshal(field, &v.ETag); err != nil {
				return fmt.Errorf("invalid etag field: %w", err)
			}
		case "data":
			if err := json.Unmarshal(field, &v.Data); err != nil {
				return fmt.Errorf("invalid data field: %w", err)
			}
		}
	}

	// Some adapter deployments report the key as "id", some as "Key".
	v.Key = key
	if id != "" {
		v.Key = id
	}
	return nil
}

// UnmarshalJSON accepts both "Items" and "items" as the list key.
func (l *ValueList) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	for name, field := range raw {
		if strings.ToLower(name) == "items" {
			return json.Unmarshal(field, &l.Items)
		}
	}

	// A collection with no items key is an empty collection.
	l.Items = nil
	return nil
}

// MarshalJSON renders the list envelope with the adapter's Items key.
func (l ValueList) MarshalJSON() ([]byte, error) {
	items := l.Items
	if items == nil {
		items = []Value{}
	}
	return json.Marshal(map[string][]Value{"Items": items})
}

// Store is the storage adapter contract consumed by repositories.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get fetches a single value by key.
	Get(ctx context.Context, collection, key string) (*Value, error)

	// GetAll fetches every value in a collection in one round trip.
	GetAll(ctx context.Context, collection string) (*ValueList, error)

	// Create inserts a value, letting the store assign its key.
	Create(ctx context.Context, collection, data string) (*Value, error)

	// Update writes a value under a caller-chosen key. A non-empty
	// etag must match the stored version or the write is rejected
	// with a conflict; an empty etag inserts the key if absent.
	Update(ctx context.Context, collection, key, data, etag string) (*Value, error)

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, collection, key string) error
}
