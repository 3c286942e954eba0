package storageadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"telemetry-go/internal/config"
	"telemetry-go/internal/domain"
)

const prefixDoc = "doc:"

// RedisStore implements DocStore on Redis. Each document is one JSON
// value under "doc:{collection}:{key}"; ETag-checked writes run inside
// an optimistic WATCH transaction.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed document store.
func NewRedisStore(cfg *config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// docKey generates the Redis key for a document.
func docKey(collection, key string) string {
	return fmt.Sprintf("%s%s:%s", prefixDoc, collection, key)
}

// storedDoc is the Redis value; the key lives in the Redis key itself.
type storedDoc struct {
	ETag string `json:"etag"`
	Data string `json:"data"`
}

// Get fetches one document by key.
func (s *RedisStore) Get(ctx context.Context, collection, key string) (*Document, error) {
	data, err := s.client.Get(ctx, docKey(collection, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.NewNotFound("key %q not found in collection %q", key, collection)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	var stored storedDoc
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	return &Document{Key: key, ETag: stored.ETag, Data: stored.Data}, nil
}

// GetAll fetches every document in a collection, scanning the
// collection's key prefix.
func (s *RedisStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	prefix := docKey(collection, "")
	var docs []Document

	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		redisKey := iter.Val()

		data, err := s.client.Get(ctx, redisKey).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Evaporated between scan and get; skip it.
				continue
			}
			return nil, fmt.Errorf("failed to get document: %w", err)
		}

		var stored storedDoc
		if err := json.Unmarshal(data, &stored); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document: %w", err)
		}

		docs = append(docs, Document{
			Key:  redisKey[len(prefix):],
			ETag: stored.ETag,
			Data: stored.Data,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan collection: %w", err)
	}

	return docs, nil
}

// Insert stores a document under a freshly assigned key.
func (s *RedisStore) Insert(ctx context.Context, collection, data string) (*Document, error) {
	doc := Document{
		Key:  uuid.New().String(),
		ETag: uuid.New().String(),
		Data: data,
	}

	payload, err := json.Marshal(storedDoc{ETag: doc.ETag, Data: doc.Data})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	if err := s.client.Set(ctx, docKey(collection, doc.Key), payload, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to set document: %w", err)
	}

	return &doc, nil
}

// Upsert writes a document under key after the ETag check. The read
// and the conditional write run under WATCH so a concurrent writer
// retriggers the check instead of being silently overwritten.
func (s *RedisStore) Upsert(ctx context.Context, collection, key, data, etag string) (*Document, error) {
	redisKey := docKey(collection, key)
	doc := Document{Key: key, ETag: uuid.New().String(), Data: data}

	txn := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, redisKey).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if etag != "" {
				return domain.NewNotFound("key %q not found in collection %q", key, collection)
			}
		case err != nil:
			return fmt.Errorf("failed to get document: %w", err)
		default:
			var stored storedDoc
			if err := json.Unmarshal(current, &stored); err != nil {
				return fmt.Errorf("failed to unmarshal document: %w", err)
			}
			if etag != "" && stored.ETag != etag {
				return domain.NewConflict("ETag mismatch for key %q", key)
			}
		}

		payload, err := json.Marshal(storedDoc{ETag: doc.ETag, Data: doc.Data})
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisKey, payload, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < 3; attempt++ {
		err := s.client.Watch(ctx, txn, redisKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &doc, nil
	}
	return nil, domain.NewConflict("ETag mismatch for key %q", key)
}

// Delete removes a document. Deleting an absent key succeeds.
func (s *RedisStore) Delete(ctx context.Context, collection, key string) error {
	if err := s.client.Del(ctx, docKey(collection, key)).Err(); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
