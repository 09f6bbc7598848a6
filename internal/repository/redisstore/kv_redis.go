// internal/repository/redisstore/kv_redis.go
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"novapay-wallet/internal/repository"
)

// DefaultPrefix namespaces every key this store writes.
const DefaultPrefix = "novapay:"

// maxUpdateAttempts bounds optimistic retries when a watched key changes under Update.
const maxUpdateAttempts = 10

// KVStore implements repository.KVStore on Redis strings.
type KVStore struct {
	client *redis.Client
	prefix string
}

// NewKVStore wraps client. An empty prefix selects DefaultPrefix.
func NewKVStore(client *redis.Client, prefix string) *KVStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &KVStore{client: client, prefix: prefix}
}

var _ repository.KVStore = (*KVStore)(nil)

func (s *KVStore) key(k string) string { return s.prefix + k }

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key '%s': %w", key, err)
	}
	return value, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key '%s': %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete key '%s': %w", key, err)
	}
	return nil
}

// Update runs fn under WATCH and writes its result in a MULTI/EXEC block,
// retrying when another client modified the key in between.
func (s *KVStore) Update(ctx context.Context, key string, fn repository.UpdateFunc) error {
	k := s.key(key)
	var fnErr error

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, k).Result()
		found := true
		if errors.Is(err, redis.Nil) {
			found, err = false, nil
		}
		if err != nil {
			return fmt.Errorf("failed to get key '%s': %w", key, err)
		}

		next, err := fn(current, found)
		if err != nil {
			fnErr = err
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && fnErr == nil {
			return fmt.Errorf("update: %w", err)
		}
		return err
	}
	return fmt.Errorf("update: key '%s' kept changing after %d attempts", key, maxUpdateAttempts)
}

func (s *KVStore) Close() error {
	return s.client.Close()
}
