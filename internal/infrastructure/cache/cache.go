package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every cache key this service writes.
const KeyPrefix = "crm"

// ErrKeyNotFound is returned when a key is absent from the cache.
var ErrKeyNotFound = errors.New("cache: key not found")

// Store is a thin Redis wrapper for read-side caching. Values are JSON with a
// TTL; invalidation is pattern-based per tenant and section. A Store with a
// nil client is disabled: every operation is a no-op and reads miss, so
// callers always fall through to the database.
type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New connects to Redis at addr. An empty addr yields a disabled store.
func New(addr, password string, db int, ttl time.Duration) *Store {
	if addr == "" {
		return &Store{ttl: ttl}
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})
	return &Store{client: client, ttl: ttl}
}

// NewWithClient wraps an existing client; used by tests.
func NewWithClient(client redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Enabled reports whether a Redis backend is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

// Key builds the canonical cache key: crm:<tenantID>:<section>:<key>.
func Key(tenantID, section, key string) string {
	return fmt.Sprintf("%s:%s:%s:%s", KeyPrefix, tenantID, section, key)
}

// GetJSON reads a key and unmarshals it into dest. Returns ErrKeyNotFound on
// a miss; any transport error is surfaced so callers can log and fall through.
func (s *Store) GetJSON(ctx context.Context, tenantID, section, key string, dest interface{}) error {
	if !s.Enabled() {
		return ErrKeyNotFound
	}
	raw, err := s.client.Get(ctx, Key(tenantID, section, key)).Result()
	if err == redis.Nil {
		return ErrKeyNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), dest)
}

// SetJSON marshals value and stores it under the store TTL.
func (s *Store) SetJSON(ctx context.Context, tenantID, section, key string, value interface{}) error {
	if !s.Enabled() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, Key(tenantID, section, key), raw, s.ttl).Err()
}

// Delete removes a single key.
func (s *Store) Delete(ctx context.Context, tenantID, section, key string) error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Del(ctx, Key(tenantID, section, key)).Err()
}

// InvalidateSection deletes every cached key for a tenant's section, e.g. all
// lead pages after a lead write.
func (s *Store) InvalidateSection(ctx context.Context, tenantID, section string) int {
	return s.DeleteScanMatch(ctx, fmt.Sprintf("%s:%s:%s:*", KeyPrefix, tenantID, section))
}

// InvalidateTenant wipes everything cached for a tenant.
func (s *Store) InvalidateTenant(ctx context.Context, tenantID string) int {
	return s.DeleteScanMatch(ctx, fmt.Sprintf("%s:%s:*", KeyPrefix, tenantID))
}

// DeleteScanMatch deletes all keys matching pattern using SCAN rather than
// KEYS, so large keyspaces don't block the server. Returns the number of keys
// removed.
func (s *Store) DeleteScanMatch(ctx context.Context, pattern string) int {
	if !s.Enabled() {
		return 0
	}

	deleted := 0
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			deleted += s.deleteKeys(ctx, batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("⚠️ Cache scan failed for pattern %s: %v", pattern, err)
		return deleted
	}
	if len(batch) > 0 {
		deleted += s.deleteKeys(ctx, batch)
	}
	return deleted
}

func (s *Store) deleteKeys(ctx context.Context, keys []string) int {
	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		log.Printf("⚠️ Cache delete failed: %v", err)
		return 0
	}
	return int(n)
}

// Ping verifies connectivity; used at startup for a log line only.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Close()
}
