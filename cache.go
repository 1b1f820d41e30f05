package tidal

import (
	"context"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/tidal/dialect/sql"
)

// Cache stores encoded query results keyed by statement.
type Cache interface {
	// Get returns the cached payload for the key, reporting whether it
	// was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores the payload under the key for the given TTL.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration)
	// Delete drops the key.
	Delete(ctx context.Context, key string)
}

// MemoryCache is an in-process Cache with per-entry TTL. Expired
// entries are dropped lazily on access.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	payload []byte
	expires time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Get implements the Cache interface.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.payload, true
}

// Set implements the Cache interface.
func (c *MemoryCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = memoryEntry{payload: payload, expires: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Delete implements the Cache interface.
func (c *MemoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of entries, including not-yet-collected
// expired ones.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CacheKey derives a stable key from a rendered statement: the dialect,
// the SQL string and the encoded arguments.
func CacheKey(stmt sql.Statement) (string, error) {
	h := fnv.New64a()
	h.Write([]byte(stmt.Dialect))
	h.Write([]byte{0})
	h.Write([]byte(stmt.SQL))
	if len(stmt.Args) > 0 {
		data, err := msgpack.Marshal(stmt.Args)
		if err != nil {
			return "", fmt.Errorf("tidal: cache key: %w", err)
		}
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CachedAll runs the query through the cache: a hit decodes the stored
// rows without touching the database, a miss executes the query and
// stores the result for the given TTL.
func CachedAll(ctx context.Context, s Session, cache Cache, q *SelectQuery, ttl time.Duration) ([]map[string]any, error) {
	key, err := CacheKey(q.Statement(s.Dialect()))
	if err != nil {
		return nil, err
	}
	if payload, ok := cache.Get(ctx, key); ok {
		var rows []map[string]any
		if err := msgpack.Unmarshal(payload, &rows); err == nil {
			return rows, nil
		}
		// Undecodable entries are treated as misses and overwritten.
		cache.Delete(ctx, key)
	}
	rows, err := q.All(ctx, s)
	if err != nil {
		return nil, err
	}
	payload, err := msgpack.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("tidal: cache encode: %w", err)
	}
	cache.Set(ctx, key, payload, ttl)
	return rows, nil
}
