// Package cache stores imported layers between runs.
//
// Parsing a large TigerXML or RS3 file costs far more than reading back its
// JSON layer encoding, so the pipeline caches imported layers keyed by the
// BLAKE3 hash of the source bytes and the import options. [FileCache] keeps
// entries under the user cache directory; [NullCache] disables caching.
//
// Keys come from a [Keyer]. [ScopedKeyer] prefixes keys, which the CLI uses to
// keep entries of different layermerge versions apart.
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/layermerge/pkg/observability"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources.
	Close() error
}

// Instrumented reports hits, misses and writes of a cache to the registered
// [observability.CacheHooks] under keyType.
type Instrumented struct {
	Cache
	KeyType string
}

// NewInstrumented wraps c.
func NewInstrumented(c Cache, keyType string) *Instrumented {
	return &Instrumented{Cache: c, KeyType: keyType}
}

// Get looks up key and reports a hit or miss.
func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, c.KeyType)
		} else {
			observability.Cache().OnCacheMiss(ctx, c.KeyType)
		}
	}
	return data, hit, err
}

// Set stores data and reports the write.
func (c *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, c.KeyType, len(data))
	return nil
}
