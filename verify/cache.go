package verify

import (
	"time"

	cache "github.com/Code-Hex/go-generics-cache"

	"github.com/lamportlabs/sol402/metrics"
)

// Cache memoizes verifier verdicts per transaction signature for a bounded
// window. Entries past the TTL are treated as absent; expiry is lazy, on
// read, with no background sweep. Only completed verdicts are stored;
// transport failures never populate the cache, so a transient RPC hiccup
// cannot blacklist a signature.
type Cache struct {
	entries *cache.Cache[string, bool]
	ttl     time.Duration
	metrics metrics.Recorder
	network string
}

// NewCache creates a verdict cache with the given TTL.
func NewCache(ttl time.Duration, rec metrics.Recorder, network string) *Cache {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Cache{
		entries: cache.New[string, bool](),
		ttl:     ttl,
		metrics: rec,
		network: network,
	}
}

// Get returns the cached verdict for a signature, or ok=false when no live
// entry exists.
func (c *Cache) Get(signature string) (verdict bool, ok bool) {
	verdict, ok = c.entries.Get(signature)
	labels := map[string]string{"network": c.network}
	if ok {
		c.metrics.IncCounter(metrics.CounterCacheHit, labels)
	} else {
		c.metrics.IncCounter(metrics.CounterCacheMiss, labels)
	}
	return verdict, ok
}

// Set stores a completed verdict.
func (c *Cache) Set(signature string, verdict bool) {
	c.entries.Set(signature, verdict, cache.WithExpiration(c.ttl))
}
