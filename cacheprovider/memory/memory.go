// Package memory provides an in-process, bounded cacheprovider.Provider.
//
// Unlike the browser's "a mapping held in process memory", a long-running
// Go service cannot let that mapping grow without bound — every endpoint
// key an application ever defines would otherwise pin one entry forever.
// This provider is backed by github.com/hashicorp/golang-lru/v2 so the
// working set is capped; an evicted entry is simply a future cache miss,
// which querycore already treats as safe (the in-memory endpoint state,
// not the provider, is authoritative).
package memory

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	logging "github.com/ipfs/go-log/v2"

	"github.com/querycore/querycore/cacheprovider"
)

var log = logging.Logger("cacheprovider/memory")

// DefaultCapacity is the number of entries kept before the oldest
// unused entry is evicted.
const DefaultCapacity = 4096

// Provider is an LRU-bounded cacheprovider.Provider, safe for concurrent use.
type Provider struct {
	cache *lru.Cache[string, cacheprovider.Entry]
}

// New creates a memory provider that holds at most capacity entries. A
// capacity <= 0 uses DefaultCapacity.
func New(capacity int) *Provider {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := lru.NewWithEvict[string, cacheprovider.Entry](capacity, func(key string, _ cacheprovider.Entry) {
		log.Debugw("evicted cache entry", "key", key)
	})
	if err != nil {
		// Only returned by golang-lru when capacity <= 0, which cannot
		// happen here.
		panic(err)
	}
	return &Provider{cache: c}
}

func (p *Provider) Get(_ context.Context, key string) (cacheprovider.Entry, bool, error) {
	e, ok := p.cache.Get(key)
	if !ok || !e.Valid() {
		return cacheprovider.Entry{}, false, nil
	}
	return e, true, nil
}

func (p *Provider) Set(_ context.Context, key string, entry cacheprovider.Entry) error {
	p.cache.Add(key, entry)
	return nil
}

func (p *Provider) Remove(_ context.Context, key string) error {
	p.cache.Remove(key)
	return nil
}

var _ cacheprovider.Provider = (*Provider)(nil)
