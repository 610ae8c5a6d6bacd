package blueprint

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Cache keeps recently read blueprints by id. Stored and returned values are
// clones, so callers may mutate what they get.
//
// Every Invalidate bumps the id's generation. A load that started under an
// older generation is returned to its callers but never stored.
type Cache struct {
	store *ristretto.Cache
	group singleflight.Group
	ttl   time.Duration

	mu          sync.Mutex
	generations map[string]uint64
}

func NewCache(maxCost int64, ttl time.Duration) (*Cache, error) {
	if maxCost <= 0 {
		maxCost = 10000
	}
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{store: store, ttl: ttl, generations: make(map[string]uint64)}, nil
}

func (c *Cache) Get(id uuid.UUID) (*Blueprint, bool) {
	v, ok := c.store.Get(id.String())
	if !ok {
		return nil, false
	}
	bp, ok := v.(*Blueprint)
	if !ok {
		return nil, false
	}
	return bp.Clone(), true
}

func (c *Cache) Set(bp *Blueprint) {
	c.store.SetWithTTL(bp.ID.String(), bp.Clone(), 1, c.ttl)
	c.store.Wait()
}

// GetOrLoad returns the cached blueprint or calls load once per id, however
// many callers miss concurrently. A nil result from load is not cached.
func (c *Cache) GetOrLoad(ctx context.Context, id uuid.UUID, load func(context.Context) (*Blueprint, error)) (*Blueprint, error) {
	if bp, ok := c.Get(id); ok {
		return bp, nil
	}
	key := id.String()
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		gen := c.generation(key)
		bp, err := load(ctx)
		if err != nil || bp == nil {
			return bp, err
		}
		c.setIfCurrent(key, gen, bp)
		return bp, nil
	})
	if err != nil {
		return nil, err
	}
	bp, _ := v.(*Blueprint)
	return bp.Clone(), nil
}

// Invalidate drops id and detaches any load in flight for it, so callers
// arriving afterwards read the store again.
func (c *Cache) Invalidate(id uuid.UUID) {
	key := id.String()
	c.mu.Lock()
	c.generations[key]++
	c.store.Del(key)
	c.store.Wait()
	c.mu.Unlock()
	c.group.Forget(key)
}

func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key]
}

func (c *Cache) setIfCurrent(key string, gen uint64, bp *Blueprint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[key] != gen {
		return
	}
	c.store.SetWithTTL(key, bp.Clone(), 1, c.ttl)
	c.store.Wait()
}

func (c *Cache) Close() {
	c.store.Close()
}
