// Package cache puts Redis in front of catalog reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"clinicpos/m/domain"
	"clinicpos/m/internal/store"
)

// Catalog is a cache-aside wrapper around a store. Medicine reads go
// through Redis; every medicine touched by a committed unit of work is
// evicted. Redis failures degrade to direct store reads.
type Catalog struct {
	store.Store
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group

	mu sync.Mutex
	// evictions counts Invalidate calls per medicine. A fill that saw the
	// count change while it ran deletes what it wrote.
	evictions map[int64]uint64
}

func NewCatalog(st store.Store, client *redis.Client, ttl time.Duration) *Catalog {
	return &Catalog{Store: st, client: client, ttl: ttl, evictions: make(map[int64]uint64)}
}

func (c *Catalog) evictionCount(id int64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictions[id]
}

func medicineKey(id int64) string {
	return fmt.Sprintf("clinicpos:medicine:%d", id)
}

func (c *Catalog) Medicine(ctx context.Context, id int64) (domain.Medicine, error) {
	key := medicineKey(id)
	b, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var m domain.Medicine
		if err := json.Unmarshal(b, &m); err == nil {
			return m, nil
		}
		log.Printf("[cache] dropping corrupt entry %s", key)
	case !errors.Is(err, redis.Nil):
		log.Printf("[cache] get %s: %v", key, err)
	}

	// singleflight collapses concurrent misses for one medicine into a
	// single store read. The fill outlives a cancelled first caller so the
	// other waiters still get an answer.
	v, err, _ := c.group.Do(key, func() (any, error) {
		fillCtx := context.WithoutCancel(ctx)
		seen := c.evictionCount(id)
		m, err := c.Store.Medicine(fillCtx, id)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(m)
		if err != nil {
			return m, nil
		}
		if err := c.client.Set(fillCtx, key, b, c.ttl).Err(); err != nil {
			log.Printf("[cache] set %s: %v", key, err)
			return m, nil
		}
		if c.evictionCount(id) != seen {
			if err := c.client.Del(fillCtx, key).Err(); err != nil {
				log.Printf("[cache] evict %s: %v", key, err)
			}
		}
		return m, nil
	})
	if err != nil {
		return domain.Medicine{}, err
	}
	return v.(domain.Medicine), nil
}

// WithinTx evicts the medicines whose stock changed once the unit of work
// has committed.
func (c *Catalog) WithinTx(ctx context.Context, fn func(store.Tx) error) error {
	tracked := &trackingTx{}
	err := c.Store.WithinTx(ctx, func(tx store.Tx) error {
		tracked.Tx = tx
		return fn(tracked)
	})
	if err != nil {
		return err
	}
	c.Invalidate(ctx, tracked.touched...)
	return nil
}

// Invalidate evicts cached medicines.
func (c *Catalog) Invalidate(ctx context.Context, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	c.mu.Lock()
	for i, id := range ids {
		c.evictions[id]++
		keys[i] = medicineKey(id)
	}
	c.mu.Unlock()
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[cache] evict %v: %v", keys, err)
	}
}

type trackingTx struct {
	store.Tx
	touched []int64
}

func (t *trackingTx) DecrementStock(ctx context.Context, id, expected, newQuantity int64) error {
	if err := t.Tx.DecrementStock(ctx, id, expected, newQuantity); err != nil {
		return err
	}
	t.touched = append(t.touched, id)
	return nil
}
