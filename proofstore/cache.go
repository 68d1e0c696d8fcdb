package proofstore

import (
	"context"

	lru "github.com/hashicorp/golang-lru"

	"github.com/drand/sigma/log"
)

// NewCachingStore wraps store with an ARC cache of recently read or written
// records.
func NewCachingStore(store Store, size int, l log.Logger) (Store, error) {
	cache, err := lru.NewARC(size)
	if err != nil {
		return nil, err
	}
	return &cachingStore{
		Store: store,
		cache: cache,
		log:   l,
	}, nil
}

type cachingStore struct {
	Store

	cache *lru.ARCCache
	log   log.Logger
}

// Put stores r and caches it.
func (c *cachingStore) Put(ctx context.Context, r *Record) (ID, error) {
	id, err := c.Store.Put(ctx, r)
	if err == nil {
		c.cache.Add(id, copyRecord(r))
	}
	return id, err
}

// Get returns the record from the cache, falling back to the wrapped store.
func (c *cachingStore) Get(ctx context.Context, id ID) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if val, ok := c.cache.Get(id); ok {
		c.log.Debugw("cache hit", "id", id.String())
		return copyRecord(val.(*Record)), nil
	}
	r, err := c.Store.Get(ctx, id)
	if err == nil && r != nil {
		c.cache.Add(id, copyRecord(r))
	}
	return r, err
}

// Del evicts id before removing it from the wrapped store.
func (c *cachingStore) Del(ctx context.Context, id ID) error {
	c.cache.Remove(id)
	return c.Store.Del(ctx, id)
}

func (c *cachingStore) Close(ctx context.Context) error {
	c.cache.Purge()
	return c.Store.Close(ctx)
}

func copyRecord(r *Record) *Record {
	return &Record{
		ProtocolID: r.ProtocolID,
		Statement:  append([]byte(nil), r.Statement...),
		Context:    append([]byte(nil), r.Context...),
		Proof:      append([]byte(nil), r.Proof...),
		Short:      r.Short,
	}
}
