// Package memdb is an in memory proofstore.Store.
package memdb

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/drand/sigma/proofstore"
)

// Store keeps encoded records in a map.
type Store struct {
	storeMtx *sync.RWMutex
	store    map[proofstore.ID][]byte
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		storeMtx: &sync.RWMutex{},
		store:    make(map[proofstore.ID][]byte),
	}
}

func (m *Store) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.storeMtx.RLock()
	defer m.storeMtx.RUnlock()

	return len(m.store), nil
}

func (m *Store) Put(ctx context.Context, r *proofstore.Record) (proofstore.ID, error) {
	if err := ctx.Err(); err != nil {
		return proofstore.ID{}, err
	}
	buff, err := r.Marshal()
	if err != nil {
		return proofstore.ID{}, err
	}
	id, err := r.ID()
	if err != nil {
		return id, err
	}

	m.storeMtx.Lock()
	defer m.storeMtx.Unlock()
	m.store[id] = buff
	return id, nil
}

func (m *Store) Get(ctx context.Context, id proofstore.ID) (*proofstore.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.storeMtx.RLock()
	buff, ok := m.store[id]
	m.storeMtx.RUnlock()
	if !ok {
		return nil, proofstore.ErrNotFound
	}
	r := &proofstore.Record{}
	return r, r.Unmarshal(buff)
}

func (m *Store) Del(ctx context.Context, id proofstore.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.storeMtx.Lock()
	defer m.storeMtx.Unlock()
	delete(m.store, id)
	return nil
}

// ForEach iterates over a snapshot of the store taken when it is called.
func (m *Store) ForEach(ctx context.Context, fn func(proofstore.ID, *proofstore.Record) error) error {
	m.storeMtx.RLock()
	ids := make([]proofstore.ID, 0, len(m.store))
	snapshot := make(map[proofstore.ID][]byte, len(m.store))
	for id, buff := range m.store {
		ids = append(ids, id)
		snapshot[id] = buff
	}
	m.storeMtx.RUnlock()

	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := &proofstore.Record{}
		if err := r.Unmarshal(snapshot[id]); err != nil {
			return err
		}
		if err := fn(id, r); err != nil {
			return err
		}
	}
	return nil
}

func (m *Store) Close(context.Context) error {
	return nil
}
